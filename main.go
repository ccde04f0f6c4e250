package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/game"
	"github.com/pthm-cable/forage/neural"
	"github.com/pthm-cable/forage/storage"
	"github.com/pthm-cable/forage/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, -1 = time-based)")
	arrangement := flag.String("arrangement", "", "Flower arrangement (empty = use config)")
	agents := flag.Int("agents", 0, "Agent count (0 = use config)")
	flowers := flag.Int("flowers", -1, "Flower count (-1 = use config)")
	special := flag.Int("special", -1, "Special flower count (-1 = use config)")
	target := flag.Int("target", 0, "Target full-hive bouts (0 = use config)")
	maxTicks := flag.Int("max-ticks", -1, "Stop after N ticks (0 = unlimited, -1 = use config)")
	policy := flag.String("policy", "", "Policy kind: constant, ffnn, neat (empty = use config)")
	weights := flag.String("weights", "", "FFNN weights JSON to load")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for world snapshots at bookmarks and run end")
	storeKind := flag.String("store", "", "Persist the run: memory or sqlite (empty = off)")
	dbPath := flag.String("db", "forage.db", "SQLite database path")
	progressEvery := flag.Int("progress-every", 1000, "Log progress every N ticks (0 = off)")
	perfEvery := flag.Int("perf-every", 0, "Report perf stats every N ticks (0 = off)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// CLI overrides
	switch {
	case *seed == -1:
		cfg.Run.Seed = time.Now().UnixNano()
	case *seed != 0:
		cfg.Run.Seed = *seed
	}
	if *arrangement != "" {
		cfg.Run.Arrangement = *arrangement
	}
	if *agents > 0 {
		cfg.Run.AgentCount = *agents
	}
	if *flowers >= 0 {
		cfg.Run.FlowerCount = *flowers
	}
	if *special >= 0 {
		cfg.Run.SpecialFlowerCount = *special
	}
	if *target > 0 {
		cfg.Run.TargetFullHiveBouts = *target
	}
	if *maxTicks >= 0 {
		cfg.Run.MaxTicks = *maxTicks
	}
	if *policy != "" {
		cfg.Neural.Policy = *policy
	}

	factory, err := neural.NewFactory(cfg.Neural, cfg.Run.Seed, *weights)
	if err != nil {
		slog.Error("failed to build policy", "error", err)
		os.Exit(1)
	}
	pol, err := factory.New()
	if err != nil {
		slog.Error("failed to build policy", "error", err)
		os.Exit(1)
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	if bw, ok := factory.Weights(); ok && *weights == "" {
		if err := out.WriteJSON("weights.json", bw); err != nil {
			slog.Error("failed to write weights", "error", err)
		}
	}

	runID := storage.NewID()
	var perf *telemetry.PerfCollector
	observers := []game.Observer{
		game.NewTickRecorder(out, cfg.Telemetry.TickCSVEvery, logger),
		game.NewProgressLogger(*progressEvery, logger),
		game.NewBookmarkRecorder(cfg, runID, out, *snapshotDir, logger),
	}
	if *perfEvery > 0 {
		perf = telemetry.NewPerfCollector(*perfEvery)
		observers = append(observers, game.NewPerfReporter(perf, out, *perfEvery, logger))
	}

	sim, err := game.New(cfg, pol, game.Options{
		RunID:     runID,
		Logger:    logger,
		Observers: observers,
		Perf:      perf,
	})
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := sim.Run(ctx)
	rec := res.Record(sim.Config())
	if err := out.WriteRun(rec); err != nil {
		slog.Error("failed to write run", "error", err)
	}
	if *snapshotDir != "" {
		world := sim.Snapshot().WorldState(sim.Config(), runID)
		if path, err := telemetry.SaveSnapshot(world, *snapshotDir); err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path)
		}
	}

	if *storeKind != "" {
		if err := persist(ctx, *storeKind, *dbPath, rec); err != nil {
			slog.Error("failed to persist run", "error", err)
		}
	}

	if res.Failed {
		stop()
		out.Close()
		os.Exit(1)
	}
}

func persist(ctx context.Context, kind, path string, rec telemetry.RunRecord) error {
	store, err := storage.NewStore(kind, path)
	if err != nil {
		return err
	}
	defer storage.CloseIfSupported(store)

	// A cancelled run is still worth keeping
	ctx = context.WithoutCancel(ctx)
	if err := store.Init(ctx); err != nil {
		return err
	}
	return store.SaveRun(ctx, storage.NewRun("", rec))
}
