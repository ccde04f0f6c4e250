// Package main evaluates a foraging policy over many seeds and reports
// the fitness distribution.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/neural"
	"github.com/pthm-cable/forage/storage"
	"github.com/pthm-cable/forage/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	seeds := flag.Int("seeds", 8, "Number of seeds to evaluate")
	seedBase := flag.Int64("seed-base", 42, "First seed; later seeds step by 1000")
	workers := flag.Int("workers", 0, "Concurrent runs (0 = one per seed)")
	maxTicks := flag.Int("max-ticks", -1, "Per-run tick cap (0 = unlimited, -1 = use config)")
	arrangement := flag.String("arrangement", "", "Flower arrangement (empty = use config)")
	policy := flag.String("policy", "", "Policy kind: constant, ffnn, neat (empty = use config)")
	policySeed := flag.Int64("policy-seed", 1, "Seed for random policy weights")
	weights := flag.String("weights", "", "FFNN weights JSON to load")
	outputDir := flag.String("output", "", "Output directory for runs.csv and summary.json")
	storeKind := flag.String("store", "memory", "Run store: memory or sqlite")
	dbPath := flag.String("db", "forage.db", "SQLite database path")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *seeds < 1 {
		fatal("--seeds must be positive")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("failed to load config", "error", err)
	}
	if *maxTicks >= 0 {
		cfg.Run.MaxTicks = *maxTicks
	}
	if *arrangement != "" {
		cfg.Run.Arrangement = *arrangement
	}
	if *policy != "" {
		cfg.Neural.Policy = *policy
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", "error", err)
	}

	factory, err := neural.NewFactory(cfg.Neural, *policySeed, *weights)
	if err != nil {
		fatal("failed to build policy", "error", err)
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		fatal("failed to open store", "error", err)
	}
	defer storage.CloseIfSupported(store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Init(ctx); err != nil {
		fatal("failed to init store", "error", err)
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		fatal("failed to create output", "error", err)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	evalSeeds := Seeds(*seeds, *seedBase)
	evaluator := NewEvaluator(cfg, factory, evalSeeds, *workers, logger)

	slog.Info("starting evaluation",
		"policy", factory.Kind(),
		"seeds", len(evalSeeds),
		"workers", evaluator.workers,
		"arrangement", cfg.Run.Arrangement,
		"max_ticks", cfg.Run.MaxTicks,
	)

	report := evaluator.Evaluate(ctx)

	for _, rec := range report.Records {
		if err := out.WriteRun(rec); err != nil {
			slog.Error("failed to write run", "error", err)
		}
	}
	if err := out.WriteJSON("summary.json", report.Fitness); err != nil {
		slog.Error("failed to write summary", "error", err)
	}
	if bw, ok := factory.Weights(); ok && *weights == "" {
		if err := out.WriteJSON("weights.json", bw); err != nil {
			slog.Error("failed to write weights", "error", err)
		}
	}
	if err := report.Save(context.WithoutCancel(ctx), store, factory.Kind(), evalSeeds); err != nil {
		slog.Error("failed to persist evaluation", "error", err)
	}

	slog.Info("evaluation complete",
		"evaluation_id", report.EvaluationID,
		"fitness", report.Fitness,
		"failed", report.Failed,
		"elapsed", report.Elapsed.String(),
	)
	fmt.Printf("fitness mean=%.6f std=%.6f min=%.6f max=%.6f (%d runs, %d failed)\n",
		report.Fitness.Mean, report.Fitness.Std, report.Fitness.Min, report.Fitness.Max,
		report.Fitness.Count, report.Failed)
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
