package game

import (
	"log/slog"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/telemetry"
)

// TickRecorder writes every Nth snapshot to ticks.csv.
type TickRecorder struct {
	out    *telemetry.OutputManager
	every  int
	logger *slog.Logger
	failed bool
}

// NewTickRecorder records every snapshot whose tick is a multiple of every.
// every <= 0 disables recording.
func NewTickRecorder(out *telemetry.OutputManager, every int, logger *slog.Logger) *TickRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &TickRecorder{out: out, every: every, logger: logger}
}

// ObserveTick implements Observer.
func (r *TickRecorder) ObserveTick(snap *Snapshot) {
	if r.out == nil || r.every <= 0 || r.failed || snap.Tick%r.every != 0 {
		return
	}
	if err := r.out.WriteTick(snap.TickRecord()); err != nil {
		// Log once; a broken file stays broken
		r.logger.Error("failed to write tick", "tick", snap.Tick, "error", err)
		r.failed = true
	}
}

// PerfReporter logs perf stats and appends them to perf.csv every N ticks.
type PerfReporter struct {
	perf   *telemetry.PerfCollector
	out    *telemetry.OutputManager
	every  int
	logger *slog.Logger
}

// NewPerfReporter reports the collector's rolling window every N ticks.
func NewPerfReporter(perf *telemetry.PerfCollector, out *telemetry.OutputManager, every int, logger *slog.Logger) *PerfReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PerfReporter{perf: perf, out: out, every: every, logger: logger}
}

// ObserveTick implements Observer.
func (r *PerfReporter) ObserveTick(snap *Snapshot) {
	if r.perf == nil || r.every <= 0 || snap.Tick%r.every != 0 {
		return
	}
	stats := r.perf.Stats()
	r.logger.Debug("perf", "tick", snap.Tick, "stats", stats)
	if err := r.out.WritePerf(stats, snap.Tick); err != nil {
		r.logger.Error("failed to write perf", "error", err)
	}
}

// ProgressLogger logs a one-line summary every N ticks.
type ProgressLogger struct {
	every  int
	logger *slog.Logger
}

// NewProgressLogger logs progress every N ticks.
func NewProgressLogger(every int, logger *slog.Logger) *ProgressLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressLogger{every: every, logger: logger}
}

// ObserveTick implements Observer.
func (p *ProgressLogger) ObserveTick(snap *Snapshot) {
	if p.every <= 0 || snap.Tick%p.every != 0 {
		return
	}
	c := snap.Counters
	p.logger.Info("progress",
		"tick", snap.Tick,
		"sim_time", snap.SimTime,
		"weather", c.Weather,
		"full_hive_bouts", c.FullHiveBouts,
		"total_bouts", c.TotalBouts,
		"flowers", c.Flowers,
		"special_flowers", c.SpecialFlowers,
		"returning", c.Returning,
		"at_hive", c.AtHive,
		"foraging_efficiency", c.ForagingEfficiency,
	)
}

// BookmarkRecorder checks every new full-hive bout for notable changes,
// logging and recording each bookmark and optionally dumping the world.
type BookmarkRecorder struct {
	detector    *telemetry.BookmarkDetector
	out         *telemetry.OutputManager
	cfg         *config.Config
	runID       string
	snapshotDir string
	logger      *slog.Logger
	lastBouts   int
}

// NewBookmarkRecorder creates a recorder. An empty snapshotDir disables
// world dumps.
func NewBookmarkRecorder(cfg *config.Config, runID string, out *telemetry.OutputManager, snapshotDir string, logger *slog.Logger) *BookmarkRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookmarkRecorder{
		detector:    telemetry.NewBookmarkDetector(10),
		out:         out,
		cfg:         cfg,
		runID:       runID,
		snapshotDir: snapshotDir,
		logger:      logger,
	}
}

// ObserveTick implements Observer.
func (r *BookmarkRecorder) ObserveTick(snap *Snapshot) {
	c := snap.Counters
	if c.FullHiveBouts <= r.lastBouts {
		return
	}
	r.lastBouts = c.FullHiveBouts

	bookmarks := r.detector.Check(telemetry.BoutStats{
		Tick:               snap.Tick,
		FullHiveBouts:      c.FullHiveBouts,
		ForagingEfficiency: c.ForagingEfficiency,
		SearchEfficiency:   c.SearchEfficiency,
	})
	for _, bm := range bookmarks {
		bm.LogBookmark(r.logger)
		if err := r.out.WriteBookmark(bm); err != nil {
			r.logger.Error("failed to write bookmark", "error", err)
		}
		if r.snapshotDir != "" {
			world := snap.WorldState(r.cfg, r.runID)
			world.Bookmark = &bm
			if _, err := telemetry.SaveSnapshot(world, r.snapshotDir); err != nil {
				r.logger.Error("failed to save snapshot", "error", err)
			}
		}
	}
}
