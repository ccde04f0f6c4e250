package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/game"
	"github.com/pthm-cable/forage/neural"
	"github.com/pthm-cable/forage/storage"
	"github.com/pthm-cable/forage/telemetry"
)

// Evaluator runs one policy over many seeds in parallel.
type Evaluator struct {
	baseConfig *config.Config
	factory    *neural.Factory
	seeds      []int64
	workers    int
	logger     *slog.Logger
}

// NewEvaluator creates an evaluator. workers <= 0 runs every seed at once.
func NewEvaluator(baseCfg *config.Config, factory *neural.Factory, seeds []int64, workers int, logger *slog.Logger) *Evaluator {
	if workers <= 0 || workers > len(seeds) {
		workers = len(seeds)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		baseConfig: baseCfg,
		factory:    factory,
		seeds:      seeds,
		workers:    workers,
		logger:     logger,
	}
}

// Report is the aggregate of one evaluation.
type Report struct {
	EvaluationID string
	Results      []game.Result
	Records      []telemetry.RunRecord
	Fitness      telemetry.Summary // over runs that did not fail
	Failed       int
	Elapsed      time.Duration
}

// Evaluate runs every seed and aggregates fitness (higher = better).
// Results come back in seed order regardless of completion order.
func (e *Evaluator) Evaluate(ctx context.Context) Report {
	start := time.Now()
	report := Report{
		EvaluationID: storage.NewID(),
		Results:      make([]game.Result, len(e.seeds)),
		Records:      make([]telemetry.RunRecord, len(e.seeds)),
	}

	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup

	for i, seed := range e.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cfg := e.baseConfig.Clone()
			cfg.Run.Seed = s
			res := e.runSimulation(ctx, cfg)
			report.Results[idx] = res
			report.Records[idx] = res.Record(cfg)
		}(i, seed)
	}
	wg.Wait()

	var fitness []float64
	for _, r := range report.Results {
		if r.Failed || r.Cancelled {
			report.Failed++
			continue
		}
		fitness = append(fitness, r.Fitness)
	}
	report.Fitness = telemetry.Summarize(fitness)
	report.Elapsed = time.Since(start)
	return report
}

// runSimulation executes a single run with its own policy instance.
func (e *Evaluator) runSimulation(ctx context.Context, cfg *config.Config) game.Result {
	runID := storage.NewID()
	logger := e.logger.With("run_id", runID, "seed", cfg.Run.Seed)

	policy, err := e.factory.New()
	if err != nil {
		return game.Result{RunID: runID, Seed: cfg.Run.Seed, Failed: true, Err: err}
	}
	sim, err := game.New(cfg, policy, game.Options{RunID: runID, Logger: logger})
	if err != nil {
		return game.Result{RunID: runID, Seed: cfg.Run.Seed, Failed: true, Err: err}
	}
	return sim.Run(ctx)
}

// Save persists every run and the evaluation summary.
func (r Report) Save(ctx context.Context, store storage.Store, policy string, seeds []int64) error {
	eval := storage.Evaluation{
		VersionedRecord: storage.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:        r.EvaluationID,
		Policy:    policy,
		Seeds:     seeds,
		Failed:    r.Failed,
		Fitness:   r.Fitness,
		CreatedAt: time.Now().UTC(),
	}
	for _, rec := range r.Records {
		if err := store.SaveRun(ctx, storage.NewRun(r.EvaluationID, rec)); err != nil {
			return err
		}
		eval.RunIDs = append(eval.RunIDs, rec.RunID)
	}
	return store.SaveEvaluation(ctx, eval)
}

// Seeds returns n deterministic evaluation seeds starting at base.
func Seeds(n int, base int64) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = base + int64(i)*1000
	}
	return seeds
}
