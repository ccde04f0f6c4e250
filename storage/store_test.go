package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/forage/telemetry"
)

func testRun(id, evalID string, seed int64, at time.Time) Run {
	run := NewRun(evalID, telemetry.RunRecord{
		RunID:          id,
		Seed:           seed,
		Arrangement:    "random",
		Fitness:        float64(seed) / 10,
		ForagingSeries: []float64{1, 2, 3},
	})
	run.CreatedAt = at
	return run
}

// exerciseStore runs the shared contract against one backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runs := []Run{
		testRun("r2", "e1", 2, base.Add(time.Second)),
		testRun("r1", "e1", 1, base),
		testRun("r3", "e2", 3, base.Add(2*time.Second)),
	}
	for _, run := range runs {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID(), err)
		}
	}

	got, ok, err := store.GetRun(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if got.Record.Seed != 1 || len(got.Record.ForagingSeries) != 3 || got.EvaluationID != "e1" {
		t.Fatalf("unexpected run loaded: %+v", got)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); ok || err != nil {
		t.Fatalf("missing run: ok=%v err=%v", ok, err)
	}

	listed, err := store.ListRuns(ctx, "e1")
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(listed) != 2 || listed[0].ID() != "r1" || listed[1].ID() != "r2" {
		t.Fatalf("unexpected e1 runs: %v", runIDs(listed))
	}
	all, err := store.ListRuns(ctx, "")
	if err != nil {
		t.Fatalf("list all runs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %v", runIDs(all))
	}

	// Saving again replaces
	updated := runs[1]
	updated.Record.Fitness = 9
	if err := store.SaveRun(ctx, updated); err != nil {
		t.Fatalf("update run: %v", err)
	}
	if got, _, _ := store.GetRun(ctx, "r1"); got.Record.Fitness != 9 {
		t.Fatalf("fitness = %v after update, want 9", got.Record.Fitness)
	}

	eval := Evaluation{
		VersionedRecord: current(),
		ID:              "e1",
		Policy:          "ffnn",
		Seeds:           []int64{1, 2},
		RunIDs:          []string{"r1", "r2"},
		Fitness:         telemetry.Summarize([]float64{0.1, 0.2}),
		CreatedAt:       base,
	}
	if err := store.SaveEvaluation(ctx, eval); err != nil {
		t.Fatalf("save evaluation: %v", err)
	}
	loaded, ok, err := store.GetEvaluation(ctx, "e1")
	if err != nil || !ok {
		t.Fatalf("get evaluation: ok=%v err=%v", ok, err)
	}
	if loaded.Policy != "ffnn" || len(loaded.RunIDs) != 2 || loaded.Fitness.Count != 2 {
		t.Fatalf("unexpected evaluation loaded: %+v", loaded)
	}
	if _, ok, err := store.GetEvaluation(ctx, "missing"); ok || err != nil {
		t.Fatalf("missing evaluation: ok=%v err=%v", ok, err)
	}
}

func runIDs(runs []Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID()
	}
	return ids
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "forage.db"))
	t.Cleanup(func() {
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "forage.db")

	first := NewSQLiteStore(path)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := first.SaveRun(ctx, testRun("r1", "e1", 7, time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := NewSQLiteStore(path)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		_ = second.Close()
	})
	got, ok, err := second.GetRun(ctx, "r1")
	if err != nil || !ok || got.Record.Seed != 7 {
		t.Fatalf("after reopen: run=%+v ok=%v err=%v", got, ok, err)
	}
}

func TestStoresRequireInit(t *testing.T) {
	ctx := context.Background()
	run := testRun("r1", "", 1, time.Now())

	if err := NewMemoryStore().SaveRun(ctx, run); err == nil {
		t.Error("memory store saved before Init")
	}
	if err := NewSQLiteStore("unused.db").SaveRun(ctx, run); err == nil {
		t.Error("sqlite store saved before Init")
	}
	if err := NewSQLiteStore("").Init(ctx); err == nil {
		t.Error("sqlite store accepted an empty path")
	}
}
