package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/forage/config"
)

func TestCollectorRecord(t *testing.T) {
	c := NewCollector()

	if _, _, ok := c.Record(0, 50, []float64{0.1}); ok {
		t.Error("recorded before any full-hive bout")
	}
	if c.Len() != 0 {
		t.Fatalf("len = %d, want 0", c.Len())
	}

	foraging, search, ok := c.Record(2, 50, []float64{0.1, 0.3, 0})
	if !ok {
		t.Fatal("Record returned false")
	}
	if foraging != 25 {
		t.Errorf("foraging = %v, want 25", foraging)
	}
	if math.Abs(search-0.4/3) > 1e-12 {
		t.Errorf("search = %v, want %v", search, 0.4/3)
	}

	c.Record(3, 90, nil)
	if f, s := c.Last(); f != 30 || s != 0 {
		t.Errorf("last = %v/%v, want 30/0", f, s)
	}
	if c.Len() != 2 || len(c.Search()) != 2 {
		t.Errorf("series lengths %d/%d", len(c.Foraging()), len(c.Search()))
	}

	c.Reset()
	if c.Len() != 0 {
		t.Error("Reset kept entries")
	}
}

func TestFitnessReductions(t *testing.T) {
	c := NewCollector()
	c.Record(1, 10, []float64{0.2})
	c.Record(2, 30, []float64{0.4})
	totals := RunTotals{Ticks: 60, TotalNectar: 30}

	tests := []struct {
		reduction string
		want      float64
	}{
		{config.ReductionFinalForagingEfficiency, 15},
		{config.ReductionNectarPerTick, 0.5},
		{config.ReductionMeanSearchEfficiency, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.reduction, func(t *testing.T) {
			got, err := Fitness(tt.reduction, c, totals)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("fitness = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := Fitness("median", c, totals); err == nil {
		t.Error("expected error for unknown reduction")
	}
}

func TestFitnessEmptyRun(t *testing.T) {
	c := NewCollector()
	for _, r := range []string{
		config.ReductionFinalForagingEfficiency,
		config.ReductionNectarPerTick,
		config.ReductionMeanSearchEfficiency,
	} {
		got, err := Fitness(r, c, RunTotals{})
		if err != nil || got != 0 {
			t.Errorf("%s: got (%v, %v), want 0", r, got, err)
		}
	}
}
