package telemetry

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/forage/config"
)

// RunTotals are the end-of-run counters a fitness reduction may use.
type RunTotals struct {
	Ticks       int
	TotalNectar float64
}

// Fitness reduces a run to one scalar (higher is better).
//
//   - final_foraging_efficiency: last entry of the foraging series
//   - nectar_per_tick: total nectar collected divided by ticks run
//   - mean_search_efficiency: mean of the search series
//
// Every reduction is 0 for a run that recorded nothing.
func Fitness(reduction string, c *Collector, totals RunTotals) (float64, error) {
	switch reduction {
	case config.ReductionFinalForagingEfficiency:
		foraging, _ := c.Last()
		return foraging, nil
	case config.ReductionNectarPerTick:
		if totals.Ticks <= 0 {
			return 0, nil
		}
		return totals.TotalNectar / float64(totals.Ticks), nil
	case config.ReductionMeanSearchEfficiency:
		if c.Len() == 0 {
			return 0, nil
		}
		return floats.Sum(c.Search()) / float64(c.Len()), nil
	default:
		return 0, fmt.Errorf("unknown fitness reduction %q", reduction)
	}
}
