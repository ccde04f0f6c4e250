package game

import (
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/telemetry"
)

// Result summarizes a finished (or cancelled) run.
type Result struct {
	RunID              string
	Seed               int64
	Fitness            float64
	ForagingEfficiency float64
	SearchEfficiency   float64
	ForagingSeries     []float64
	SearchSeries       []float64
	Ticks              int
	FullHiveBouts      int
	TotalBouts         int
	TotalNectar        float64
	TimedOut           bool
	Cancelled          bool
	Failed             bool
	Err                error
}

// Result reduces the current state of the run. A failed run reports
// zero fitness.
func (s *Simulation) Result() Result {
	foraging, search := s.collector.Last()
	res := Result{
		RunID:              s.runID,
		Seed:               s.cfg.Run.Seed,
		ForagingEfficiency: foraging,
		SearchEfficiency:   search,
		ForagingSeries:     append([]float64(nil), s.collector.Foraging()...),
		SearchSeries:       append([]float64(nil), s.collector.Search()...),
		Ticks:              s.tick,
		FullHiveBouts:      s.fullBouts,
		TotalBouts:         s.colony.TotalBouts,
		TotalNectar:        s.totalNectar,
		TimedOut:           s.timedOut,
	}

	if s.failure != nil {
		res.Failed = true
		res.Err = s.failure
		return res
	}

	fitness, err := telemetry.Fitness(s.cfg.Fitness.Reduction, s.collector, telemetry.RunTotals{
		Ticks:       s.tick,
		TotalNectar: s.totalNectar,
	})
	if err != nil {
		res.Failed = true
		res.Err = err
		return res
	}
	res.Fitness = fitness
	return res
}

// Record converts the result to its persisted form.
func (r Result) Record(cfg *config.Config) telemetry.RunRecord {
	rec := telemetry.RunRecord{
		RunID:              r.RunID,
		Seed:               r.Seed,
		Arrangement:        cfg.Run.Arrangement,
		Agents:             cfg.Run.AgentCount,
		Flowers:            cfg.Run.FlowerCount,
		SpecialFlowers:     cfg.Run.SpecialFlowerCount,
		Ticks:              r.Ticks,
		FullHiveBouts:      r.FullHiveBouts,
		TotalBouts:         r.TotalBouts,
		TotalNectar:        r.TotalNectar,
		ForagingEfficiency: r.ForagingEfficiency,
		SearchEfficiency:   r.SearchEfficiency,
		Reduction:          cfg.Fitness.Reduction,
		Fitness:            r.Fitness,
		TimedOut:           r.TimedOut,
		Failed:             r.Failed,
		ForagingSeries:     r.ForagingSeries,
		SearchSeries:       r.SearchSeries,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}
