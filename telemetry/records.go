package telemetry

import "log/slog"

// TickRecord is one row of ticks.csv.
type TickRecord struct {
	Tick               int     `csv:"tick"`
	SimTimeSec         float64 `csv:"sim_time"`
	Weather            string  `csv:"weather"`
	Bees               int     `csv:"bees"`
	Flowers            int     `csv:"flowers"`
	SpecialFlowers     int     `csv:"special_flowers"`
	Obstacles          int     `csv:"obstacles"`
	TotalBouts         int     `csv:"total_bouts"`
	FullHiveBouts      int     `csv:"full_hive_bouts"`
	AvgSpeed           float64 `csv:"avg_speed"`
	AvgEnergy          float64 `csv:"avg_energy"`
	Returning          int     `csv:"returning"`
	AtHive             int     `csv:"at_hive"`
	DecayRate          float64 `csv:"decay_rate"`
	PheromoneTotal     float64 `csv:"pheromone_total"`
	ForagingEfficiency float64 `csv:"foraging_efficiency"`
	SearchEfficiency   float64 `csv:"search_efficiency"`
}

// RunRecord is one row of runs.csv and the unit persisted by storage.
type RunRecord struct {
	RunID              string  `csv:"run_id" json:"run_id"`
	Seed               int64   `csv:"seed" json:"seed"`
	Arrangement        string  `csv:"arrangement" json:"arrangement"`
	Agents             int     `csv:"agents" json:"agents"`
	Flowers            int     `csv:"flowers" json:"flowers"`
	SpecialFlowers     int     `csv:"special_flowers" json:"special_flowers"`
	Ticks              int     `csv:"ticks" json:"ticks"`
	FullHiveBouts      int     `csv:"full_hive_bouts" json:"full_hive_bouts"`
	TotalBouts         int     `csv:"total_bouts" json:"total_bouts"`
	TotalNectar        float64 `csv:"total_nectar" json:"total_nectar"`
	ForagingEfficiency float64 `csv:"foraging_efficiency" json:"foraging_efficiency"`
	SearchEfficiency   float64 `csv:"search_efficiency" json:"search_efficiency"`
	Reduction          string  `csv:"reduction" json:"reduction"`
	Fitness            float64 `csv:"fitness" json:"fitness"`
	TimedOut           bool    `csv:"timed_out" json:"timed_out"`
	Failed             bool    `csv:"failed" json:"failed"`
	Error              string  `csv:"error" json:"error,omitempty"`

	// Full series are persisted but too wide for CSV
	ForagingSeries []float64 `csv:"-" json:"foraging_series,omitempty"`
	SearchSeries   []float64 `csv:"-" json:"search_series,omitempty"`
}

// LogValue implements slog.LogValuer for structured logging.
func (r RunRecord) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("run_id", r.RunID),
		slog.Int64("seed", r.Seed),
		slog.String("arrangement", r.Arrangement),
		slog.Int("ticks", r.Ticks),
		slog.Int("full_hive_bouts", r.FullHiveBouts),
		slog.Int("total_bouts", r.TotalBouts),
		slog.Float64("total_nectar", r.TotalNectar),
		slog.Float64("foraging_efficiency", r.ForagingEfficiency),
		slog.Float64("search_efficiency", r.SearchEfficiency),
		slog.Float64("fitness", r.Fitness),
		slog.Bool("timed_out", r.TimedOut),
	}
	if r.Failed {
		attrs = append(attrs, slog.Bool("failed", true), slog.String("error", r.Error))
	}
	return slog.GroupValue(attrs...)
}
