// Package config provides configuration loading and validation for the foraging simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// ValidationError describes a single rejected configuration value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Run        RunConfig        `yaml:"run"`
	Colony     ColonyConfig     `yaml:"colony"`
	Pheromone  PheromoneConfig  `yaml:"pheromone"`
	Agent      AgentConfig      `yaml:"agent"`
	Weather    WeatherConfig    `yaml:"weather"`
	Flowers    FlowersConfig    `yaml:"flowers"`
	Obstacles  ObstaclesConfig  `yaml:"obstacles"`
	Background BackgroundConfig `yaml:"background"`
	Fitness    FitnessConfig    `yaml:"fitness"`
	Neural     NeuralConfig     `yaml:"neural"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the world bounds in world units.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// RunConfig is the immutable per-run configuration of one evaluation.
type RunConfig struct {
	FlowerCount         int     `yaml:"flower_count"`
	SpecialFlowerCount  int     `yaml:"special_flower_count"`
	AgentCount          int     `yaml:"agent_count"`
	Arrangement         string  `yaml:"arrangement"`
	Seed                int64   `yaml:"seed"`
	TargetFullHiveBouts int     `yaml:"target_full_hive_bouts"`
	MaxTicks            int     `yaml:"max_ticks"` // 0 = unlimited
	DT                  float64 `yaml:"dt"`        // simulated seconds per tick
}

// ColonyConfig holds hive placement and arrival parameters.
type ColonyConfig struct {
	X             float64 `yaml:"x"`
	Y             float64 `yaml:"y"`
	BottomMargin  float64 `yaml:"bottom_margin"` // distance from the bottom edge for v2 arrangements
	ArrivalRadius float64 `yaml:"arrival_radius"`
	DwellSeconds  float64 `yaml:"dwell_seconds"`
}

// PheromoneConfig holds trail field parameters.
type PheromoneConfig struct {
	CellSize        float64 `yaml:"cell_size"`
	Deposit         float64 `yaml:"deposit"`
	EvaporationRate float64 `yaml:"evaporation_rate"`
	RainMultiplier  float64 `yaml:"rain_multiplier"`
	RainCap         float64 `yaml:"rain_cap"`
	AdjustStep      float64 `yaml:"adjust_step"`
}

// AgentConfig holds forager movement and energy parameters.
type AgentConfig struct {
	InitialEnergy    float64 `yaml:"initial_energy"`
	InitialSpeed     float64 `yaml:"initial_speed"`
	MinSpeed         float64 `yaml:"min_speed"`
	MaxSpeed         float64 `yaml:"max_speed"`
	ControlMinSpeed  float64 `yaml:"control_min_speed"` // floor for bulk speed decrease
	ControlMaxSpeed  float64 `yaml:"control_max_speed"` // cap for bulk speed increase
	ControlSpeedStep float64 `yaml:"control_speed_step"`
	FOVClear         float64 `yaml:"fov_clear"`
	FOVRainy         float64 `yaml:"fov_rainy"`
	MoveCost         float64 `yaml:"move_cost"`
	RainCost         float64 `yaml:"rain_cost"`
	VisitRadius      float64 `yaml:"visit_radius"`
	BestRouteBoost   float64 `yaml:"best_route_boost"`
}

// WeatherConfig holds weather toggles and oscillation timing.
type WeatherConfig struct {
	Oscillation   bool    `yaml:"oscillation"`
	Rain          bool    `yaml:"rain"`
	PeriodSeconds float64 `yaml:"period_seconds"`
	ClearSeconds  float64 `yaml:"clear_seconds"`
}

// FlowersConfig holds flower lifecycle parameters.
type FlowersConfig struct {
	NectarMin        int     `yaml:"nectar_min"`
	NectarMax        int     `yaml:"nectar_max"`
	TurnoverFraction float64 `yaml:"turnover_fraction"`
	PickRadius       float64 `yaml:"pick_radius"`
	DespawnOnBout    bool    `yaml:"despawn_on_bout"`
}

// ObstaclesConfig holds obstacle generation parameters.
type ObstaclesConfig struct {
	Enabled      bool    `yaml:"enabled"`
	RandomOnBout bool    `yaml:"random_on_bout"`
	MinCount     int     `yaml:"min_count"`
	MaxCount     int     `yaml:"max_count"`
	MinSize      float64 `yaml:"min_size"`
	MaxSize      float64 `yaml:"max_size"`
	Margin       float64 `yaml:"margin"`
}

// BackgroundConfig holds the wall-clock flower processes.
type BackgroundConfig struct {
	DyingFlowers     bool          `yaml:"dying_flowers"`
	SpawnFlowers     bool          `yaml:"spawn_flowers"`
	DyingMinInterval time.Duration `yaml:"dying_min_interval"`
	DyingMaxInterval time.Duration `yaml:"dying_max_interval"`
	SpawnMinInterval time.Duration `yaml:"spawn_min_interval"`
	SpawnMaxInterval time.Duration `yaml:"spawn_max_interval"`
}

// Fitness reductions.
const (
	ReductionFinalForagingEfficiency = "final_foraging_efficiency"
	ReductionNectarPerTick           = "nectar_per_tick"
	ReductionMeanSearchEfficiency    = "mean_search_efficiency"
)

// FitnessConfig selects how a run is reduced to a scalar.
type FitnessConfig struct {
	Reduction string `yaml:"reduction"`
}

// NeuralConfig holds built-in policy parameters for the CLIs.
type NeuralConfig struct {
	Policy         string  `yaml:"policy"` // ffnn, neat, constant
	Hidden         int     `yaml:"hidden"`
	ConnectionProb float64 `yaml:"connection_prob"`
}

// TelemetryConfig holds output parameters.
type TelemetryConfig struct {
	TickCSVEvery int `yaml:"tick_csv_every"` // write every Nth tick to ticks.csv (0 disables)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	GridCols int // World.Width / Pheromone.CellSize
	GridRows int // World.Height / Pheromone.CellSize
}

// Default returns the embedded defaults. Panics if they fail to parse.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// Clone returns a deep copy. Config holds no reference types, so a value copy suffices.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// WithRun returns a copy with the run section replaced.
func (c *Config) WithRun(run RunConfig) *Config {
	cp := c.Clone()
	cp.Run = run
	return cp
}

func (c *Config) computeDerived() {
	if c.Pheromone.CellSize > 0 {
		c.Derived.GridCols = int(c.World.Width / c.Pheromone.CellSize)
		c.Derived.GridRows = int(c.World.Height / c.Pheromone.CellSize)
	}
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	switch {
	case c.World.Width <= 0:
		return &ValidationError{"world.width", "must be positive"}
	case c.World.Height <= 0:
		return &ValidationError{"world.height", "must be positive"}
	case c.Pheromone.CellSize <= 0:
		return &ValidationError{"pheromone.cell_size", "must be positive"}
	case c.Pheromone.CellSize > c.World.Width || c.Pheromone.CellSize > c.World.Height:
		return &ValidationError{"pheromone.cell_size", "larger than the world"}
	case c.Pheromone.EvaporationRate < 0 || c.Pheromone.EvaporationRate > 1:
		return &ValidationError{"pheromone.evaporation_rate", "must be within [0,1]"}
	case c.Agent.MinSpeed <= 0 || c.Agent.MaxSpeed < c.Agent.MinSpeed:
		return &ValidationError{"agent.min_speed", "speed bounds must satisfy 0 < min <= max"}
	case c.Flowers.NectarMin < 0 || c.Flowers.NectarMax < c.Flowers.NectarMin:
		return &ValidationError{"flowers.nectar_min", "nectar bounds must satisfy 0 <= min <= max"}
	case c.Obstacles.MinCount < 0 || c.Obstacles.MaxCount < c.Obstacles.MinCount:
		return &ValidationError{"obstacles.min_count", "count bounds must satisfy 0 <= min <= max"}
	case c.Weather.PeriodSeconds <= 0:
		return &ValidationError{"weather.period_seconds", "must be positive"}
	}

	switch c.Fitness.Reduction {
	case ReductionFinalForagingEfficiency, ReductionNectarPerTick, ReductionMeanSearchEfficiency:
	default:
		return &ValidationError{"fitness.reduction", fmt.Sprintf("unknown reduction %q", c.Fitness.Reduction)}
	}

	return c.Run.Validate()
}

// Validate checks the per-run counts.
func (r RunConfig) Validate() error {
	switch {
	case r.AgentCount <= 0:
		return &ValidationError{"run.agent_count", "must be positive"}
	case r.FlowerCount < 0:
		return &ValidationError{"run.flower_count", "must not be negative"}
	case r.SpecialFlowerCount < 0:
		return &ValidationError{"run.special_flower_count", "must not be negative"}
	case r.Arrangement == "":
		return &ValidationError{"run.arrangement", "must not be empty"}
	case r.TargetFullHiveBouts <= 0:
		return &ValidationError{"run.target_full_hive_bouts", "must be positive"}
	case r.MaxTicks < 0:
		return &ValidationError{"run.max_ticks", "must not be negative"}
	case r.DT <= 0:
		return &ValidationError{"run.dt", "must be positive"}
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
