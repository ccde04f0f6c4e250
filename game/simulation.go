// Package game wires the foraging systems into a lock-step simulation and
// its evaluation harness.
package game

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/neural"
	"github.com/pthm-cable/forage/systems"
	"github.com/pthm-cable/forage/telemetry"
)

// Options configures a Simulation beyond its config.
type Options struct {
	RunID     string
	Logger    *slog.Logger // defaults to slog.Default()
	Observers []Observer
	Flags     *Flags // defaults to NewFlags(cfg)
	Perf      *telemetry.PerfCollector
}

// Simulation owns one run: the agent world, pheromone field, flower
// registry, colony and weather. Step must be driven from a single
// goroutine; the control methods are safe from any goroutine.
type Simulation struct {
	cfg       *config.Config
	policy    neural.Policy
	runID     string
	logger    *slog.Logger
	observers []Observer
	perf      *telemetry.PerfCollector
	flags     *Flags

	world *ecs.World

	agentMapper *ecs.Map5[
		components.Position,
		components.Motion,
		components.Forager,
		components.Memory,
		components.Tally,
	]
	agentFilter *ecs.Filter5[
		components.Position,
		components.Motion,
		components.Forager,
		components.Memory,
		components.Tally,
	]

	rng       *rand.Rand
	field     *systems.PheromoneField
	deposits  systems.PendingDeposits
	obstacles *systems.ObstacleSet
	colony    *systems.Colony
	weather   *systems.Weather
	forager   *systems.ForagerSystem
	collector *telemetry.Collector

	dying *systems.FlowerProcess
	spawn *systems.FlowerProcess
	bgCtx context.Context // set while Run is active

	mu      sync.Mutex // guards pending
	pending []command

	// Read by the control surface from any goroutine. registry is swapped
	// by Reinitialize; the two control parameters never change after New.
	registry   atomic.Pointer[systems.FlowerRegistry]
	decayBits  atomic.Uint64
	pickRadius float64
	decayStep  float64

	// State
	tick        int
	weatherNow  systems.WeatherState
	fullBouts   int
	totalNectar float64
	obstaclesOn bool
	done        bool
	timedOut    bool
	failure     error
}

// New validates cfg and builds a ready-to-step simulation.
func New(cfg *config.Config, policy neural.Policy, opts Options) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateRun(cfg.Run); err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, errors.New("game: nil policy")
	}

	s := &Simulation{
		cfg:       cfg.Clone(),
		policy:    policy,
		runID:     opts.RunID,
		logger:    opts.Logger,
		observers: opts.Observers,
		perf:      opts.Perf,
		flags:     opts.Flags,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.flags == nil {
		s.flags = NewFlags(cfg)
	}
	s.decayBits.Store(math.Float64bits(cfg.Pheromone.EvaporationRate))
	s.pickRadius = cfg.Flowers.PickRadius
	s.decayStep = cfg.Pheromone.AdjustStep

	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

// build creates the world for s.cfg.Run from scratch.
func (s *Simulation) build() error {
	run := s.cfg.Run
	s.rng = rand.New(rand.NewSource(run.Seed))

	s.world = ecs.NewWorld()
	s.agentMapper = ecs.NewMap5[
		components.Position,
		components.Motion,
		components.Forager,
		components.Memory,
		components.Tally,
	](s.world)
	s.agentFilter = ecs.NewFilter5[
		components.Position,
		components.Motion,
		components.Forager,
		components.Memory,
		components.Tally,
	](s.world)

	s.field = systems.NewPheromoneField(s.cfg.World.Width, s.cfg.World.Height, s.cfg.Pheromone.CellSize)
	s.deposits = systems.PendingDeposits{}
	s.colony = systems.NewColony(s.cfg.World, s.cfg.Colony, run.Arrangement)
	geom := s.colony.Geometry(s.cfg.World)

	registry := systems.NewFlowerRegistry(geom, s.cfg.Flowers, s.rng.Int63())
	if err := registry.Populate(run.Arrangement, run.FlowerCount, run.SpecialFlowerCount, geom); err != nil {
		return err
	}
	s.registry.Store(registry)

	s.obstacles = &systems.ObstacleSet{}
	s.obstaclesOn = false
	s.syncObstacles()

	s.weather = systems.NewWeather(s.cfg.Weather)
	s.forager = systems.NewForagerSystem(s.cfg, s.policy, s.rng)
	if s.collector == nil {
		s.collector = telemetry.NewCollector()
	} else {
		s.collector.Reset()
	}

	for range run.AgentCount {
		p := systems.RandomPoint(s.rng, s.cfg.World.Width, s.cfg.World.Height)
		s.spawnAgent(p.X, p.Y)
	}

	s.dying = systems.NewDyingProcess(registry, func() bool { return s.flags.Get(FlagDyingFlowers) },
		s.cfg.Background, s.rng.Int63())
	s.spawn = systems.NewSpawnProcess(registry, func() bool { return s.flags.Get(FlagSpawnFlowers) },
		s.cfg.Background, s.rng.Int63())

	s.tick = 0
	s.weatherNow = systems.WeatherClear
	s.fullBouts = 0
	s.totalNectar = 0
	s.done = false
	s.timedOut = false
	s.failure = nil
	return nil
}

// spawnAgent creates a fresh forager at (x, y).
func (s *Simulation) spawnAgent(x, y float64) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	motion, forager := systems.NewAgentState(s.rng, s.cfg.Agent)
	memory := components.NewMemory()
	tally := components.Tally{}
	return s.agentMapper.NewEntity(&pos, &motion, &forager, &memory, &tally)
}

// syncObstacles generates obstacles when the flag turns on and clears
// them when it turns off.
func (s *Simulation) syncObstacles() {
	on := s.flags.Get(FlagObstacles)
	switch {
	case on && !s.obstaclesOn:
		n := s.obstacles.Regenerate(s.rng, s.cfg.World, s.cfg.Obstacles)
		s.logger.Debug("obstacles generated", "count", n)
	case !on && s.obstaclesOn:
		s.obstacles.Clear()
	}
	s.obstaclesOn = on
}

// syncBackground starts a background process whose flag is on. A process
// whose flag turns off exits on its own.
func (s *Simulation) syncBackground() {
	if s.bgCtx == nil {
		return
	}
	for _, p := range []*systems.FlowerProcess{s.dying, s.spawn} {
		flag := FlagDyingFlowers
		if p == s.spawn {
			flag = FlagSpawnFlowers
		}
		if s.flags.Get(flag) && !p.Running() {
			if p.Start(s.bgCtx) {
				s.logger.Debug("background process started", "process", p.Name())
			}
		}
	}
}

func (s *Simulation) stopBackground() {
	s.dying.Stop()
	s.spawn.Stop()
}

func (s *Simulation) startPhase(phase string) {
	if s.perf != nil {
		s.perf.StartPhase(phase)
	}
}

// Step advances the simulation by one tick. It reports done once the run
// has terminated; err is non-nil only when the policy failed.
func (s *Simulation) Step() (done bool, err error) {
	if s.done {
		// A queued Reinitialize restarts a finished run
		if !s.hasPending() {
			return true, s.failure
		}
		if err := s.applyCommands(); err != nil {
			return s.fail(err)
		}
		if s.done {
			return true, s.failure
		}
	}
	if s.perf != nil {
		s.perf.StartTick()
		defer s.perf.EndTick()
	}

	// Phase 1: control surface
	s.startPhase(telemetry.PhaseControl)
	if err := s.applyCommands(); err != nil {
		return s.fail(err)
	}
	s.syncObstacles()
	s.syncBackground()

	now := float64(s.tick) * s.cfg.Run.DT
	s.weatherNow = s.weather.Update(s.flags.Get(FlagRain), s.flags.Get(FlagWeatherOscillation), now)

	// Phase 2: committed view of the world for this tick
	s.startPhase(telemetry.PhaseSnapshot)
	env := systems.Env{
		Field:    s.field,
		Deposits: &s.deposits,
		Colony:   s.colony,
		Weather:  s.weatherNow,
		Now:      now,
		Tick:     s.tick,
	}
	if s.obstacles.Len() > 0 {
		env.Obstacles = s.obstacles
	}
	env.SetFlowers(s.registry.Load().Snapshot())

	// Phase 3: agents
	s.startPhase(telemetry.PhaseAgents)
	query := s.agentFilter.Query()
	for query.Next() {
		pos, motion, forager, memory, tally := query.Get()
		agent := systems.Agent{Pos: pos, Motion: motion, Forager: forager, Memory: memory, Tally: tally}
		if err := s.forager.Step(agent, &env); err != nil {
			query.Close()
			return s.fail(err)
		}
	}

	// Phase 4: field commit then evaporation
	s.startPhase(telemetry.PhaseField)
	s.deposits.Commit(s.field)
	s.field.Decay(systems.DecayRate(s.DecayRate(), s.weatherNow, s.cfg.Pheromone))
	s.tick++

	// Phase 5: metrics
	s.startPhase(telemetry.PhaseMetrics)
	search := s.aggregate()
	s.collector.Record(s.fullBouts, s.totalNectar, search)

	// Phase 6: world changes triggered by a new full-hive bout
	s.startPhase(telemetry.PhaseBoutEvents)
	s.boutEvents()

	// Phase 7: termination
	run := s.cfg.Run
	switch {
	case s.fullBouts >= run.TargetFullHiveBouts:
		s.done = true
	case run.MaxTicks > 0 && s.tick >= run.MaxTicks:
		s.done = true
		s.timedOut = true
	}

	// Phase 8: observers
	s.startPhase(telemetry.PhaseObservers)
	if len(s.observers) > 0 {
		snap := s.Snapshot()
		for _, o := range s.observers {
			o.ObserveTick(snap)
		}
	}

	return s.done, nil
}

// aggregate refreshes the full-hive bout count and nectar total and returns
// each agent's search efficiency.
func (s *Simulation) aggregate() []float64 {
	search := make([]float64, 0, s.cfg.Run.AgentCount)
	minBouts := -1
	var nectar float64

	query := s.agentFilter.Query()
	for query.Next() {
		_, _, forager, _, tally := query.Get()
		if minBouts < 0 || forager.Bouts < minBouts {
			minBouts = forager.Bouts
		}
		nectar += tally.Nectar
		search = append(search, tally.SearchEfficiency())
	}

	s.fullBouts = max(minBouts, 0)
	s.totalNectar = nectar
	return search
}

func (s *Simulation) boutEvents() {
	if s.fullBouts <= s.colony.BoutsAtLastObstacleRefresh {
		return
	}
	if s.flags.Get(FlagRandomObstaclesOnBout) {
		n := s.obstacles.Regenerate(s.rng, s.cfg.World, s.cfg.Obstacles)
		s.logger.Debug("obstacles regenerated", "full_hive_bouts", s.fullBouts, "count", n)
	}
	if s.flags.Get(FlagDespawnOnBout) {
		n := s.registry.Load().Turnover(s.cfg.Flowers.TurnoverFraction)
		s.logger.Debug("flower turnover", "full_hive_bouts", s.fullBouts, "replaced", n)
	}
	s.colony.MarkObstacleRefresh(s.fullBouts)
}

func (s *Simulation) fail(err error) (bool, error) {
	s.done = true
	s.failure = err
	s.logger.Error("run failed", "tick", s.tick, "error", err)
	return true, err
}

// Run steps until termination or ctx cancellation. Background flower
// processes run only for the duration of Run.
func (s *Simulation) Run(ctx context.Context) Result {
	s.bgCtx = ctx
	defer func() {
		s.stopBackground()
		s.bgCtx = nil
	}()

	run := s.cfg.Run
	s.logger.Info("run started",
		"run_id", s.runID,
		"seed", run.Seed,
		"arrangement", run.Arrangement,
		"agents", run.AgentCount,
		"flowers", run.FlowerCount,
		"special_flowers", run.SpecialFlowerCount,
		"target_full_hive_bouts", run.TargetFullHiveBouts,
	)

	for {
		if err := ctx.Err(); err != nil {
			res := s.Result()
			res.Cancelled = true
			res.Err = err
			s.logger.Warn("run cancelled", "tick", s.tick, "error", err)
			return res
		}
		if done, _ := s.Step(); done {
			break
		}
	}

	res := s.Result()
	s.logger.Info("run finished", "result", res.Record(s.cfg))
	return res
}

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int { return s.tick }

// Done reports whether the run has terminated.
func (s *Simulation) Done() bool { return s.done }

// FullHiveBouts returns the bout count every agent has reached.
func (s *Simulation) FullHiveBouts() int { return s.fullBouts }

// Colony returns the hive.
func (s *Simulation) Colony() *systems.Colony { return s.colony }

// Field returns the pheromone field.
func (s *Simulation) Field() *systems.PheromoneField { return s.field }

// Registry returns the flower registry.
func (s *Simulation) Registry() *systems.FlowerRegistry { return s.registry.Load() }

// Obstacles returns the current obstacle set.
func (s *Simulation) Obstacles() *systems.ObstacleSet { return s.obstacles }

// Collector returns the efficiency series.
func (s *Simulation) Collector() *telemetry.Collector { return s.collector }

// Config returns the effective configuration, including any reinitialized run.
func (s *Simulation) Config() *config.Config { return s.cfg }

// AgentCount returns the number of live foragers.
func (s *Simulation) AgentCount() int {
	n := 0
	query := s.agentFilter.Query()
	for query.Next() {
		n++
	}
	return n
}
