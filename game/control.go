package game

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/systems"
)

// Flag is a runtime toggle of the control surface.
type Flag int

const (
	FlagWeatherOscillation Flag = iota
	FlagRain
	FlagDyingFlowers
	FlagSpawnFlowers
	FlagDespawnOnBout
	FlagObstacles
	FlagRandomObstaclesOnBout
	numFlags
)

var flagNames = [numFlags]string{
	"weather_oscillation",
	"rain",
	"dying_flowers",
	"spawn_flowers",
	"despawn_on_bout",
	"obstacles",
	"random_obstacles_on_bout",
}

func (f Flag) String() string {
	if f < 0 || f >= numFlags {
		return fmt.Sprintf("flag(%d)", int(f))
	}
	return flagNames[f]
}

// ParseFlag resolves a flag by its snake_case name.
func ParseFlag(name string) (Flag, error) {
	for i, n := range flagNames {
		if n == name {
			return Flag(i), nil
		}
	}
	return 0, fmt.Errorf("unknown flag %q", name)
}

// Flags holds the runtime toggles. Safe for concurrent use.
type Flags struct {
	bits [numFlags]atomic.Bool
}

// NewFlags seeds the toggles from configuration.
func NewFlags(cfg *config.Config) *Flags {
	f := &Flags{}
	f.Set(FlagWeatherOscillation, cfg.Weather.Oscillation)
	f.Set(FlagRain, cfg.Weather.Rain)
	f.Set(FlagDyingFlowers, cfg.Background.DyingFlowers)
	f.Set(FlagSpawnFlowers, cfg.Background.SpawnFlowers)
	f.Set(FlagDespawnOnBout, cfg.Flowers.DespawnOnBout)
	f.Set(FlagObstacles, cfg.Obstacles.Enabled)
	f.Set(FlagRandomObstaclesOnBout, cfg.Obstacles.RandomOnBout)
	return f
}

// Get reports whether flag is on.
func (f *Flags) Get(flag Flag) bool {
	return f.bits[flag].Load()
}

// Set turns flag on or off.
func (f *Flags) Set(flag Flag, on bool) {
	f.bits[flag].Store(on)
}

// Toggle flips flag and returns its new value.
func (f *Flags) Toggle(flag Flag) bool {
	for {
		old := f.bits[flag].Load()
		if f.bits[flag].CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// command mutates agent state; commands run on the tick goroutine at the
// start of the next step.
type command func(s *Simulation) error

func (s *Simulation) enqueue(c command) {
	s.mu.Lock()
	s.pending = append(s.pending, c)
	s.mu.Unlock()
}

func (s *Simulation) hasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

func (s *Simulation) applyCommands() error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, c := range pending {
		if err := c(s); err != nil {
			return err
		}
	}
	return nil
}

// The methods below form the control surface. They may be called from any
// goroutine while Run is in progress. Registry operations act on the
// registry current at the time of the call; a Reinitialize applied by the
// tick goroutine swaps it atomically.

// Flags returns the live toggles.
func (s *Simulation) Flags() *Flags {
	return s.flags
}

// Toggle flips a runtime flag and returns its new value.
func (s *Simulation) Toggle(flag Flag) bool {
	on := s.flags.Toggle(flag)
	s.logger.Debug("flag toggled", "flag", flag.String(), "on", on)
	return on
}

// SetFlag turns a runtime flag on or off.
func (s *Simulation) SetFlag(flag Flag, on bool) {
	s.flags.Set(flag, on)
}

// AddFlower spawns one ordinary flower at a random location.
func (s *Simulation) AddFlower() systems.Flower {
	return s.registry.Load().SpawnOne()
}

// AddSpecialFlower spawns one special flower at a random location.
func (s *Simulation) AddSpecialFlower() systems.Flower {
	return s.registry.Load().AddSpecial()
}

// RepositionFlowers moves every flower to a fresh random location,
// keeping identities.
func (s *Simulation) RepositionFlowers() {
	s.registry.Load().RepositionAll()
}

// DeleteFlowerNear removes the flower nearest (x, y) within the pick radius.
func (s *Simulation) DeleteFlowerNear(x, y float64) (systems.Flower, bool) {
	return s.registry.Load().DeleteNearest(x, y, s.pickRadius)
}

// AddAgent queues a new forager at the colony.
func (s *Simulation) AddAgent() {
	s.enqueue(func(s *Simulation) error {
		s.spawnAgent(s.colony.X, s.colony.Y)
		return nil
	})
}

// IncreaseSpeed queues a speed increase for every agent.
func (s *Simulation) IncreaseSpeed() {
	s.enqueue(func(s *Simulation) error {
		s.adjustSpeeds(s.cfg.Agent.ControlSpeedStep)
		return nil
	})
}

// DecreaseSpeed queues a speed decrease for every agent.
func (s *Simulation) DecreaseSpeed() {
	s.enqueue(func(s *Simulation) error {
		s.adjustSpeeds(-s.cfg.Agent.ControlSpeedStep)
		return nil
	})
}

func (s *Simulation) adjustSpeeds(delta float64) {
	lo, hi := s.cfg.Agent.ControlMinSpeed, s.cfg.Agent.ControlMaxSpeed
	query := s.agentFilter.Query()
	for query.Next() {
		_, motion, _, _, _ := query.Get()
		motion.Speed = math.Min(math.Max(motion.Speed+delta, lo), hi)
	}
}

// DecayRate returns the base evaporation rate before weather scaling.
func (s *Simulation) DecayRate() float64 {
	return math.Float64frombits(s.decayBits.Load())
}

// AdjustDecay shifts the base evaporation rate by delta, clamped to [0,1],
// and returns the new rate.
func (s *Simulation) AdjustDecay(delta float64) float64 {
	for {
		oldBits := s.decayBits.Load()
		rate := math.Min(math.Max(math.Float64frombits(oldBits)+delta, 0), 1)
		if s.decayBits.CompareAndSwap(oldBits, math.Float64bits(rate)) {
			return rate
		}
	}
}

// RaiseDecay raises the evaporation rate by one adjust step.
func (s *Simulation) RaiseDecay() float64 {
	return s.AdjustDecay(s.decayStep)
}

// LowerDecay lowers the evaporation rate by one adjust step.
func (s *Simulation) LowerDecay() float64 {
	return s.AdjustDecay(-s.decayStep)
}

// Reinitialize validates run and queues a restart with it. The restart
// builds a fresh world, field, registry, colony and agent population.
func (s *Simulation) Reinitialize(run config.RunConfig) error {
	if err := validateRun(run); err != nil {
		return err
	}
	s.enqueue(func(s *Simulation) error {
		s.logger.Info("reinitializing", "arrangement", run.Arrangement, "seed", run.Seed,
			"agents", run.AgentCount, "flowers", run.FlowerCount)
		s.stopBackground()
		s.cfg = s.cfg.WithRun(run)
		return s.build()
	})
	return nil
}

func validateRun(run config.RunConfig) error {
	if err := run.Validate(); err != nil {
		return err
	}
	if _, ok := systems.Arrangements[run.Arrangement]; !ok {
		return &config.ValidationError{
			Field:  "run.arrangement",
			Reason: fmt.Sprintf("unknown arrangement %q", run.Arrangement),
		}
	}
	return nil
}
