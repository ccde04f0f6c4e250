package game

import (
	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/systems"
	"github.com/pthm-cable/forage/telemetry"
)

// AgentView is a read-only copy of one forager.
type AgentView struct {
	X, Y    float64
	Heading float64
	Speed   float64
	FOV     float64
	Energy  float64
	State   components.State
	Bouts   int
	Visited int
	Flown   float64 // lifetime distance
}

// Counters are the aggregate readouts of one tick.
type Counters struct {
	TotalBouts         int
	FullHiveBouts      int
	Bees               int
	Flowers            int
	SpecialFlowers     int
	Returning          int
	AtHive             int
	AvgSpeed           float64
	AvgEnergy          float64
	Weather            string
	DecayRate          float64 // base rate before weather scaling
	PheromoneTotal     float64
	ForagingEfficiency float64
	SearchEfficiency   float64
}

// Snapshot is a consistent copy of the world after a tick, detached from
// simulation state so a renderer or recorder may keep it.
type Snapshot struct {
	Tick      int
	SimTime   float64
	Agents    []AgentView
	Flowers   systems.FlowerSet
	Obstacles []systems.Obstacle
	Colony    systems.Colony

	// Pheromone grid, row-major
	Pheromone []float64
	GridCols  int
	GridRows  int
	CellSize  float64

	Counters Counters
}

// Observer receives a snapshot after every tick.
type Observer interface {
	ObserveTick(snap *Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(snap *Snapshot)

// ObserveTick calls f(snap).
func (f ObserverFunc) ObserveTick(snap *Snapshot) { f(snap) }

// Snapshot copies the current state. Call it from the goroutine that
// drives Step.
func (s *Simulation) Snapshot() *Snapshot {
	cols, rows := s.field.GridSize()
	snap := &Snapshot{
		Tick:      s.tick,
		SimTime:   float64(s.tick) * s.cfg.Run.DT,
		Flowers:   s.registry.Load().Snapshot(),
		Obstacles: s.obstacles.All(),
		Colony:    *s.colony,
		Pheromone: s.field.CopyGrid(),
		GridCols:  cols,
		GridRows:  rows,
		CellSize:  s.field.CellSize(),
	}

	c := &snap.Counters
	query := s.agentFilter.Query()
	for query.Next() {
		pos, motion, forager, memory, tally := query.Get()
		snap.Agents = append(snap.Agents, AgentView{
			X:       pos.X,
			Y:       pos.Y,
			Heading: motion.Heading,
			Speed:   motion.Speed,
			FOV:     motion.FOV,
			Energy:  forager.Energy,
			State:   forager.State,
			Bouts:   forager.Bouts,
			Visited: memory.Len(),
			Flown:   tally.Distance,
		})
		c.AvgSpeed += motion.Speed
		c.AvgEnergy += forager.Energy
		switch forager.State {
		case components.StateReturning:
			c.Returning++
		case components.StateAtHive:
			c.AtHive++
		}
	}

	c.Bees = len(snap.Agents)
	if c.Bees > 0 {
		c.AvgSpeed /= float64(c.Bees)
		c.AvgEnergy /= float64(c.Bees)
	}
	c.TotalBouts = s.colony.TotalBouts
	c.FullHiveBouts = s.fullBouts
	c.Flowers = len(snap.Flowers.Ordinary)
	c.SpecialFlowers = len(snap.Flowers.Special)
	c.Weather = s.weatherNow.String()
	c.DecayRate = s.DecayRate()
	c.PheromoneTotal = s.field.Total()
	c.ForagingEfficiency, c.SearchEfficiency = s.collector.Last()
	return snap
}

// TickRecord flattens the snapshot into a ticks.csv row.
func (snap *Snapshot) TickRecord() telemetry.TickRecord {
	c := snap.Counters
	return telemetry.TickRecord{
		Tick:               snap.Tick,
		SimTimeSec:         snap.SimTime,
		Weather:            c.Weather,
		Bees:               c.Bees,
		Flowers:            c.Flowers,
		SpecialFlowers:     c.SpecialFlowers,
		Obstacles:          len(snap.Obstacles),
		TotalBouts:         c.TotalBouts,
		FullHiveBouts:      c.FullHiveBouts,
		AvgSpeed:           c.AvgSpeed,
		AvgEnergy:          c.AvgEnergy,
		Returning:          c.Returning,
		AtHive:             c.AtHive,
		DecayRate:          c.DecayRate,
		PheromoneTotal:     c.PheromoneTotal,
		ForagingEfficiency: c.ForagingEfficiency,
		SearchEfficiency:   c.SearchEfficiency,
	}
}

// WorldState converts the snapshot into its persisted form.
func (snap *Snapshot) WorldState(cfg *config.Config, runID string) *telemetry.Snapshot {
	w := &telemetry.Snapshot{
		Version:       telemetry.SnapshotVersion,
		RunID:         runID,
		Seed:          cfg.Run.Seed,
		Arrangement:   cfg.Run.Arrangement,
		WorldWidth:    cfg.World.Width,
		WorldHeight:   cfg.World.Height,
		Tick:          snap.Tick,
		SimTime:       snap.SimTime,
		Weather:       snap.Counters.Weather,
		FullHiveBouts: snap.Counters.FullHiveBouts,
		TotalBouts:    snap.Counters.TotalBouts,
		ColonyX:       snap.Colony.X,
		ColonyY:       snap.Colony.Y,
		Agents:        make([]telemetry.AgentState, 0, len(snap.Agents)),
		Flowers:       make([]telemetry.FlowerState, 0, snap.Flowers.Len()),
	}
	for _, a := range snap.Agents {
		w.Agents = append(w.Agents, telemetry.AgentState{
			X: a.X, Y: a.Y, Heading: a.Heading, Speed: a.Speed,
			Energy: a.Energy, State: a.State.String(), Bouts: a.Bouts,
		})
	}
	for _, f := range snap.Flowers.All() {
		w.Flowers = append(w.Flowers, telemetry.FlowerState{
			ID: uint64(f.ID), X: f.X, Y: f.Y, Nectar: f.Nectar, Special: f.Special,
		})
	}
	for _, o := range snap.Obstacles {
		w.Obstacles = append(w.Obstacles, telemetry.ObstacleState{X: o.X, Y: o.Y, Size: o.Size})
	}
	return w
}
