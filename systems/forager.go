package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/neural"
)

// Env is the committed world state every agent senses during one tick.
// Flowers is a snapshot taken at tick start and pheromone marks go to
// Deposits, so no agent observes another agent's changes from the same tick.
type Env struct {
	Flowers   FlowerSet
	Field     *PheromoneField
	Deposits  *PendingDeposits
	Obstacles *ObstacleSet // nil when obstacles are disabled
	Colony    *Colony
	Weather   WeatherState
	Now       float64 // simulated seconds
	Tick      int

	landmark    Flower
	hasLandmark bool
}

// SetFlowers installs the tick's flower snapshot and locates the landmark,
// the flower nearest the colony.
func (e *Env) SetFlowers(set FlowerSet) {
	e.Flowers = set
	e.landmark, e.hasLandmark = set.NearestTo(e.Colony.X, e.Colony.Y)
}

// Agent bundles the component pointers of one forager entity.
type Agent struct {
	Pos     *components.Position
	Motion  *components.Motion
	Forager *components.Forager
	Memory  *components.Memory
	Tally   *components.Tally
}

// ForagerSystem advances the forager state machine.
type ForagerSystem struct {
	agent   config.AgentConfig
	colony  config.ColonyConfig
	deposit float64
	policy  neural.Policy
	rng     *rand.Rand
}

// NewForagerSystem creates a forager system. Every agent shares policy.
func NewForagerSystem(cfg *config.Config, policy neural.Policy, rng *rand.Rand) *ForagerSystem {
	return &ForagerSystem{
		agent:   cfg.Agent,
		colony:  cfg.Colony,
		deposit: cfg.Pheromone.Deposit,
		policy:  policy,
		rng:     rng,
	}
}

// Step advances one agent by one tick. The only error is a *neural.PolicyError.
func (s *ForagerSystem) Step(a Agent, env *Env) error {
	switch a.Forager.State {
	case components.StateAtHive:
		if env.Now-a.Forager.HiveArrival >= s.colony.DwellSeconds {
			a.Forager.State = components.StateForaging
			a.Forager.Energy = s.agent.InitialEnergy
		}
		return nil
	case components.StateReturning:
		s.returnHome(a, env)
		return nil
	default:
		return s.forage(a, env)
	}
}

func (s *ForagerSystem) forage(a Agent, env *Env) error {
	f := a.Forager
	env.Deposits.Add(a.Pos.X, a.Pos.Y, s.deposit)

	if f.Energy <= 0 || env.Flowers.AllVisited(a.Memory) {
		f.State = components.StateReturning
		s.returnHome(a, env)
		return nil
	}

	if env.Weather == WeatherRainy {
		a.Motion.Speed = math.Max(s.agent.MinSpeed, a.Motion.Speed*0.5)
		f.Energy -= s.agent.RainCost
		a.Motion.FOV = s.agent.FOVRainy
	} else {
		a.Motion.FOV = s.agent.FOVClear
	}

	target, hasTarget := env.Flowers.NearestUnvisited(a.Pos.X, a.Pos.Y, a.Memory)
	var tp *Flower
	if hasTarget {
		tp = &target
	}
	sensors := ComputeSensors(*a.Pos, f.Energy, tp, env)
	out, err := neural.Evaluate(s.policy, sensors.AsSlice(), env.Tick)
	if err != nil {
		return err
	}
	s.applyOutputs(a.Motion, out)

	if !hasTarget {
		// Idle: nothing to fly to, but upkeep still drains energy
		f.Energy -= s.agent.MoveCost
		return nil
	}

	s.moveTowards(a, target.X, target.Y, env.Obstacles)
	if distance(a.Pos.X, a.Pos.Y, target.X, target.Y) < s.agent.VisitRadius {
		a.Memory.Mark(target.ID)
		f.Energy += target.Nectar
		a.Tally.Nectar += target.Nectar
		a.Tally.FlowersVisited++
		if f.RouteLength < f.BestRouteLength {
			f.BestRouteLength = f.RouteLength
			a.Motion.Speed = math.Min(a.Motion.Speed*s.agent.BestRouteBoost, s.agent.MaxSpeed)
		}
	}
	return nil
}

// applyOutputs maps policy outputs in [0,1] to a heading change in
// [-Pi, Pi] and a speed change in [-1, 1].
func (s *ForagerSystem) applyOutputs(m *components.Motion, out []float64) {
	m.Heading = normalizeAngle(m.Heading + out[0]*2*math.Pi - math.Pi)
	m.Speed = clampFloat(m.Speed+out[1]*2-1, s.agent.MinSpeed, s.agent.MaxSpeed)
}

func (s *ForagerSystem) returnHome(a Agent, env *Env) {
	c := env.Colony
	if distance(a.Pos.X, a.Pos.Y, c.X, c.Y) > s.colony.ArrivalRadius {
		s.moveTowards(a, c.X, c.Y, env.Obstacles)
		env.Deposits.Add(a.Pos.X, a.Pos.Y, s.deposit)
		return
	}

	f := a.Forager
	a.Pos.X, a.Pos.Y = c.X, c.Y
	a.Memory.Clear()
	f.RouteLength = 0
	f.HiveArrival = env.Now
	f.Bouts++
	f.State = components.StateAtHive
	c.RecordBout()
}

// moveTowards steps speed units along the bearing to (tx, ty). If that step
// would land inside an obstacle the bearing is perturbed once by up to
// ±Pi/2; the perturbed step is taken even if it is blocked too.
func (s *ForagerSystem) moveTowards(a Agent, tx, ty float64, obstacles *ObstacleSet) {
	bearing := math.Atan2(ty-a.Pos.Y, tx-a.Pos.X)
	speed := a.Motion.Speed

	nx := a.Pos.X + math.Cos(bearing)*speed
	ny := a.Pos.Y + math.Sin(bearing)*speed
	if obstacles != nil && obstacles.Contains(nx, ny) {
		bearing += (s.rng.Float64() - 0.5) * math.Pi
	}

	a.Pos.X += math.Cos(bearing) * speed
	a.Pos.Y += math.Sin(bearing) * speed
	a.Forager.RouteLength += speed
	a.Tally.Distance += speed
	a.Forager.Energy -= s.agent.MoveCost
}

// NewAgentState returns the initial motion and forager state of a fresh agent.
func NewAgentState(rng *rand.Rand, cfg config.AgentConfig) (components.Motion, components.Forager) {
	motion := components.Motion{
		Heading: rng.Float64() * 2 * math.Pi,
		Speed:   cfg.InitialSpeed,
		FOV:     cfg.FOVClear,
	}
	forager := components.Forager{
		State:           components.StateForaging,
		Energy:          cfg.InitialEnergy,
		BestRouteLength: math.Inf(1),
	}
	return motion, forager
}
