package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/forage/config"
)

// Obstacle is an axis-aligned square blocking region centred on (X, Y).
type Obstacle struct {
	X, Y, Size float64
}

// ObstacleSet is an ordered collection of obstacles. It only answers
// containment queries; agents use it as a steering deterrent.
type ObstacleSet struct {
	items []Obstacle
}

// Add appends an obstacle.
func (s *ObstacleSet) Add(x, y, size float64) {
	s.items = append(s.items, Obstacle{X: x, Y: y, Size: size})
}

// Clear removes every obstacle.
func (s *ObstacleSet) Clear() {
	s.items = s.items[:0]
}

// Contains reports whether (x, y) falls strictly inside any obstacle's square.
func (s *ObstacleSet) Contains(x, y float64) bool {
	for _, o := range s.items {
		half := o.Size / 2
		if math.Abs(x-o.X) < half && math.Abs(y-o.Y) < half {
			return true
		}
	}
	return false
}

// Len returns the number of obstacles.
func (s *ObstacleSet) Len() int {
	return len(s.items)
}

// All returns a copy of the obstacles.
func (s *ObstacleSet) All() []Obstacle {
	out := make([]Obstacle, len(s.items))
	copy(out, s.items)
	return out
}

// Regenerate replaces the set with a random layout: between MinCount and
// MaxCount obstacles with integer centres at least Margin from the edges
// and integer sizes in [MinSize, MaxSize]. Returns the new count.
func (s *ObstacleSet) Regenerate(rng *rand.Rand, world config.WorldConfig, cfg config.ObstaclesConfig) int {
	s.Clear()
	n := randIntRange(rng, cfg.MinCount, cfg.MaxCount)
	for i := 0; i < n; i++ {
		x := float64(randIntRange(rng, int(cfg.Margin), int(world.Width-cfg.Margin)))
		y := float64(randIntRange(rng, int(cfg.Margin), int(world.Height-cfg.Margin)))
		size := float64(randIntRange(rng, int(cfg.MinSize), int(cfg.MaxSize)))
		s.Add(x, y, size)
	}
	return n
}

// randIntRange returns an integer uniformly in [lo, hi], both inclusive.
func randIntRange(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
