package systems

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/config"
)

// ErrUnknownArrangement is returned by Populate for unregistered names.
var ErrUnknownArrangement = errors.New("unknown arrangement")

// Flower is a resource site. Nectar is fixed at creation.
type Flower struct {
	ID      components.FlowerID
	X, Y    float64
	Nectar  float64
	Special bool
}

// FlowerSet is an immutable view of the registry contents.
type FlowerSet struct {
	Ordinary []Flower
	Special  []Flower
}

// Len returns the number of flowers across both tiers.
func (s FlowerSet) Len() int {
	return len(s.Ordinary) + len(s.Special)
}

// NearestUnvisited returns the nearest flower not in visited. Special flowers
// take priority over ordinary ones; ties go to the first flower encountered.
func (s FlowerSet) NearestUnvisited(x, y float64, visited *components.Memory) (Flower, bool) {
	if f, ok := nearestIn(s.Special, x, y, visited); ok {
		return f, true
	}
	return nearestIn(s.Ordinary, x, y, visited)
}

// NearestTo returns the nearest flower of either tier, ignoring visits.
func (s FlowerSet) NearestTo(x, y float64) (Flower, bool) {
	best := Flower{}
	bestD := math.Inf(1)
	found := false
	for _, tier := range [][]Flower{s.Ordinary, s.Special} {
		for _, f := range tier {
			if d := distanceSq(x, y, f.X, f.Y); d < bestD {
				best, bestD, found = f, d, true
			}
		}
	}
	return best, found
}

// AllVisited reports whether the set is non-empty and every flower is in visited.
func (s FlowerSet) AllVisited(visited *components.Memory) bool {
	if s.Len() == 0 {
		return false
	}
	for _, tier := range [][]Flower{s.Special, s.Ordinary} {
		for _, f := range tier {
			if visited == nil || !visited.Has(f.ID) {
				return false
			}
		}
	}
	return true
}

// All returns both tiers concatenated, ordinary first.
func (s FlowerSet) All() []Flower {
	out := make([]Flower, 0, s.Len())
	out = append(out, s.Ordinary...)
	return append(out, s.Special...)
}

func nearestIn(flowers []Flower, x, y float64, visited *components.Memory) (Flower, bool) {
	best := Flower{}
	bestD := math.Inf(1)
	found := false
	for _, f := range flowers {
		if visited != nil && visited.Has(f.ID) {
			continue
		}
		if d := distanceSq(x, y, f.X, f.Y); d < bestD {
			best, bestD, found = f, d, true
		}
	}
	return best, found
}

// FlowerRegistry holds the live flowers. Every structural mutation and every
// read goes through one mutex, so background processes can spawn and kill
// flowers while the tick loop reads snapshots.
type FlowerRegistry struct {
	mu        sync.Mutex
	rng       *rand.Rand
	geom      Geometry
	nectarMin int
	nectarMax int
	nextID    components.FlowerID
	ordinary  []Flower
	special   []Flower
}

// NewFlowerRegistry creates an empty registry with its own seeded rng.
func NewFlowerRegistry(geom Geometry, cfg config.FlowersConfig, seed int64) *FlowerRegistry {
	return &FlowerRegistry{
		rng:       rand.New(rand.NewSource(seed)),
		geom:      geom,
		nectarMin: cfg.NectarMin,
		nectarMax: cfg.NectarMax,
		nextID:    1,
	}
}

// Populate replaces the contents with n ordinary flowers from the named
// arrangement and special randomly placed special flowers.
func (r *FlowerRegistry) Populate(arrangement string, n, special int, geom Geometry) error {
	gen, ok := Arrangements[arrangement]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownArrangement, arrangement)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.geom = geom
	r.ordinary = r.ordinary[:0]
	r.special = r.special[:0]
	for _, p := range gen(n, geom, r.rng) {
		r.ordinary = append(r.ordinary, r.newFlowerLocked(p, false))
	}
	for i := 0; i < special; i++ {
		r.special = append(r.special, r.newRandomLocked(true))
	}
	return nil
}

func (r *FlowerRegistry) newFlowerLocked(p Point, special bool) Flower {
	f := Flower{
		ID:      r.nextID,
		X:       p.X,
		Y:       p.Y,
		Nectar:  float64(randIntRange(r.rng, r.nectarMin, r.nectarMax)),
		Special: special,
	}
	r.nextID++
	return f
}

func (r *FlowerRegistry) newRandomLocked(special bool) Flower {
	return r.newFlowerLocked(RandomPoint(r.rng, r.geom.Width, r.geom.Height), special)
}

// SpawnOne adds one randomly placed ordinary flower.
func (r *FlowerRegistry) SpawnOne() Flower {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.newRandomLocked(false)
	r.ordinary = append(r.ordinary, f)
	return f
}

// AddSpecial adds one randomly placed special flower.
func (r *FlowerRegistry) AddSpecial() Flower {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.newRandomLocked(true)
	r.special = append(r.special, f)
	return f
}

// DespawnRandom removes one uniformly chosen ordinary flower.
func (r *FlowerRegistry) DespawnRandom() (Flower, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.despawnLocked()
}

func (r *FlowerRegistry) despawnLocked() (Flower, bool) {
	if len(r.ordinary) == 0 {
		return Flower{}, false
	}
	i := r.rng.Intn(len(r.ordinary))
	f := r.ordinary[i]
	r.ordinary = append(r.ordinary[:i], r.ordinary[i+1:]...)
	return f, true
}

// RepositionAll moves every flower to a new random position in place.
// Identities are kept, so agents that visited a flower treat the moved
// flower as already visited.
func (r *FlowerRegistry) RepositionAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tier := range [][]Flower{r.ordinary, r.special} {
		for i := range tier {
			p := RandomPoint(r.rng, r.geom.Width, r.geom.Height)
			tier[i].X, tier[i].Y = p.X, p.Y
		}
	}
}

// Turnover removes ceil(fraction * ordinary) random ordinary flowers and
// spawns as many new ones. Returns the number churned.
func (r *FlowerRegistry) Turnover(fraction float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := int(math.Ceil(clampFloat(fraction, 0, 1) * float64(len(r.ordinary))))
	for i := 0; i < k; i++ {
		r.despawnLocked()
	}
	for i := 0; i < k; i++ {
		r.ordinary = append(r.ordinary, r.newRandomLocked(false))
	}
	return k
}

// DeleteNearest removes the flower nearest (x, y) if it lies strictly
// closer than maxDist.
// A non-positive maxDist means no limit.
func (r *FlowerRegistry) DeleteNearest(x, y, maxDist float64) (Flower, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bestTier, bestIdx := -1, -1
	bestD := math.Inf(1)
	tiers := [2]*[]Flower{&r.ordinary, &r.special}
	for t, tier := range tiers {
		for i, f := range *tier {
			if d := distanceSq(x, y, f.X, f.Y); d < bestD {
				bestTier, bestIdx, bestD = t, i, d
			}
		}
	}
	if bestTier < 0 || (maxDist > 0 && bestD >= maxDist*maxDist) {
		return Flower{}, false
	}

	tier := tiers[bestTier]
	f := (*tier)[bestIdx]
	*tier = append((*tier)[:bestIdx], (*tier)[bestIdx+1:]...)
	return f, true
}

// Snapshot returns a consistent copy of both tiers.
func (r *FlowerRegistry) Snapshot() FlowerSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return FlowerSet{
		Ordinary: append([]Flower(nil), r.ordinary...),
		Special:  append([]Flower(nil), r.special...),
	}
}

// NearestUnvisited queries the live contents under the lock.
func (r *FlowerRegistry) NearestUnvisited(x, y float64, visited *components.Memory) (Flower, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return FlowerSet{Ordinary: r.ordinary, Special: r.special}.NearestUnvisited(x, y, visited)
}

// Len returns the total number of flowers.
func (r *FlowerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ordinary) + len(r.special)
}

// Counts returns the ordinary and special flower counts.
func (r *FlowerRegistry) Counts() (ordinary, special int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ordinary), len(r.special)
}
