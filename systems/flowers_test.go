package systems

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/config"
)

func newTestRegistry(seed int64) *FlowerRegistry {
	return NewFlowerRegistry(testGeometry, config.FlowersConfig{NectarMin: 10, NectarMax: 30}, seed)
}

func flowerIDs(set FlowerSet) []components.FlowerID {
	var ids []components.FlowerID
	for _, f := range set.All() {
		ids = append(ids, f.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestPopulate(t *testing.T) {
	r := newTestRegistry(1)
	if err := r.Populate(ArrangementRandom, 15, 2, testGeometry); err != nil {
		t.Fatal(err)
	}
	ord, sp := r.Counts()
	if ord != 15 || sp != 2 {
		t.Errorf("counts = %d/%d, want 15/2", ord, sp)
	}

	seen := make(map[components.FlowerID]bool)
	for _, f := range r.Snapshot().All() {
		if seen[f.ID] {
			t.Errorf("duplicate id %d", f.ID)
		}
		seen[f.ID] = true
		if f.Nectar < 10 || f.Nectar > 30 || f.Nectar != float64(int(f.Nectar)) {
			t.Errorf("nectar %v not an integer in [10,30]", f.Nectar)
		}
	}
}

func TestPopulateUnknownArrangement(t *testing.T) {
	r := newTestRegistry(1)
	err := r.Populate("spiral", 5, 0, testGeometry)
	if !errors.Is(err, ErrUnknownArrangement) {
		t.Fatalf("err = %v, want ErrUnknownArrangement", err)
	}
}

func TestNearestUnvisitedPriority(t *testing.T) {
	set := FlowerSet{
		Ordinary: []Flower{
			{ID: 1, X: 10, Y: 0},
			{ID: 2, X: 20, Y: 0},
		},
		Special: []Flower{
			{ID: 3, X: 500, Y: 0, Special: true},
		},
	}
	mem := components.NewMemory()

	tests := []struct {
		name    string
		visited []components.FlowerID
		wantID  components.FlowerID
		wantOK  bool
	}{
		{"special wins over nearer ordinary", nil, 3, true},
		{"nearest ordinary once special visited", []components.FlowerID{3}, 1, true},
		{"next ordinary", []components.FlowerID{3, 1}, 2, true},
		{"none when all visited", []components.FlowerID{3, 1, 2}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem.Clear()
			for _, id := range tt.visited {
				mem.Mark(id)
			}
			f, ok := set.NearestUnvisited(0, 0, &mem)
			if ok != tt.wantOK || (ok && f.ID != tt.wantID) {
				t.Errorf("got (%d, %v), want (%d, %v)", f.ID, ok, tt.wantID, tt.wantOK)
			}
			if got := set.AllVisited(&mem); got != !tt.wantOK {
				t.Errorf("AllVisited = %v", got)
			}
		})
	}
}

func TestNearestUnvisitedTieGoesToFirst(t *testing.T) {
	set := FlowerSet{Ordinary: []Flower{{ID: 7, X: 10, Y: 0}, {ID: 8, X: -10, Y: 0}}}
	f, ok := set.NearestUnvisited(0, 0, nil)
	if !ok || f.ID != 7 {
		t.Errorf("got %d, want 7", f.ID)
	}
}

func TestEmptySetNeverAllVisited(t *testing.T) {
	mem := components.NewMemory()
	if (FlowerSet{}).AllVisited(&mem) {
		t.Error("empty set reported as all visited")
	}
	if _, ok := (FlowerSet{}).NearestUnvisited(0, 0, &mem); ok {
		t.Error("empty set returned a flower")
	}
}

func TestNearestTo(t *testing.T) {
	set := FlowerSet{
		Ordinary: []Flower{{ID: 1, X: 100, Y: 100}},
		Special:  []Flower{{ID: 2, X: 390, Y: 540, Special: true}},
	}
	f, ok := set.NearestTo(400, 550)
	if !ok || f.ID != 2 {
		t.Errorf("got %d, want 2", f.ID)
	}
}

func TestRepositionPreservesIdentity(t *testing.T) {
	r := newTestRegistry(5)
	if err := r.Populate(ArrangementPositiveV2, 10, 1, testGeometry); err != nil {
		t.Fatal(err)
	}
	before := r.Snapshot()
	r.RepositionAll()
	after := r.Snapshot()

	b, a := flowerIDs(before), flowerIDs(after)
	if len(a) != len(b) {
		t.Fatalf("count changed: %d -> %d", len(b), len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("identity set changed: %v -> %v", b, a)
		}
	}

	// A flower visited before the move stays visited after it.
	mem := components.NewMemory()
	for _, f := range before.All() {
		mem.Mark(f.ID)
	}
	if !after.AllVisited(&mem) {
		t.Error("repositioned flowers lost their visited status")
	}

	moved := 0
	for i := range before.Ordinary {
		if before.Ordinary[i].X != after.Ordinary[i].X || before.Ordinary[i].Y != after.Ordinary[i].Y {
			moved++
		}
	}
	if moved == 0 {
		t.Error("no flower moved")
	}
}

func TestDespawnAndSpawn(t *testing.T) {
	r := newTestRegistry(2)
	if err := r.Populate(ArrangementRandom, 3, 1, testGeometry); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, ok := r.DespawnRandom(); !ok {
			t.Fatalf("despawn %d failed", i)
		}
	}
	if _, ok := r.DespawnRandom(); ok {
		t.Error("despawn succeeded with no ordinary flowers")
	}
	// Special flowers are never despawned
	if ord, sp := r.Counts(); ord != 0 || sp != 1 {
		t.Errorf("counts = %d/%d, want 0/1", ord, sp)
	}

	f := r.SpawnOne()
	if f.Special {
		t.Error("SpawnOne produced a special flower")
	}
	if s := r.AddSpecial(); !s.Special {
		t.Error("AddSpecial produced an ordinary flower")
	}
	if r.Len() != 3 {
		t.Errorf("len = %d, want 3", r.Len())
	}
}

func TestTurnover(t *testing.T) {
	tests := []struct {
		n        int
		fraction float64
		want     int
	}{
		{15, 0.1, 2},
		{10, 0.1, 1},
		{1, 0.1, 1},
		{0, 0.1, 0},
		{10, 0, 0},
	}
	for _, tt := range tests {
		r := newTestRegistry(9)
		if err := r.Populate(ArrangementRandom, tt.n, 0, testGeometry); err != nil {
			t.Fatal(err)
		}
		before := flowerIDs(r.Snapshot())
		got := r.Turnover(tt.fraction)
		if got != tt.want {
			t.Errorf("n=%d f=%v: churned %d, want %d", tt.n, tt.fraction, got, tt.want)
		}
		if r.Len() != tt.n {
			t.Errorf("n=%d: len after turnover = %d", tt.n, r.Len())
		}

		survivors := make(map[components.FlowerID]bool)
		for _, id := range before {
			survivors[id] = true
		}
		fresh := 0
		for _, id := range flowerIDs(r.Snapshot()) {
			if !survivors[id] {
				fresh++
			}
		}
		if fresh != tt.want {
			t.Errorf("n=%d: %d new ids, want %d", tt.n, fresh, tt.want)
		}
	}
}

func TestDeleteNearest(t *testing.T) {
	r := newTestRegistry(1)
	if err := r.Populate(ArrangementPositiveV2, 10, 0, testGeometry); err != nil {
		t.Fatal(err)
	}

	if _, ok := r.DeleteNearest(260, 100, 5); ok {
		t.Error("deleted a flower outside the pick radius")
	}
	if _, ok := r.DeleteNearest(255, 100, 5); ok {
		t.Error("deleted a flower exactly on the pick radius")
	}
	f, ok := r.DeleteNearest(252, 101, 5)
	if !ok || f.X != 250 || f.Y != 100 {
		t.Fatalf("got %+v, %v", f, ok)
	}
	if r.Len() != 9 {
		t.Errorf("len = %d, want 9", r.Len())
	}
	if _, ok := r.DeleteNearest(0, 0, 0); !ok {
		t.Error("unbounded delete found nothing")
	}
}

func TestRegistryConcurrentMutation(t *testing.T) {
	r := newTestRegistry(4)
	if err := r.Populate(ArrangementRandom, 20, 0, testGeometry); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				switch (w + i) % 4 {
				case 0:
					r.SpawnOne()
				case 1:
					r.DespawnRandom()
				case 2:
					set := r.Snapshot()
					set.NearestUnvisited(400, 300, nil)
				case 3:
					r.NearestUnvisited(100, 100, nil)
				}
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[components.FlowerID]bool)
	for _, id := range flowerIDs(r.Snapshot()) {
		if seen[id] {
			t.Fatalf("duplicate id %d after concurrent mutation", id)
		}
		seen[id] = true
	}
}
