package systems

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pthm-cable/forage/config"
)

var fastIntervals = config.BackgroundConfig{
	DyingMinInterval: time.Millisecond,
	DyingMaxInterval: 2 * time.Millisecond,
	SpawnMinInterval: time.Millisecond,
	SpawnMaxInterval: 2 * time.Millisecond,
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSpawnProcessAddsFlowers(t *testing.T) {
	reg := newTestRegistry(1)
	var on atomic.Bool
	on.Store(true)

	p := NewSpawnProcess(reg, on.Load, fastIntervals, 1)
	if !p.Start(context.Background()) {
		t.Fatal("Start returned false")
	}
	waitFor(t, func() bool { return reg.Len() >= 3 })
	p.Stop()

	if p.Running() {
		t.Error("still running after Stop")
	}
	n := reg.Len()
	time.Sleep(10 * time.Millisecond)
	if reg.Len() != n {
		t.Error("registry mutated after Stop")
	}
	if p.Mutations() != int64(n) {
		t.Errorf("mutations = %d, want %d", p.Mutations(), n)
	}
}

func TestDyingProcessRemovesFlowers(t *testing.T) {
	reg := newTestRegistry(1)
	if err := reg.Populate(ArrangementRandom, 5, 1, testGeometry); err != nil {
		t.Fatal(err)
	}
	var on atomic.Bool
	on.Store(true)

	p := NewDyingProcess(reg, on.Load, fastIntervals, 2)
	p.Start(context.Background())
	defer p.Stop()

	waitFor(t, func() bool { ord, _ := reg.Counts(); return ord == 0 })
	if _, sp := reg.Counts(); sp != 1 {
		t.Errorf("special flowers = %d, want 1", sp)
	}
}

func TestProcessExitsWhenDisabled(t *testing.T) {
	reg := newTestRegistry(1)
	var on atomic.Bool
	on.Store(true)

	p := NewSpawnProcess(reg, on.Load, fastIntervals, 1)
	p.Start(context.Background())
	on.Store(false)
	waitFor(t, func() bool { return !p.Running() })

	// Re-enabling allows a fresh start
	on.Store(true)
	if !p.Start(context.Background()) {
		t.Error("restart after exit refused")
	}
	p.Stop()
}

func TestProcessStopsOnContextCancel(t *testing.T) {
	reg := newTestRegistry(1)
	p := NewSpawnProcess(reg, func() bool { return true }, config.BackgroundConfig{
		SpawnMinInterval: time.Hour,
		SpawnMaxInterval: time.Hour,
	}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()
	waitFor(t, func() bool { return !p.Running() })
	if reg.Len() != 0 {
		t.Error("mutated after cancel")
	}
}

func TestStopIdempotent(t *testing.T) {
	reg := newTestRegistry(1)
	p := NewSpawnProcess(reg, func() bool { return true }, fastIntervals, 1)

	p.Stop() // before Start
	p.Start(context.Background())
	if p.Start(context.Background()) {
		t.Error("second Start while running returned true")
	}
	p.Stop()
	p.Stop()
	if p.Running() {
		t.Error("running after Stop")
	}
}
