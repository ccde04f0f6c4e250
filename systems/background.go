package systems

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/forage/config"
)

// FlowerProcess mutates the registry at random wall-clock intervals while
// its enable flag stays on. It holds only a registry mutation, never the
// simulation, so it can outlive a tick without touching agent state.
type FlowerProcess struct {
	name        string
	enabled     func() bool
	action      func()
	minInterval time.Duration
	maxInterval time.Duration
	rng         *rand.Rand // used only by the running goroutine

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	mutations atomic.Int64
}

// NewDyingProcess removes one random ordinary flower every dying interval.
func NewDyingProcess(reg *FlowerRegistry, enabled func() bool, cfg config.BackgroundConfig, seed int64) *FlowerProcess {
	return &FlowerProcess{
		name:        "dying",
		enabled:     enabled,
		action:      func() { reg.DespawnRandom() },
		minInterval: cfg.DyingMinInterval,
		maxInterval: cfg.DyingMaxInterval,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// NewSpawnProcess adds one random ordinary flower every spawn interval.
func NewSpawnProcess(reg *FlowerRegistry, enabled func() bool, cfg config.BackgroundConfig, seed int64) *FlowerProcess {
	return &FlowerProcess{
		name:        "spawn",
		enabled:     enabled,
		action:      func() { reg.SpawnOne() },
		minInterval: cfg.SpawnMinInterval,
		maxInterval: cfg.SpawnMaxInterval,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Name returns the process label used in logs.
func (p *FlowerProcess) Name() string {
	return p.name
}

// Start launches the process unless it is already running. It returns
// false when a previous run has not exited yet.
func (p *FlowerProcess) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.runningLocked() {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
	return true
}

// Running reports whether the goroutine is still alive.
func (p *FlowerProcess) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runningLocked()
}

func (p *FlowerProcess) runningLocked() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Stop cancels the process and waits for it to exit. Safe to call any
// number of times, including before Start.
func (p *FlowerProcess) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Mutations returns how many registry mutations the process has made.
func (p *FlowerProcess) Mutations() int64 {
	return p.mutations.Load()
}

func (p *FlowerProcess) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil || !p.enabled() {
			return
		}

		timer := time.NewTimer(p.nextInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if ctx.Err() != nil || !p.enabled() {
			return
		}
		p.action()
		p.mutations.Add(1)
	}
}

func (p *FlowerProcess) nextInterval() time.Duration {
	span := p.maxInterval - p.minInterval
	if span <= 0 {
		return p.minInterval
	}
	return p.minInterval + time.Duration(p.rng.Int63n(int64(span)+1))
}
