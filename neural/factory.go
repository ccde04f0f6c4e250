package neural

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sync"

	"github.com/pthm-cable/forage/config"
)

// Built-in policy kinds.
const (
	KindConstant = "constant"
	KindFFNN     = "ffnn"
	KindNEAT     = "neat"
)

// Factory hands out one policy per simulation. Stateless policies are
// shared; stateful ones are forked so parallel runs never share a network.
type Factory struct {
	kind  string
	ffnn  *FFNN
	brain *BrainPolicy

	mu sync.Mutex // genesis writes the phenotype back into the shared genome
}

// NewFactory builds the policy described by cfg. For ffnn, a non-empty
// weightsPath loads a saved network instead of drawing random weights
// from seed.
func NewFactory(cfg config.NeuralConfig, seed int64, weightsPath string) (*Factory, error) {
	rng := rand.New(rand.NewSource(seed))
	f := &Factory{kind: cfg.Policy}

	switch cfg.Policy {
	case KindConstant:
	case KindFFNN:
		if weightsPath != "" {
			nn, err := LoadWeights(weightsPath)
			if err != nil {
				return nil, err
			}
			f.ffnn = nn
		} else {
			f.ffnn = NewFFNN(rng, cfg.Hidden)
		}
	case KindNEAT:
		brain, err := NewBrainPolicy(NewForagerGenome(1, rng, cfg.ConnectionProb))
		if err != nil {
			return nil, err
		}
		f.brain = brain
	default:
		return nil, fmt.Errorf("unknown policy %q", cfg.Policy)
	}
	return f, nil
}

// Kind returns the policy kind.
func (f *Factory) Kind() string {
	return f.kind
}

// New returns a policy for one simulation. Safe for concurrent use.
func (f *Factory) New() (Policy, error) {
	switch {
	case f.ffnn != nil:
		return f.ffnn, nil
	case f.brain != nil:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.brain.Fork()
	default:
		return Straight, nil
	}
}

// Weights returns the ffnn weights, if the factory holds a network.
func (f *Factory) Weights() (BrainWeights, bool) {
	if f.ffnn == nil {
		return BrainWeights{}, false
	}
	return f.ffnn.MarshalWeights(), true
}

// LoadWeights reads a network saved as BrainWeights JSON.
func LoadWeights(path string) (*FFNN, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading weights: %w", err)
	}
	var bw BrainWeights
	if err := json.Unmarshal(data, &bw); err != nil {
		return nil, fmt.Errorf("parsing weights: %w", err)
	}
	nn, err := FFNNFromWeights(bw)
	if err != nil {
		return nil, fmt.Errorf("weights %s: %w", path, err)
	}
	return nn, nil
}
