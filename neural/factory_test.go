package neural

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/forage/config"
)

func TestFactoryKinds(t *testing.T) {
	tests := []struct {
		policy      string
		wantWeights bool
	}{
		{KindConstant, false},
		{KindFFNN, true},
		{KindNEAT, false},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			cfg := config.NeuralConfig{Policy: tt.policy, Hidden: 4, ConnectionProb: 1}
			f, err := NewFactory(cfg, 7, "")
			if err != nil {
				t.Fatal(err)
			}
			p, err := f.New()
			if err != nil {
				t.Fatal(err)
			}
			out, err := Evaluate(p, []float64{0.5, 1, 0, 1, 0.2}, 0)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			for _, v := range out {
				if v < 0 || v > 1 {
					t.Errorf("output %v outside [0,1]", v)
				}
			}
			if _, ok := f.Weights(); ok != tt.wantWeights {
				t.Errorf("Weights ok = %v, want %v", ok, tt.wantWeights)
			}
		})
	}

	if _, err := NewFactory(config.NeuralConfig{Policy: "lstm"}, 1, ""); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestFactoryForksBrains(t *testing.T) {
	f, err := NewFactory(config.NeuralConfig{Policy: KindNEAT, ConnectionProb: 1}, 3, "")
	if err != nil {
		t.Fatal(err)
	}
	a, _ := f.New()
	b, _ := f.New()
	if a == b {
		t.Error("NEAT policies must not be shared between simulations")
	}
}

func TestLoadWeights(t *testing.T) {
	nn := NewFFNN(rand.New(rand.NewSource(1)), 3)
	data, err := json.Marshal(nn.MarshalWeights())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "weights.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	f, err := NewFactory(config.NeuralConfig{Policy: KindFFNN}, 99, path)
	if err != nil {
		t.Fatal(err)
	}
	in := []float32{0.1, 0.2, 0.3, 0.4, 0.5}
	wantTurn, wantSpeed := nn.Forward(in)
	loaded, _ := f.New()
	gotTurn, gotSpeed := loaded.(*FFNN).Forward(in)
	if gotTurn != wantTurn || gotSpeed != wantSpeed {
		t.Errorf("loaded network differs: (%v, %v) vs (%v, %v)", gotTurn, gotSpeed, wantTurn, wantSpeed)
	}

	if _, err := LoadWeights(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
