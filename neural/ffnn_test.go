package neural

import (
	"encoding/json"
	"math/rand"
	"testing"
)

func TestNewFFNN(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, 8)

	if nn == nil {
		t.Fatal("NewFFNN returned nil")
	}
	if nn.Hidden() != 8 {
		t.Errorf("hidden = %d, want 8", nn.Hidden())
	}
	if len(nn.W2[0]) != 8 {
		t.Errorf("W2[0] has wrong dimensions: got %d, want 8", len(nn.W2[0]))
	}
}

func TestForwardRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, 8)

	inputs := []float32{0.9, 0.5, 0, 1, -0.3}
	turn, speed := nn.Forward(inputs)

	if turn < 0 || turn > 1 {
		t.Errorf("turn out of range [0,1]: %f", turn)
	}
	if speed < 0 || speed > 1 {
		t.Errorf("speed out of range [0,1]: %f", speed)
	}
}

func TestForwardDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, 8)

	inputs := make([]float32, NumInputs)
	for i := range inputs {
		inputs[i] = float32(i) / float32(NumInputs)
	}

	turn1, speed1 := nn.Forward(inputs)
	turn2, speed2 := nn.Forward(inputs)

	if turn1 != turn2 || speed1 != speed2 {
		t.Error("Forward is not deterministic")
	}
}

func TestZeroNetworkIsNeutral(t *testing.T) {
	nn := &FFNN{W1: make([][NumInputs]float32, 2), B1: make([]float32, 2)}
	for i := range nn.W2 {
		nn.W2[i] = make([]float32, 2)
	}
	out, err := nn.Activate([]float64{100, 100, 3, 1, 40})
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != 0.5 || out[1] != 0.5 {
		t.Errorf("outputs = %v, want [0.5 0.5]", out)
	}
}

func TestActivateRejectsWrongInputs(t *testing.T) {
	nn := NewFFNN(rand.New(rand.NewSource(1)), 4)
	if _, err := nn.Activate([]float64{1, 2}); err == nil {
		t.Error("expected error for short input")
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	nn := NewFFNN(rand.New(rand.NewSource(3)), 5)

	data, err := json.Marshal(nn.MarshalWeights())
	if err != nil {
		t.Fatal(err)
	}
	var bw BrainWeights
	if err := json.Unmarshal(data, &bw); err != nil {
		t.Fatal(err)
	}
	back, err := FFNNFromWeights(bw)
	if err != nil {
		t.Fatalf("FFNNFromWeights: %v", err)
	}

	inputs := []float32{0.3, -0.1, 0.8, 1, 0.2}
	t1, s1 := nn.Forward(inputs)
	t2, s2 := back.Forward(inputs)
	if t1 != t2 || s1 != s2 {
		t.Errorf("restored network differs: (%v,%v) vs (%v,%v)", t1, s1, t2, s2)
	}
}

func TestFFNNFromWeightsRejectsBadShape(t *testing.T) {
	bw := NewFFNN(rand.New(rand.NewSource(3)), 4).MarshalWeights()
	bw.W1 = bw.W1[:3]
	if _, err := FFNNFromWeights(bw); err == nil {
		t.Error("expected error for truncated weights")
	}
}

func BenchmarkForward(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	nn := NewFFNN(rng, 8)

	inputs := make([]float32, NumInputs)
	for i := range inputs {
		inputs[i] = 0.5
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		nn.Forward(inputs)
	}
}
