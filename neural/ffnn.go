package neural

import (
	"fmt"
	"math"
	"math/rand"
)

// FFNN is a simple two-layer feedforward network usable as a Policy.
// It holds no activation state, so one instance may be shared by any
// number of foragers.
type FFNN struct {
	W1 [][NumInputs]float32  // input -> hidden weights
	B1 []float32             // hidden biases
	W2 [NumOutputs][]float32 // hidden -> output weights
	B2 [NumOutputs]float32   // output biases
}

// NewFFNN creates a randomly initialized network with the given hidden width.
func NewFFNN(rng *rand.Rand, hidden int) *FFNN {
	if hidden < 1 {
		hidden = 1
	}
	nn := &FFNN{
		W1: make([][NumInputs]float32, hidden),
		B1: make([]float32, hidden),
	}
	for i := range nn.W2 {
		nn.W2[i] = make([]float32, hidden)
	}

	// Xavier initialization
	scale1 := float32(math.Sqrt(2.0 / float64(NumInputs)))
	scale2 := float32(math.Sqrt(2.0 / float64(hidden)))

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = float32(rng.NormFloat64()) * scale1
		}
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = float32(rng.NormFloat64()) * scale2
		}
	}
	return nn
}

// Hidden returns the hidden layer width.
func (nn *FFNN) Hidden() int {
	return len(nn.B1)
}

// Forward computes both outputs, each in [0,1].
func (nn *FFNN) Forward(inputs []float32) (turn, speed float32) {
	out := nn.forward(inputs)
	return out[0], out[1]
}

func (nn *FFNN) forward(inputs []float32) [NumOutputs]float32 {
	hidden := make([]float32, len(nn.B1))
	for i := range hidden {
		sum := nn.B1[i]
		for j := 0; j < NumInputs && j < len(inputs); j++ {
			sum += nn.W1[i][j] * inputs[j]
		}
		hidden[i] = tanh(sum)
	}

	var out [NumOutputs]float32
	for i := range out {
		sum := nn.B2[i]
		for j, h := range hidden {
			sum += nn.W2[i][j] * h
		}
		// raw=0 maps to 0.5, which leaves heading and speed unchanged
		out[i] = saturate01(sum*0.5 + 0.5)
	}
	return out
}

// Activate implements Policy. Sensor values are squashed into the
// network's working range before the forward pass.
func (nn *FFNN) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != NumInputs {
		return nil, fmt.Errorf("expected %d inputs, got %d", NumInputs, len(inputs))
	}
	var in [NumInputs]float32
	for i, v := range inputs {
		in[i] = float32(squash(v))
	}
	turn, speed := nn.Forward(in[:])
	return []float64{float64(turn), float64(speed)}, nil
}

// squash maps raw sensor magnitudes (distances, energy) into (-1,1).
func squash(v float64) float64 {
	return v / (1 + math.Abs(v))
}

// saturate01 clamps x to [0, 1].
func saturate01(x float32) float32 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return x
}

// tanh uses a fast rational approximation avoiding float64 conversion.
func tanh(x float32) float32 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

// BrainWeights holds flattened network weights for serialization.
type BrainWeights struct {
	Hidden int       `json:"hidden"`
	W1     []float32 `json:"w1"` // [Hidden * NumInputs]
	B1     []float32 `json:"b1"` // [Hidden]
	W2     []float32 `json:"w2"` // [NumOutputs * Hidden]
	B2     []float32 `json:"b2"` // [NumOutputs]
}

// MarshalWeights flattens the network weights for JSON serialization.
func (nn *FFNN) MarshalWeights() BrainWeights {
	h := nn.Hidden()
	bw := BrainWeights{
		Hidden: h,
		W1:     make([]float32, 0, h*NumInputs),
		B1:     append([]float32(nil), nn.B1...),
		W2:     make([]float32, 0, NumOutputs*h),
		B2:     append([]float32(nil), nn.B2[:]...),
	}
	for i := range nn.W1 {
		bw.W1 = append(bw.W1, nn.W1[i][:]...)
	}
	for i := range nn.W2 {
		bw.W2 = append(bw.W2, nn.W2[i]...)
	}
	return bw
}

// FFNNFromWeights rebuilds a network from flattened weights.
func FFNNFromWeights(bw BrainWeights) (*FFNN, error) {
	h := bw.Hidden
	switch {
	case h < 1:
		return nil, fmt.Errorf("hidden width %d must be positive", h)
	case len(bw.W1) != h*NumInputs:
		return nil, fmt.Errorf("w1 has %d weights, want %d", len(bw.W1), h*NumInputs)
	case len(bw.B1) != h:
		return nil, fmt.Errorf("b1 has %d biases, want %d", len(bw.B1), h)
	case len(bw.W2) != NumOutputs*h:
		return nil, fmt.Errorf("w2 has %d weights, want %d", len(bw.W2), NumOutputs*h)
	case len(bw.B2) != NumOutputs:
		return nil, fmt.Errorf("b2 has %d biases, want %d", len(bw.B2), NumOutputs)
	}

	nn := &FFNN{
		W1: make([][NumInputs]float32, h),
		B1: append([]float32(nil), bw.B1...),
	}
	for i := 0; i < h; i++ {
		copy(nn.W1[i][:], bw.W1[i*NumInputs:(i+1)*NumInputs])
	}
	for i := 0; i < NumOutputs; i++ {
		nn.W2[i] = append([]float32(nil), bw.W2[i*h:(i+1)*h]...)
	}
	copy(nn.B2[:], bw.B2)
	return nn, nil
}
