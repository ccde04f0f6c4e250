// Package neural provides the decision policies that steer foragers.
package neural

import (
	"errors"
	"fmt"
	"math"
)

// Policy input/output layout.
//
// Inputs:  distance to target, energy, pheromone here, weather (1 clear, 0 rain), distance to landmark
// Outputs: heading change in [0,1] (0.5 = straight), speed change in [0,1] (0.5 = keep)
const (
	NumInputs  = 5
	NumOutputs = 2
)

// ErrPolicy is matched by every *PolicyError.
var ErrPolicy = errors.New("policy failure")

// ErrOutputShape reports a policy that returned the wrong number of outputs.
var ErrOutputShape = errors.New("wrong number of policy outputs")

// ErrNonFinite reports a NaN or infinite policy output.
var ErrNonFinite = errors.New("non-finite policy output")

// Policy maps a sensor vector to a steering decision.
type Policy interface {
	Activate(inputs []float64) ([]float64, error)
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(inputs []float64) ([]float64, error)

// Activate calls f.
func (f PolicyFunc) Activate(inputs []float64) ([]float64, error) {
	return f(inputs)
}

// Constant always returns the same outputs.
type Constant []float64

// Activate returns a copy of c.
func (c Constant) Activate([]float64) ([]float64, error) {
	out := make([]float64, len(c))
	copy(out, c)
	return out, nil
}

// Straight keeps heading and speed unchanged.
var Straight = Constant{0.5, 0.5}

// Scripted replays a fixed list of outputs, cycling when exhausted, and
// records every input vector it was given. Not safe for concurrent use.
type Scripted struct {
	Outputs [][]float64
	Inputs  [][]float64
	calls   int
}

// Activate returns the next scripted output.
func (s *Scripted) Activate(inputs []float64) ([]float64, error) {
	s.Inputs = append(s.Inputs, append([]float64(nil), inputs...))
	if len(s.Outputs) == 0 {
		return nil, errors.New("scripted policy has no outputs")
	}
	out := s.Outputs[s.calls%len(s.Outputs)]
	s.calls++
	return append([]float64(nil), out...), nil
}

// Calls returns how many times Activate was called.
func (s *Scripted) Calls() int {
	return s.calls
}

// PolicyError wraps a policy failure with the tick it happened on.
type PolicyError struct {
	Tick int
	Err  error
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy failed at tick %d: %v", e.Tick, e.Err)
}

func (e *PolicyError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPolicy) match any PolicyError.
func (e *PolicyError) Is(target error) bool { return target == ErrPolicy }

// Evaluate runs p on inputs and validates the result. Returned errors,
// recovered panics, a wrong output count and non-finite outputs all come
// back as *PolicyError.
func Evaluate(p Policy, inputs []float64, tick int) (out []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &PolicyError{Tick: tick, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	out, err = p.Activate(inputs)
	if err != nil {
		return nil, &PolicyError{Tick: tick, Err: err}
	}
	if len(out) != NumOutputs {
		return nil, &PolicyError{Tick: tick, Err: fmt.Errorf("%w: got %d, want %d", ErrOutputShape, len(out), NumOutputs)}
	}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &PolicyError{Tick: tick, Err: ErrNonFinite}
		}
	}
	return out, nil
}
