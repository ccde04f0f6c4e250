package systems

import (
	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/neural"
)

// Sensor defaults when no target or landmark exists.
const noTargetDistance = 1.0

// SensorInputs holds the computed sensor values for one forager.
type SensorInputs struct {
	TargetDistance   float64 // distance to the chosen flower, 1 when none
	Energy           float64
	Pheromone        float64 // intensity of the current cell
	Weather          float64 // 1 clear, 0 rainy
	LandmarkDistance float64 // distance to the flower nearest the colony, 1 when none
}

// AsSlice returns the sensor inputs in policy order.
func (s *SensorInputs) AsSlice() []float64 {
	out := make([]float64, 0, neural.NumInputs)
	return append(out, s.TargetDistance, s.Energy, s.Pheromone, s.Weather, s.LandmarkDistance)
}

// ComputeSensors builds the sensor vector for an agent at pos with an
// optional target.
func ComputeSensors(pos components.Position, energy float64, target *Flower, env *Env) SensorInputs {
	in := SensorInputs{
		TargetDistance:   noTargetDistance,
		Energy:           energy,
		Pheromone:        env.Field.Sample(pos.X, pos.Y),
		Weather:          env.Weather.Indicator(),
		LandmarkDistance: noTargetDistance,
	}
	if target != nil {
		in.TargetDistance = distance(pos.X, pos.Y, target.X, target.Y)
	}
	if env.hasLandmark {
		in.LandmarkDistance = distance(pos.X, pos.Y, env.landmark.X, env.landmark.Y)
	}
	return in
}
