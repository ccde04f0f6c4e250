package components

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Motion holds an agent's heading, step length and sensing radius.
type Motion struct {
	Heading float64 // radians, policy-steered
	Speed   float64 // world units per tick
	FOV     float64 // sensing radius, shrinks in rain
}
