// Package components defines ECS components for the foraging simulation.
package components

import "fmt"

// State is the forager behavior state.
type State uint8

const (
	StateForaging  State = iota // searching for and visiting flowers
	StateReturning              // heading back to the colony
	StateAtHive                 // dwelling at the colony before the next bout
)

func (s State) String() string {
	switch s {
	case StateForaging:
		return "foraging"
	case StateReturning:
		return "returning"
	case StateAtHive:
		return "at_hive"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// FlowerID is the stable identity of a flower. It survives repositioning
// and is never reused within a registry.
type FlowerID uint64

// Memory holds the flowers an agent has visited during its current bout.
// Entries stay valid after the flower leaves the registry.
type Memory struct {
	Visited map[FlowerID]struct{}
}

// NewMemory returns an empty visitation memory.
func NewMemory() Memory {
	return Memory{Visited: make(map[FlowerID]struct{})}
}

// Has reports whether id was visited this bout.
func (m *Memory) Has(id FlowerID) bool {
	_, ok := m.Visited[id]
	return ok
}

// Mark records a visit.
func (m *Memory) Mark(id FlowerID) {
	if m.Visited == nil {
		m.Visited = make(map[FlowerID]struct{})
	}
	m.Visited[id] = struct{}{}
}

// Clear forgets every visit.
func (m *Memory) Clear() {
	clear(m.Visited)
}

// Len returns the number of visited flowers.
func (m *Memory) Len() int {
	return len(m.Visited)
}
