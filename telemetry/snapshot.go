package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the world state of one run at one tick.
type Snapshot struct {
	Version     int    `json:"version"`
	RunID       string `json:"run_id,omitempty"`
	Seed        int64  `json:"seed"`
	Arrangement string `json:"arrangement"`

	WorldWidth  float64 `json:"world_width"`
	WorldHeight float64 `json:"world_height"`

	Tick          int     `json:"tick"`
	SimTime       float64 `json:"sim_time"`
	Weather       string  `json:"weather"`
	FullHiveBouts int     `json:"full_hive_bouts"`
	TotalBouts    int     `json:"total_bouts"`

	ColonyX float64 `json:"colony_x"`
	ColonyY float64 `json:"colony_y"`

	Agents    []AgentState    `json:"agents"`
	Flowers   []FlowerState   `json:"flowers"`
	Obstacles []ObstacleState `json:"obstacles,omitempty"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState holds one forager's state.
type AgentState struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	Speed   float64 `json:"speed"`
	Energy  float64 `json:"energy"`
	State   string  `json:"state"`
	Bouts   int     `json:"bouts"`
}

// FlowerState holds one flower.
type FlowerState struct {
	ID      uint64  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Nectar  float64 `json:"nectar"`
	Special bool    `json:"special,omitempty"`
}

// ObstacleState holds one square obstacle.
type ObstacleState struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, snapshot.Bookmark.Type)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
