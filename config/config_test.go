package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.World.Width != 800 || cfg.World.Height != 600 {
		t.Errorf("world = %vx%v, want 800x600", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Derived.GridCols != 40 || cfg.Derived.GridRows != 30 {
		t.Errorf("grid = %dx%d, want 40x30", cfg.Derived.GridCols, cfg.Derived.GridRows)
	}
	if cfg.Background.DyingMinInterval != time.Second {
		t.Errorf("dying_min_interval = %v, want 1s", cfg.Background.DyingMinInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("run:\n  agent_count: 3\n  arrangement: positive_v2\npheromone:\n  cell_size: 40\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.AgentCount != 3 {
		t.Errorf("agent_count = %d, want 3", cfg.Run.AgentCount)
	}
	if cfg.Run.Arrangement != "positive_v2" {
		t.Errorf("arrangement = %q, want positive_v2", cfg.Run.Arrangement)
	}
	// Untouched keys keep their defaults
	if cfg.Run.FlowerCount != 15 {
		t.Errorf("flower_count = %d, want default 15", cfg.Run.FlowerCount)
	}
	if cfg.Derived.GridCols != 20 || cfg.Derived.GridRows != 15 {
		t.Errorf("grid = %dx%d, want 20x15", cfg.Derived.GridCols, cfg.Derived.GridRows)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero agents", func(c *Config) { c.Run.AgentCount = 0 }, "run.agent_count"},
		{"negative agents", func(c *Config) { c.Run.AgentCount = -2 }, "run.agent_count"},
		{"negative flowers", func(c *Config) { c.Run.FlowerCount = -1 }, "run.flower_count"},
		{"empty arrangement", func(c *Config) { c.Run.Arrangement = "" }, "run.arrangement"},
		{"zero target", func(c *Config) { c.Run.TargetFullHiveBouts = 0 }, "run.target_full_hive_bouts"},
		{"bad decay", func(c *Config) { c.Pheromone.EvaporationRate = 1.5 }, "pheromone.evaporation_rate"},
		{"bad reduction", func(c *Config) { c.Fitness.Reduction = "random" }, "fitness.reduction"},
		{"zero dt", func(c *Config) { c.Run.DT = 0 }, "run.dt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate() = %v, want ErrInvalid", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("field = %v, want %s", err, tt.field)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Run.Seed = 7
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Run.Seed != 7 {
		t.Errorf("seed = %d, want 7", back.Run.Seed)
	}
	if back.Background.SpawnMaxInterval != 5*time.Second {
		t.Errorf("spawn_max_interval = %v, want 5s", back.Background.SpawnMaxInterval)
	}
}
