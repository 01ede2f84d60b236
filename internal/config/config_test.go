package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/morphrace/internal/morphology"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "race" {
		t.Errorf("expected mode race, got %s", cfg.Mode)
	}
	if cfg.Laps != 3 {
		t.Errorf("expected 3 laps, got %d", cfg.Laps)
	}
	if cfg.Run.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("contest", "rope")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Contest.RopeStiffness != 0.5 {
		t.Errorf("expected rope stiffness 0.5, got %f", cfg.Contest.RopeStiffness)
	}
	if cfg.Opponent != morphology.Hexapod {
		t.Errorf("expected hexapod opponent, got %s", cfg.Opponent)
	}

	cfg.Contest.RopeStiffness = 99
	cfg.Contest.PolicySlots[0] = 1
	again := GetPreset("contest", "rope")
	if again.Contest.RopeStiffness != 0.5 || again.Contest.PolicySlots[0] != 2 {
		t.Error("mutating a preset copy leaked into the preset table")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("race", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "sprint")
	if cfg != nil {
		t.Error("expected nil for nonexistent mode")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("race")
	if len(presets) != 3 || presets[0] != "endurance" {
		t.Errorf("expected sorted race presets, got %v", presets)
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent mode")
	}
}

func TestPresetsValidate(t *testing.T) {
	for mode, byName := range Presets {
		for name, cfg := range byName {
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", mode, name, err)
			}
			if cfg.Mode != mode {
				t.Errorf("%s/%s: expected mode %s, got %s", mode, name, mode, cfg.Mode)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "derby" }},
		{"zero laps", func(c *Config) { c.Laps = 0 }},
		{"zero dt", func(c *Config) { c.Run.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Run.Duration = -1 }},
		{"finish behind start", func(c *Config) { c.Contest.FinishLine = -20 }},
		{"negative rope", func(c *Config) { c.Contest.RopeSlack = -1 }},
		{"bad slot", func(c *Config) { c.Contest.PolicySlots = []int{3} }},
		{"bad bot", func(c *Config) { c.Contest.Bots = []int{0} }},
		{"zero tick rate", func(c *Config) { c.Server.TickRate = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "morphrace.yaml")
	cfg := GetPreset("contest", "classic")
	cfg.Contest.Bots = []int{1}

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Mode != "contest" || loaded.Opponent != morphology.Quadruped {
		t.Errorf("expected contest vs quadruped, got %s vs %s", loaded.Mode, loaded.Opponent)
	}
	if len(loaded.Contest.Bots) != 1 || loaded.Contest.Bots[0] != 1 {
		t.Errorf("expected bots [1], got %v", loaded.Contest.Bots)
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := GetPreset("contest", "rope")
	ec := cfg.EngineConfig(nil)
	if ec.Rope.Slack != 6 || ec.Rope.Stiffness != 0.5 {
		t.Errorf("expected rope 6/0.5, got %+v", ec.Rope)
	}
	if ec.Gait == nil || ec.NoGait {
		t.Error("expected gait enabled")
	}

	cfg.SoftBody.Gait.Enabled = false
	ec = cfg.EngineConfig(nil)
	if !ec.NoGait {
		t.Error("expected gait disabled")
	}
}

func TestPolicyAndMeshText(t *testing.T) {
	cfg := DefaultConfig()
	if _, _, ok, err := cfg.PolicyText(); ok || err != nil {
		t.Errorf("expected no policy, got ok=%v err=%v", ok, err)
	}
	cfg.Mesh = filepath.Join(t.TempDir(), "missing.json")
	if _, _, err := cfg.MeshText(); err == nil {
		t.Error("expected error for missing mesh file")
	}
}
