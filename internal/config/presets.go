package config

import (
	"sort"

	"github.com/san-kum/morphrace/internal/morphology"
)

// Presets are keyed by mode, then preset name.
var Presets = map[string]map[string]*Config{
	"race": {
		"sprint": preset(func(c *Config) {
			c.Mode, c.Laps = "race", 1
			c.Run.Duration, c.Run.Script = 20, "circle"
		}),
		"endurance": preset(func(c *Config) {
			c.Mode, c.Laps = "race", 10
			c.Morphology = morphology.Hexapod
			c.Run.Duration, c.Run.Script = 180, "circle"
		}),
		"reverse": preset(func(c *Config) {
			c.Mode, c.Laps = "race", 2
			c.Run.Duration, c.Run.Script = 60, "reverse"
		}),
	},
	"contest": {
		"classic": preset(func(c *Config) {
			c.Mode = "contest"
			c.Opponent = morphology.Quadruped
			c.Run.Duration, c.Run.Script = 30, "duel"
		}),
		"rope": preset(func(c *Config) {
			c.Mode = "contest"
			c.Opponent = morphology.Hexapod
			c.Contest.RopeSlack, c.Contest.RopeStiffness = 6, 0.5
			c.Run.Duration, c.Run.Script = 30, "duel"
		}),
		"bot": preset(func(c *Config) {
			c.Mode = "contest"
			c.Contest.Bots = []int{2}
			c.Run.Duration, c.Run.Script = 30, "forward"
		}),
	},
}

func preset(apply func(*Config)) *Config {
	c := DefaultConfig()
	apply(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(mode, preset string) *Config {
	modePresets, ok := Presets[mode]
	if !ok {
		return nil
	}
	cfg, ok := modePresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names for mode in sorted order.
func ListPresets(mode string) []string {
	modePresets, ok := Presets[mode]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modePresets))
	for name := range modePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
