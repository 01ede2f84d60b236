package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/morphrace/internal/contest"
	"github.com/san-kum/morphrace/internal/engine"
	"github.com/san-kum/morphrace/internal/morphology"
	"github.com/san-kum/morphrace/internal/softbody"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMode     = engine.ModeRace
	DefaultLaps     = 3
	DefaultDt       = 1.0 / 60.0
	DefaultDuration = 60.0
	DefaultScript   = "circle"
	DefaultAddr     = ":8000"
	DefaultTickRate = 60
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Mode       string          `yaml:"mode"`
	Morphology morphology.Kind `yaml:"morphology"`
	Opponent   morphology.Kind `yaml:"opponent"`
	Laps       int             `yaml:"laps"`
	Contest    ContestConfig   `yaml:"contest"`
	SoftBody   SoftBodyConfig  `yaml:"soft_body"`
	Run        RunConfig       `yaml:"run"`
	Policy     PolicyConfig    `yaml:"policy"`
	Mesh       string          `yaml:"mesh"`
	Server     ServerConfig    `yaml:"server"`
}

type ContestConfig struct {
	FinishLine    float64 `yaml:"finish_line"`
	RopeSlack     float64 `yaml:"rope_slack"`
	RopeStiffness float64 `yaml:"rope_stiffness"`
	PolicySlots   []int   `yaml:"policy_slots"`
	Bots          []int   `yaml:"bots"`
}

type SoftBodyConfig struct {
	Stiffness     float64    `yaml:"stiffness"`
	Damping       float64    `yaml:"damping"`
	NodeMass      float64    `yaml:"node_mass"`
	LinearDamping float64    `yaml:"linear_damping"`
	MaxSubstep    float64    `yaml:"max_substep"`
	Ground        bool       `yaml:"ground"`
	GroundY       float64    `yaml:"ground_y"`
	Gait          GaitConfig `yaml:"gait"`
}

// GaitConfig tunes the mesh wobble. A zero Frequency uses the morphology's
// natural gait frequency.
type GaitConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Amplitude  float64 `yaml:"amplitude"`
	Frequency  float64 `yaml:"frequency"`
	PhaseScale float64 `yaml:"phase_scale"`
}

type RunConfig struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	Script   string  `yaml:"script"`
}

// PolicyConfig names the architecture and weight files of a policy.
type PolicyConfig struct {
	Args    string `yaml:"args"`
	Weights string `yaml:"weights"`
}

type ServerConfig struct {
	Addr     string `yaml:"addr"`
	TickRate int    `yaml:"tick_rate"`
}

func DefaultConfig() *Config {
	sb := softbody.DefaultParams()
	g := softbody.DefaultGait(0)
	return &Config{
		Mode:       DefaultMode,
		Morphology: morphology.Biped,
		Opponent:   morphology.Biped,
		Laps:       DefaultLaps,
		Contest: ContestConfig{
			FinishLine:  contest.DefaultFinishLine,
			PolicySlots: []int{2},
		},
		SoftBody: SoftBodyConfig{
			Stiffness:     sb.Stiffness,
			Damping:       sb.Damping,
			NodeMass:      sb.NodeMass,
			LinearDamping: sb.LinearDamping,
			MaxSubstep:    sb.MaxSubstep,
			Gait: GaitConfig{
				Enabled:    true,
				Amplitude:  g.Amplitude,
				PhaseScale: g.PhaseScale,
			},
		},
		Run: RunConfig{
			Dt:       DefaultDt,
			Duration: DefaultDuration,
			Script:   DefaultScript,
		},
		Server: ServerConfig{
			Addr:     DefaultAddr,
			TickRate: DefaultTickRate,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Contest.PolicySlots = append([]int(nil), c.Contest.PolicySlots...)
	out.Contest.Bots = append([]int(nil), c.Contest.Bots...)
	return &out
}

func (c *Config) Validate() error {
	known := false
	for _, m := range engine.Modes() {
		known = known || m == c.Mode
	}
	switch {
	case !known:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalid, c.Mode)
	case c.Laps < 1:
		return fmt.Errorf("%w: laps must be at least 1, got %d", ErrInvalid, c.Laps)
	case c.Run.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, c.Run.Dt)
	case c.Run.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, c.Run.Duration)
	case c.Contest.FinishLine <= contest.StartX:
		return fmt.Errorf("%w: finish line %g is behind the start at %g", ErrInvalid, c.Contest.FinishLine, contest.StartX)
	case c.Contest.RopeSlack < 0 || c.Contest.RopeStiffness < 0:
		return fmt.Errorf("%w: rope slack and stiffness must be non-negative", ErrInvalid)
	case c.SoftBody.Stiffness < 0 || c.SoftBody.Damping < 0 || c.SoftBody.NodeMass < 0:
		return fmt.Errorf("%w: soft body constants must be non-negative", ErrInvalid)
	case c.Server.TickRate <= 0:
		return fmt.Errorf("%w: tick rate must be positive, got %d", ErrInvalid, c.Server.TickRate)
	}
	for _, slots := range [][]int{c.Contest.PolicySlots, c.Contest.Bots} {
		for _, s := range slots {
			if s != 1 && s != 2 {
				return fmt.Errorf("%w: creature slot %d does not exist", ErrInvalid, s)
			}
		}
	}
	return nil
}

// EngineConfig translates the file layout into engine construction options.
func (c *Config) EngineConfig(logger *slog.Logger) engine.Config {
	sb := c.SoftBody
	ec := engine.Config{
		Mode:       c.Mode,
		Morphology: c.Morphology,
		Opponent:   c.Opponent,
		Laps:       c.Laps,
		FinishLine: c.Contest.FinishLine,
		Rope: contest.Rope{
			Slack:     c.Contest.RopeSlack,
			Stiffness: c.Contest.RopeStiffness,
		},
		PolicySlots: append([]int(nil), c.Contest.PolicySlots...),
		Bots:        append([]int(nil), c.Contest.Bots...),
		SoftBody: softbody.Params{
			Stiffness:     sb.Stiffness,
			Damping:       sb.Damping,
			NodeMass:      sb.NodeMass,
			LinearDamping: sb.LinearDamping,
			MaxSubstep:    sb.MaxSubstep,
			Ground:        sb.Ground,
			GroundY:       sb.GroundY,
		},
		NoGait: !sb.Gait.Enabled,
		Logger: logger,
	}
	if sb.Gait.Enabled {
		ec.Gait = &softbody.Gait{
			Amplitude:  sb.Gait.Amplitude,
			Frequency:  sb.Gait.Frequency,
			PhaseScale: sb.Gait.PhaseScale,
		}
	}
	return ec
}

// PolicyText reads the configured policy files. ok is false when no policy
// is configured.
func (c *Config) PolicyText() (args, weights string, ok bool, err error) {
	if c.Policy.Args == "" && c.Policy.Weights == "" {
		return "", "", false, nil
	}
	a, err := os.ReadFile(c.Policy.Args)
	if err != nil {
		return "", "", false, fmt.Errorf("read policy args: %w", err)
	}
	w, err := os.ReadFile(c.Policy.Weights)
	if err != nil {
		return "", "", false, fmt.Errorf("read policy weights: %w", err)
	}
	return string(a), string(w), true, nil
}

// MeshText reads the configured mesh file. ok is false when no mesh is
// configured.
func (c *Config) MeshText() (string, bool, error) {
	if c.Mesh == "" {
		return "", false, nil
	}
	data, err := os.ReadFile(c.Mesh)
	if err != nil {
		return "", false, fmt.Errorf("read mesh: %w", err)
	}
	return string(data), true, nil
}

// NewEngine builds the configured engine and loads its mesh and policy.
func (c *Config) NewEngine(logger *slog.Logger) (engine.Engine, error) {
	eng, err := engine.New(c.EngineConfig(logger))
	if err != nil {
		return nil, err
	}
	mesh, ok, err := c.MeshText()
	if err != nil {
		return nil, err
	}
	if ok {
		if err := eng.InitSimulation(mesh); err != nil {
			return nil, err
		}
	}
	args, weights, ok, err := c.PolicyText()
	if err != nil {
		return nil, err
	}
	if ok {
		if err := eng.LoadPolicy(args, weights); err != nil {
			return nil, err
		}
	}
	return eng, nil
}
