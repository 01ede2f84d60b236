// Package automation runs scripted batches of headless sessions described
// in YAML scenario files.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/morphrace/internal/config"
	"github.com/san-kum/morphrace/internal/metrics"
	"github.com/san-kum/morphrace/internal/sim"
	"github.com/san-kum/morphrace/internal/storage"
	"gopkg.in/yaml.v3"
)

// Scenario is a named list of sessions run one after another.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one session. It starts from the default config, or from
// Preset when set, and applies Config on top:
//
//	- name: rope duel
//	  mode: contest
//	  preset: rope
//	  config:
//	    opponent: hexapod
//	    run: {duration: 20}
//	  save: true
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Mode   string    `yaml:"mode"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
	Save   bool      `yaml:"save"`
}

// StepResult is the outcome of one step. RunID is empty unless the step
// was saved.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *sim.Result
	RunID  string
}

type Options struct {
	Store  *storage.Store
	Logger *slog.Logger
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Resolve builds the step's validated config.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Mode != "" {
		cfg.Mode = s.Mode
	}
	if s.Preset != "" {
		p := config.GetPreset(cfg.Mode, s.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets(cfg.Mode))
		}
		cfg = p
	}
	if !s.Config.IsZero() {
		if err := s.Config.Decode(cfg); err != nil {
			return nil, err
		}
	}
	if s.Mode != "" {
		cfg.Mode = s.Mode
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes all steps in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, opts Options) ([]StepResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step %d", i+1)
		}
		logger.Info("running step", "scenario", scenario.Name, "step", name, "index", i+1, "of", len(scenario.Steps))

		res, err := runStep(ctx, step, opts, logger)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}
		res.Name = name
		results = append(results, res)
	}

	return results, nil
}

func runStep(ctx context.Context, step ScenarioStep, opts Options, logger *slog.Logger) (StepResult, error) {
	cfg, err := step.Resolve()
	if err != nil {
		return StepResult{}, err
	}
	eng, err := cfg.NewEngine(logger)
	if err != nil {
		return StepResult{}, err
	}
	script, err := sim.ScriptByName(cfg.Run.Script)
	if err != nil {
		return StepResult{}, err
	}

	s := sim.New(eng, script)
	for _, m := range metrics.Default(cfg.Mode) {
		s.AddMetric(m)
	}
	result, err := s.Run(ctx, sim.Config{Dt: cfg.Run.Dt, Duration: cfg.Run.Duration})
	if err != nil {
		return StepResult{}, err
	}

	out := StepResult{Config: cfg, Result: result}
	if step.Save && opts.Store != nil {
		meta := storage.RunMetadata{
			Mode:       cfg.Mode,
			Morphology: cfg.Morphology.String(),
			Dt:         cfg.Run.Dt,
			Duration:   cfg.Run.Duration,
			Script:     cfg.Run.Script,
			Policy:     cfg.Policy.Args != "",
		}
		if cfg.Mode == "contest" {
			meta.Opponent = cfg.Opponent.String()
		}
		if out.RunID, err = opts.Store.Save(meta, result); err != nil {
			return StepResult{}, err
		}
	}
	return out, nil
}
