package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/engine"
)

// Simulator drives an engine headlessly with a key script on a fixed
// timestep. Simulated time t maps to host time t·1000 ms.
type Simulator struct {
	eng       engine.Engine
	script    Script
	metrics   []Metric
	observers []Observer
}

func New(eng engine.Engine, script Script) *Simulator {
	if script == nil {
		script = Idle
	}
	return &Simulator{
		eng:       eng,
		script:    script,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Engine() engine.Engine { return s.eng }

// Run starts the engine at t=0 and steps it until cfg.Duration elapses or
// the engine reports completion.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Dt + 1e-9)
	result := &Result{
		Frames:  make([]engine.Snapshot, 0, steps+1),
		Times:   make([]float64, 0, steps+1),
		Keys:    make([][]string, 0, steps),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.eng.Start(0)
	snap := s.eng.Snapshot()
	result.Frames = append(result.Frames, s.record(snap, cfg))
	result.Times = append(result.Times, 0)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		keys := s.script.Keys(t, snap)
		next := float64(i+1) * cfg.Dt
		s.eng.Update(cfg.Dt, next*1000, keys)
		snap = s.eng.Snapshot()

		u := leadControl(snap)
		for _, m := range s.metrics {
			m.Observe(snap, u)
		}
		for _, obs := range s.observers {
			obs.OnFrame(i+1, next, snap)
		}

		result.StepsTaken++
		result.Frames = append(result.Frames, s.record(snap, cfg))
		result.Times = append(result.Times, next)
		result.Keys = append(result.Keys, keys)

		if snap.Completed {
			result.Completed = true
			break
		}
	}

	s.finish(result)
	return result, nil
}

// RunWithCallback steps like Run without recording. The callback sees every
// frame and may stop the run by returning false.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(t float64, snap engine.Snapshot) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	s.eng.Start(0)
	snap := s.eng.Snapshot()
	for t := 0.0; t < cfg.Duration; t += cfg.Dt {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(t, snap) || snap.Completed {
			return nil
		}
		s.eng.Update(cfg.Dt, (t+cfg.Dt)*1000, s.script.Keys(t, snap))
		snap = s.eng.Snapshot()
	}
	return nil
}

func (s *Simulator) record(snap engine.Snapshot, cfg Config) engine.Snapshot {
	if !cfg.RecordMesh {
		snap.Nodes = nil
	}
	return snap
}

func (s *Simulator) finish(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func leadControl(snap engine.Snapshot) dynamo.Control {
	if len(snap.Creatures) == 0 {
		return dynamo.Control{}
	}
	return snap.Creatures[0].Control
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
