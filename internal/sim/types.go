package sim

import (
	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/engine"
)

// Metric accumulates a scalar over a run. Observe receives every frame's
// snapshot and the control the lead creature applied.
type Metric interface {
	Name() string
	Observe(snap engine.Snapshot, u dynamo.Control)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(step int, t float64, snap engine.Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(step int, t float64, snap engine.Snapshot)

func (f ObserverFunc) OnFrame(step int, t float64, snap engine.Snapshot) { f(step, t, snap) }

type Config struct {
	Dt       float64
	Duration float64

	// RecordMesh keeps mesh nodes in recorded frames. Off by default since
	// node lists dominate memory on long runs.
	RecordMesh bool
}

type Result struct {
	Frames     []engine.Snapshot
	Times      []float64
	Keys       [][]string
	Metrics    map[string]float64
	Completed  bool
	StepsTaken int
}

// Final returns the last recorded frame.
func (r *Result) Final() engine.Snapshot {
	if len(r.Frames) == 0 {
		return engine.Snapshot{}
	}
	return r.Frames[len(r.Frames)-1]
}
