package metrics

import (
	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/engine"
)

// Metric matches sim.Metric.
type Metric interface {
	Name() string
	Observe(snap engine.Snapshot, u dynamo.Control)
	Value() float64
	Reset()
}

// Default returns the standard metric set for an engine mode.
func Default(mode string) []Metric {
	ms := []Metric{
		NewTopSpeed(0),
		NewMeanSpeed(0),
		NewDistance(0),
		NewEnergy(0),
		NewControlEffort(),
		NewLapTime(),
	}
	if mode == engine.ModeContest {
		ms = append(ms,
			NewTopSpeed(1),
			NewMeanSpeed(1),
			NewDistance(1),
			NewLeadShare(),
		)
	}
	return ms
}
