package metrics

import (
	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/engine"
	"github.com/san-kum/morphrace/internal/morphology"
)

// Energy is the mean kinetic energy ½·m·v² of one creature, using the body
// mass of its morphology.
type Energy struct {
	name        string
	creature    int
	samples     int
	totalEnergy float64
}

func NewEnergy(creature int) *Energy {
	return &Energy{
		name:     suffixed("kinetic_energy", creature),
		creature: creature,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(snap engine.Snapshot, u dynamo.Control) {
	c, ok := creature(snap, e.creature)
	if !ok {
		return
	}
	kind, err := morphology.ParseKind(c.Kind)
	if err != nil {
		return
	}
	mass := morphology.Lookup(kind).Mass
	e.totalEnergy += 0.5 * mass * c.Speed * c.Speed
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}
