package control

import (
	"math"

	"github.com/san-kum/morphrace/internal/dynamo"
)

// ObservationSize is the length of Observation.Vector and therefore the
// input size every policy must declare.
const ObservationSize = 6

// Source produces a control signal from the creature's current observation.
type Source interface {
	Compute(obs Observation) dynamo.Control
}

// Observation is the sensory state presented to control sources. The first
// six fields form the policy input vector; Time is bookkeeping for stateful
// sources.
type Observation struct {
	Speed        float64 // speed / max speed
	SinHeading   float64
	CosHeading   float64
	Progress     float64 // fraction of the goal achieved, [0, 1]
	GoalDistance float64 // signed distance to goal, normalized
	Proximity    float64 // opponent lead, normalized; 0 without an opponent

	Time float64 // seconds since start
}

// Vector flattens the observation in policy input order.
func (o Observation) Vector() []float64 {
	return []float64{o.Speed, o.SinHeading, o.CosHeading, o.Progress, o.GoalDistance, o.Proximity}
}

// Heading recovers the heading angle in (-π, π].
func (o Observation) Heading() float64 {
	return math.Atan2(o.SinHeading, o.CosHeading)
}
