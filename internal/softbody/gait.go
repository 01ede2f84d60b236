package softbody

import (
	"math"

	"github.com/san-kum/morphrace/internal/dynamo"
)

// Gait is the speed-driven vertical bobbing applied to mesh nodes.
// It is a pure function of time, rest position and speed.
type Gait struct {
	Amplitude  float64 // vertical offset per unit of speed
	Frequency  float64 // Hz, independent of speed
	PhaseScale float64 // radians of phase per unit of rest x
}

// DefaultGait returns a gentle wobble tuned for creatures a few units long.
func DefaultGait(frequency float64) *Gait {
	return &Gait{
		Amplitude:  0.004,
		Frequency:  frequency,
		PhaseScale: 2.0,
	}
}

// Offset is the vertical displacement of a node whose rest x is restX.
func (g *Gait) Offset(restX, speed, t float64) float64 {
	if g == nil {
		return 0
	}
	phase := 2*math.Pi*g.Frequency*t + g.PhaseScale*restX
	return g.Amplitude * math.Abs(speed) * dynamo.FastSin(phase)
}
