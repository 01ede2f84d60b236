package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/engine"
)

// TopSpeed is the largest |speed| seen.
type TopSpeed struct {
	name     string
	creature int
	max      float64
}

func NewTopSpeed(creature int) *TopSpeed {
	return &TopSpeed{name: suffixed("top_speed", creature), creature: creature}
}

func (s *TopSpeed) Name() string { return s.name }

func (s *TopSpeed) Observe(snap engine.Snapshot, u dynamo.Control) {
	if c, ok := creature(snap, s.creature); ok {
		s.max = math.Max(s.max, math.Abs(c.Speed))
	}
}

func (s *TopSpeed) Value() float64 { return s.max }
func (s *TopSpeed) Reset()         { s.max = 0 }

// MeanSpeed is the average |speed| over observed frames.
type MeanSpeed struct {
	name     string
	creature int
	sum      float64
	samples  int
}

func NewMeanSpeed(creature int) *MeanSpeed {
	return &MeanSpeed{name: suffixed("mean_speed", creature), creature: creature}
}

func (s *MeanSpeed) Name() string { return s.name }

func (s *MeanSpeed) Observe(snap engine.Snapshot, u dynamo.Control) {
	if c, ok := creature(snap, s.creature); ok {
		s.sum += math.Abs(c.Speed)
		s.samples++
	}
}

func (s *MeanSpeed) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *MeanSpeed) Reset() {
	s.sum = 0
	s.samples = 0
}

// Distance is the ground path length in the x/z plane.
type Distance struct {
	name     string
	creature int
	total    float64
	last     dynamo.Vec3
	seen     bool
}

func NewDistance(creature int) *Distance {
	return &Distance{name: suffixed("distance", creature), creature: creature}
}

func (d *Distance) Name() string { return d.name }

func (d *Distance) Observe(snap engine.Snapshot, u dynamo.Control) {
	c, ok := creature(snap, d.creature)
	if !ok {
		return
	}
	if d.seen {
		d.total += c.Position.Sub(d.last).Planar()
	}
	d.last = c.Position
	d.seen = true
}

func (d *Distance) Value() float64 { return d.total }

func (d *Distance) Reset() {
	d.total = 0
	d.seen = false
}

func creature(snap engine.Snapshot, i int) (engine.CreatureSnapshot, bool) {
	if i < 0 || i >= len(snap.Creatures) {
		return engine.CreatureSnapshot{}, false
	}
	return snap.Creatures[i], true
}

// suffixed names metrics for creatures after the first, e.g. top_speed_2.
func suffixed(name string, creature int) string {
	if creature == 0 {
		return name
	}
	return fmt.Sprintf("%s_%d", name, creature+1)
}
