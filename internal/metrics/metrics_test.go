package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/engine"
)

func frame(speed float64, pos dynamo.Vec3) engine.Snapshot {
	return engine.Snapshot{
		Creatures: []engine.CreatureSnapshot{{Kind: "biped", Speed: speed, Position: pos}},
	}
}

func TestSpeedMetrics(t *testing.T) {
	top, mean := NewTopSpeed(0), NewMeanSpeed(0)
	for _, s := range []float64{2, -6, 4} {
		top.Observe(frame(s, dynamo.Vec3{}), dynamo.Control{})
		mean.Observe(frame(s, dynamo.Vec3{}), dynamo.Control{})
	}
	if top.Value() != 6 {
		t.Errorf("expected top speed 6, got %f", top.Value())
	}
	if mean.Value() != 4 {
		t.Errorf("expected mean speed 4, got %f", mean.Value())
	}

	top.Reset()
	mean.Reset()
	if top.Value() != 0 || mean.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestDistance(t *testing.T) {
	d := NewDistance(0)
	for _, p := range []dynamo.Vec3{{X: 0, Y: 1}, {X: 3, Y: 5, Z: 4}, {X: 3, Y: 1, Z: 10}} {
		d.Observe(frame(0, p), dynamo.Control{})
	}
	if math.Abs(d.Value()-11) > 1e-12 {
		t.Errorf("expected 11, got %f", d.Value())
	}
}

func TestControlEffort(t *testing.T) {
	c := NewControlEffort()
	c.Observe(engine.Snapshot{}, dynamo.Control{Throttle: 1, Turn: -1})
	c.Observe(engine.Snapshot{}, dynamo.Control{})
	if c.Value() != 1 {
		t.Errorf("expected 1, got %f", c.Value())
	}
}

func TestEnergy(t *testing.T) {
	e := NewEnergy(0)
	e.Observe(frame(2, dynamo.Vec3{}), dynamo.Control{})
	// biped mass is 50
	if e.Value() != 100 {
		t.Errorf("expected 100, got %f", e.Value())
	}
}

func TestLapTime(t *testing.T) {
	l := NewLapTime()
	l.Observe(engine.Snapshot{Time: 1}, dynamo.Control{})
	if l.Value() != 0 {
		t.Errorf("expected 0 before completion, got %f", l.Value())
	}
	l.Observe(engine.Snapshot{Time: 2.5, Completed: true}, dynamo.Control{})
	l.Observe(engine.Snapshot{Time: 3, Completed: true}, dynamo.Control{})
	if l.Value() != 2.5 {
		t.Errorf("expected 2.5, got %f", l.Value())
	}
}

func TestLeadShare(t *testing.T) {
	l := NewLeadShare()
	snap := func(x1, x2 float64) engine.Snapshot {
		return engine.Snapshot{Creatures: []engine.CreatureSnapshot{
			{Position: dynamo.Vec3{X: x1}}, {Position: dynamo.Vec3{X: x2}},
		}}
	}
	l.Observe(snap(1, 0), dynamo.Control{})
	l.Observe(snap(0, 1), dynamo.Control{})
	l.Observe(snap(2, 1), dynamo.Control{})
	l.Observe(snap(5, 1), dynamo.Control{})
	if l.Value() != 0.75 {
		t.Errorf("expected 0.75, got %f", l.Value())
	}
}

func TestMissingCreatureIgnored(t *testing.T) {
	top := NewTopSpeed(1)
	top.Observe(frame(9, dynamo.Vec3{}), dynamo.Control{})
	if top.Value() != 0 {
		t.Errorf("expected 0, got %f", top.Value())
	}
	if top.Name() != "top_speed_2" {
		t.Errorf("expected top_speed_2, got %s", top.Name())
	}
}

func TestDefault(t *testing.T) {
	names := func(ms []Metric) map[string]bool {
		out := map[string]bool{}
		for _, m := range ms {
			out[m.Name()] = true
		}
		return out
	}
	race := names(Default(engine.ModeRace))
	if !race["top_speed"] || race["lead_share"] {
		t.Errorf("unexpected race metrics %v", race)
	}
	contest := names(Default(engine.ModeContest))
	if !contest["lead_share"] || !contest["distance_2"] {
		t.Errorf("unexpected contest metrics %v", contest)
	}
}
