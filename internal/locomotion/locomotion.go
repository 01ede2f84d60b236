// Package locomotion advances a creature's rigid pose from a normalized
// control signal using its morphology profile.
package locomotion

import (
	"math"

	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/morphology"
	"github.com/san-kum/morphrace/internal/softbody"
)

// ReferenceRate is the frame rate at which a profile's Drag factor is
// applied once per frame. Other frame rates decay by Drag^(dt·ReferenceRate).
const ReferenceRate = 60.0

// Spawn is the initial pose of a creature.
type Spawn struct {
	Position dynamo.Vec3
	Heading  float64
}

// RaceSpawn is where the single racer starts, facing +z.
var RaceSpawn = Spawn{Position: dynamo.Vec3{X: 10, Y: 1, Z: 0}}

// State is a read-only copy of a creature's pose.
type State struct {
	Kind             morphology.Kind `json:"kind"`
	Position         dynamo.Vec3     `json:"position"`
	Heading          float64         `json:"heading"`
	Speed            float64         `json:"speed"`
	LastHeadingDelta float64         `json:"last_heading_delta"`
	TotalHeading     float64         `json:"total_heading"`
}

// Integrator owns one creature's kinematic state.
type Integrator struct {
	profile morphology.Profile
	spawn   Spawn

	position     dynamo.Vec3
	heading      float64
	speed        float64
	lastDelta    float64
	totalHeading float64
	elapsed      float64

	mesh *softbody.Mesh
}

func New(kind morphology.Kind, spawn Spawn) *Integrator {
	it := &Integrator{
		profile: morphology.Lookup(kind),
		spawn:   spawn,
	}
	it.Reset()
	return it
}

// Reset returns the creature to its spawn pose. An attached mesh is kept.
func (it *Integrator) Reset() {
	it.position = it.spawn.Position
	it.heading = it.spawn.Heading
	it.speed = 0
	it.lastDelta = 0
	it.totalHeading = 0
	it.elapsed = 0
}

// Attach makes m follow the creature. nil detaches.
func (it *Integrator) Attach(m *softbody.Mesh) {
	it.mesh = m
}

func (it *Integrator) Mesh() *softbody.Mesh { return it.mesh }

// Update advances the pose by dt seconds under control c.
func (it *Integrator) Update(c dynamo.Control, dt float64) {
	dt = dynamo.SanitizeDt(dt)
	c = c.Clamp()
	p := it.profile

	if c.Throttle != 0 {
		target := c.Throttle * p.MaxSpeed
		step := p.Acceleration * dt
		switch {
		case it.speed < target:
			it.speed = math.Min(it.speed+step, target)
		case it.speed > target:
			it.speed = math.Max(it.speed-step, target)
		}
	} else {
		it.speed *= math.Pow(p.Drag, dt*ReferenceRate)
	}
	it.speed = dynamo.Clamp(it.speed, -p.MaxSpeed, p.MaxSpeed)

	dh := c.Turn * p.TurnRate * dt
	it.heading += dh
	it.lastDelta = dh
	it.totalHeading += dh

	d := it.speed * dt
	it.position.X += math.Sin(it.heading) * d
	it.position.Z += math.Cos(it.heading) * d
	it.elapsed += dt

	if it.mesh != nil {
		it.mesh.Step(dt, softbody.Drive{Speed: it.speed, Time: it.elapsed})
	}
}

// Shift translates the creature without touching speed or heading.
func (it *Integrator) Shift(d dynamo.Vec3) {
	it.position = it.position.Add(d)
}

func (it *Integrator) State() State {
	return State{
		Kind:             it.profile.Kind,
		Position:         it.position,
		Heading:          it.heading,
		Speed:            it.speed,
		LastHeadingDelta: it.lastDelta,
		TotalHeading:     it.totalHeading,
	}
}

func (it *Integrator) Kind() morphology.Kind       { return it.profile.Kind }
func (it *Integrator) Profile() morphology.Profile { return it.profile }
func (it *Integrator) Position() dynamo.Vec3       { return it.position }
func (it *Integrator) Heading() float64            { return it.heading }
func (it *Integrator) Speed() float64              { return it.speed }
func (it *Integrator) LastHeadingDelta() float64   { return it.lastDelta }
func (it *Integrator) TotalHeading() float64       { return it.totalHeading }
func (it *Integrator) Elapsed() float64            { return it.elapsed }
