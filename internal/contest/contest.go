// Package contest is the two-creature tug-of-war: both creatures start side
// by side and the first to cross the finish line wins. An optional rope
// keeps them from drifting too far apart.
package contest

import (
	"fmt"
	"math"

	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/locomotion"
	"github.com/san-kum/morphrace/internal/morphology"
)

const (
	DefaultFinishLine = 20.0
	StartX            = -10.0
	StartY            = 1.0
	LaneOffset        = 2.0
)

// Winner identifies the creature that crossed first.
type Winner uint8

const (
	NoWinner Winner = iota
	Creature1
	Creature2
)

func (w Winner) String() string {
	switch w {
	case NoWinner:
		return "none"
	case Creature1:
		return "creature-1"
	case Creature2:
		return "creature-2"
	default:
		return fmt.Sprintf("winner(%d)", uint8(w))
	}
}

// Rope couples the creatures along x. When their x gap exceeds Slack both
// are pulled toward each other by excess·min(1, Stiffness·dt)/2.
// A zero Stiffness disables the rope.
type Rope struct {
	Slack     float64 `yaml:"slack" json:"slack"`
	Stiffness float64 `yaml:"stiffness" json:"stiffness"`
}

func (r Rope) Enabled() bool { return r.Stiffness > 0 }

type Options struct {
	FinishLine float64 // x coordinate; 0 means DefaultFinishLine
	Coupling   Rope
}

// Contest runs two integrators against a shared clock.
type Contest struct {
	opts      Options
	creatures [2]*locomotion.Integrator
	started   bool
	completed bool
	winner    Winner
	start     float64
	elapsed   float64
}

// Spawns returns the starting poses of creature 1 and creature 2. Both face
// +x, so forward motion heads toward the finish line.
func Spawns() [2]locomotion.Spawn {
	return [2]locomotion.Spawn{
		{Position: dynamo.Vec3{X: StartX, Y: StartY, Z: LaneOffset}, Heading: math.Pi / 2},
		{Position: dynamo.Vec3{X: StartX, Y: StartY, Z: -LaneOffset}, Heading: math.Pi / 2},
	}
}

func New(kind1, kind2 morphology.Kind, opts Options) *Contest {
	if opts.FinishLine == 0 || !dynamo.Finite(opts.FinishLine) {
		opts.FinishLine = DefaultFinishLine
	}
	sp := Spawns()
	return &Contest{
		opts: opts,
		creatures: [2]*locomotion.Integrator{
			locomotion.New(kind1, sp[0]),
			locomotion.New(kind2, sp[1]),
		},
	}
}

// Start begins the shared timer. It fails with dynamo.ErrInvalidTransition
// once the contest has started.
func (c *Contest) Start(now float64) error {
	if c.started {
		return dynamo.Errorf("start contest", dynamo.ErrInvalidTransition, "already started")
	}
	c.started = true
	c.start = now
	c.elapsed = 0
	return nil
}

// Step advances both creatures by dt under their controls and settles the
// winner. It does nothing before Start or after a winner is latched.
func (c *Contest) Step(now float64, c1, c2 dynamo.Control, dt float64) {
	if !c.Running() {
		return
	}
	if dynamo.Finite(now) {
		c.elapsed = (now - c.start) / 1000
	}
	dt = dynamo.SanitizeDt(dt)

	c.creatures[0].Update(c1, dt)
	c.creatures[1].Update(c2, dt)
	c.couple(dt)

	// creature 1 takes a same-tick tie
	switch {
	case c.crossed(0):
		c.finish(Creature1)
	case c.crossed(1):
		c.finish(Creature2)
	}
}

func (c *Contest) couple(dt float64) {
	rope := c.opts.Coupling
	if !rope.Enabled() || dt == 0 {
		return
	}
	a, b := c.creatures[0], c.creatures[1]
	gap := a.Position().X - b.Position().X
	excess := math.Abs(gap) - rope.Slack
	if excess <= 0 {
		return
	}
	pull := excess * math.Min(1, rope.Stiffness*dt) / 2
	if gap > 0 {
		pull = -pull
	}
	a.Shift(dynamo.Vec3{X: pull})
	b.Shift(dynamo.Vec3{X: -pull})
}

func (c *Contest) crossed(i int) bool {
	return c.creatures[i].Position().X > c.opts.FinishLine
}

func (c *Contest) finish(w Winner) {
	c.winner = w
	c.completed = true
}

// Creature returns creature i (1 or 2). Other indices return nil.
func (c *Contest) Creature(i int) *locomotion.Integrator {
	if i < 1 || i > 2 {
		return nil
	}
	return c.creatures[i-1]
}

// Lead is creature 1's x advantage over creature 2.
func (c *Contest) Lead() float64 {
	return c.creatures[0].Position().X - c.creatures[1].Position().X
}

func (c *Contest) Winner() Winner      { return c.winner }
func (c *Contest) Elapsed() float64    { return c.elapsed }
func (c *Contest) StartTime() float64  { return c.start }
func (c *Contest) Started() bool       { return c.started }
func (c *Contest) Completed() bool     { return c.completed }
func (c *Contest) Running() bool       { return c.started && !c.completed }
func (c *Contest) FinishLine() float64 { return c.opts.FinishLine }
func (c *Contest) Coupling() Rope      { return c.opts.Coupling }
