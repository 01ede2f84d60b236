package engine

import (
	"log/slog"
	"math"

	"github.com/san-kum/morphrace/internal/control"
	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/locomotion"
	"github.com/san-kum/morphrace/internal/race"
	"github.com/san-kum/morphrace/internal/softbody"
)

const (
	driverKeys      = "keys"
	driverPolicy    = "policy"
	driverAutopilot = "autopilot"
)

// RaceEngine is the single-creature lap race backend.
type RaceEngine struct {
	cfg    Config
	log    *slog.Logger
	race   *race.Race
	body   *locomotion.Integrator
	keys   *control.Keys
	policy *control.Policy
	last   dynamo.Control
}

func NewRace(cfg Config) *RaceEngine {
	cfg.Mode = ModeRace
	return &RaceEngine{
		cfg:  cfg,
		log:  cfg.logger().With("mode", ModeRace),
		race: race.New(cfg.Laps),
		body: locomotion.New(cfg.Morphology, locomotion.RaceSpawn),
		keys: control.NewKeys(control.RaceKeys),
	}
}

func (e *RaceEngine) Mode() string { return ModeRace }

// LoadPolicy replaces the key map with a policy. On error the previous
// policy, if any, stays active.
func (e *RaceEngine) LoadPolicy(args, weights string) error {
	m, err := loadModel(args, weights)
	if err != nil {
		return err
	}
	e.policy = control.NewPolicy(m)
	e.log.Debug("policy loaded", "model", m.String())
	return nil
}

// InitSimulation attaches a soft-body mesh built from meshJSON. On error the
// previous mesh, if any, stays attached.
func (e *RaceEngine) InitSimulation(meshJSON string) error {
	m, err := softbody.Parse([]byte(meshJSON), e.cfg.SoftBody)
	if err != nil {
		return err
	}
	m.SetGait(e.cfg.gait(e.body.Kind()))
	e.body.Attach(m)
	e.log.Debug("mesh attached", "nodes", m.NodeCount(), "edges", m.EdgeCount())
	return nil
}

func (e *RaceEngine) Start(now float64) {
	if err := e.race.Start(now); err != nil {
		e.log.Debug("start ignored", "err", err)
	}
}

func (e *RaceEngine) Update(delta, now float64, keys []string) {
	if e.race.Status() != race.Running {
		return
	}
	e.keys.Held = keys
	src, _ := e.source()
	c := src.Compute(e.observe())
	e.last = c
	e.body.Update(c, delta)
	e.race.Advance(now, e.body.TotalHeading())
}

// source returns the loaded policy, or the race key map without one.
func (e *RaceEngine) source() (control.Source, string) {
	if e.policy != nil {
		return e.policy, driverPolicy
	}
	return e.keys, driverKeys
}

func (e *RaceEngine) observe() control.Observation {
	p := e.body.Profile()
	h := e.body.Heading()
	total := 2 * math.Pi * float64(e.race.TotalLaps())
	return control.Observation{
		Speed:        e.body.Speed() / p.MaxSpeed,
		SinHeading:   math.Sin(h),
		CosHeading:   math.Cos(h),
		Progress:     e.race.Progress(e.body.TotalHeading()),
		GoalDistance: (total - math.Abs(e.body.TotalHeading())) / total,
		Time:         e.race.Elapsed(),
	}
}

func (e *RaceEngine) Snapshot() Snapshot {
	_, driver := e.source()
	s := Snapshot{
		Mode:      ModeRace,
		Time:      e.race.Elapsed(),
		Started:   e.race.Started(),
		Completed: e.race.Completed(),
		Lap:       e.race.Lap(),
		TotalLaps: e.race.TotalLaps(),
		Splits:    e.race.Splits(),
		Creatures: []CreatureSnapshot{snapshotCreature(e.body, e.last, driver)},
	}
	if nodes := meshNodes(e.body); nodes != nil {
		s.Nodes = [][]dynamo.Vec2{nodes}
	}
	return s
}

func (e *RaceEngine) CurrentTime() float64    { return e.race.Elapsed() }
func (e *RaceEngine) Lap() int                { return e.race.Lap() }
func (e *RaceEngine) TotalLaps() int          { return e.race.TotalLaps() }
func (e *RaceEngine) Position() dynamo.Vec3   { return e.body.Position() }
func (e *RaceEngine) Heading() float64        { return e.body.Heading() }
func (e *RaceEngine) Speed() float64          { return e.body.Speed() }
func (e *RaceEngine) Started() bool           { return e.race.Started() }
func (e *RaceEngine) Completed() bool         { return e.race.Completed() }
func (e *RaceEngine) LastHeading() float64    { return e.body.LastHeadingDelta() }
func (e *RaceEngine) TotalHeading() float64   { return e.body.TotalHeading() }
func (e *RaceEngine) HasPolicy() bool         { return e.policy != nil }
func (e *RaceEngine) Splits() []float64       { return e.race.Splits() }
func (e *RaceEngine) Control() dynamo.Control { return e.last }

// NodePositions returns the mesh nodes, or nil before InitSimulation.
func (e *RaceEngine) NodePositions() []dynamo.Vec2 { return meshNodes(e.body) }

// Edges returns the mesh edges as index pairs, or nil before InitSimulation.
func (e *RaceEngine) Edges() [][2]int { return meshEdges(e.body) }

func meshEdges(it *locomotion.Integrator) [][2]int {
	m := it.Mesh()
	if m == nil {
		return nil
	}
	edges := m.Edges()
	out := make([][2]int, len(edges))
	for i, ed := range edges {
		out[i] = [2]int{ed.A, ed.B}
	}
	return out
}
