package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/morphrace/internal/contest"
	"github.com/san-kum/morphrace/internal/control"
	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/locomotion"
	"github.com/san-kum/morphrace/internal/softbody"
)

// ContestEngine is the two-creature tug-of-war backend. Creature 1 plays
// with WASD and creature 2 with the arrows unless a policy or the autopilot
// drives them.
type ContestEngine struct {
	cfg     Config
	log     *slog.Logger
	game    *contest.Contest
	slots   []int
	keys    [2]*control.Keys
	policy  [2]*control.Policy
	bots    [2]*control.Autopilot
	last    [2]dynamo.Control
	spanLen float64
}

func NewContest(cfg Config) *ContestEngine {
	cfg.Mode = ModeContest
	e := &ContestEngine{
		cfg:   cfg,
		log:   cfg.logger().With("mode", ModeContest),
		game:  contest.New(cfg.Morphology, cfg.Opponent, contest.Options{FinishLine: cfg.FinishLine, Coupling: cfg.Rope}),
		slots: validSlots(cfg.PolicySlots, []int{2}),
		keys:  [2]*control.Keys{control.NewKeys(control.Player1Keys), control.NewKeys(control.Player2Keys)},
	}
	for _, i := range validSlots(cfg.Bots, nil) {
		e.bots[i-1] = control.NewAutopilot(math.Pi/2, 1)
	}
	e.spanLen = e.game.FinishLine() - contest.StartX
	return e
}

func validSlots(in, def []int) []int {
	var out []int
	seen := map[int]bool{}
	for _, s := range in {
		if (s == 1 || s == 2) && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func (e *ContestEngine) Mode() string { return ModeContest }

// LoadPolicy loads one model and assigns it to every configured policy slot.
func (e *ContestEngine) LoadPolicy(args, weights string) error {
	m, err := loadModel(args, weights)
	if err != nil {
		return err
	}
	p := control.NewPolicy(m)
	for _, s := range e.slots {
		e.policy[s-1] = p
	}
	e.log.Debug("policy loaded", "model", m.String(), "slots", e.slots)
	return nil
}

// LoadPolicyFor loads a model for creature slot (1 or 2) only.
func (e *ContestEngine) LoadPolicyFor(slot int, args, weights string) error {
	if slot != 1 && slot != 2 {
		return fmt.Errorf("engine: no creature slot %d", slot)
	}
	m, err := loadModel(args, weights)
	if err != nil {
		return err
	}
	e.policy[slot-1] = control.NewPolicy(m)
	e.log.Debug("policy loaded", "model", m.String(), "slots", []int{slot})
	return nil
}

// InitSimulation gives each creature its own mesh built from meshJSON.
// Both meshes are built before either is attached.
func (e *ContestEngine) InitSimulation(meshJSON string) error {
	desc, err := softbody.ParseDescription([]byte(meshJSON))
	if err != nil {
		return err
	}
	var meshes [2]*softbody.Mesh
	for i := range meshes {
		m, err := softbody.New(desc, e.cfg.SoftBody)
		if err != nil {
			return err
		}
		meshes[i] = m
	}
	for i, m := range meshes {
		body := e.game.Creature(i + 1)
		m.SetGait(e.cfg.gait(body.Kind()))
		body.Attach(m)
	}
	e.log.Debug("mesh attached", "nodes", meshes[0].NodeCount(), "edges", meshes[0].EdgeCount())
	return nil
}

func (e *ContestEngine) Start(now float64) {
	if err := e.game.Start(now); err != nil {
		e.log.Debug("start ignored", "err", err)
	}
}

func (e *ContestEngine) Update(delta, now float64, keys []string) {
	if !e.game.Running() {
		return
	}
	var cs [2]dynamo.Control
	for i := range cs {
		e.keys[i].Held = keys
		src, _ := e.source(i)
		cs[i] = src.Compute(e.observe(i))
	}
	e.last = cs
	e.game.Step(now, cs[0], cs[1], delta)
	if e.game.Completed() {
		e.log.Debug("contest decided", "winner", e.game.Winner().String(), "time", e.game.Elapsed())
	}
}

// source picks what drives creature i (0-based): a policy, then the
// autopilot, then the player's keys.
func (e *ContestEngine) source(i int) (control.Source, string) {
	switch {
	case e.policy[i] != nil:
		return e.policy[i], driverPolicy
	case e.bots[i] != nil:
		return e.bots[i], driverAutopilot
	default:
		return e.keys[i], driverKeys
	}
}

// observe builds creature i's (0-based) view of the contest.
func (e *ContestEngine) observe(i int) control.Observation {
	body := e.game.Creature(i + 1)
	x := body.Position().X
	h := body.Heading()
	lead := e.game.Lead()
	if i == 1 {
		lead = -lead
	}
	return control.Observation{
		Speed:        body.Speed() / body.Profile().MaxSpeed,
		SinHeading:   math.Sin(h),
		CosHeading:   math.Cos(h),
		Progress:     dynamo.Clamp((x-contest.StartX)/e.spanLen, 0, 1),
		GoalDistance: (e.game.FinishLine() - x) / e.spanLen,
		Proximity:    dynamo.Clamp1(lead / e.spanLen),
		Time:         e.game.Elapsed(),
	}
}

func (e *ContestEngine) Snapshot() Snapshot {
	s := Snapshot{
		Mode:      ModeContest,
		Time:      e.game.Elapsed(),
		Started:   e.game.Started(),
		Completed: e.game.Completed(),
		Winner:    int(e.game.Winner()),
		Creatures: make([]CreatureSnapshot, 2),
	}
	hasMesh := false
	for i := range s.Creatures {
		body := e.game.Creature(i + 1)
		_, driver := e.source(i)
		s.Creatures[i] = snapshotCreature(body, e.last[i], driver)
		hasMesh = hasMesh || body.Mesh() != nil
	}
	if hasMesh {
		s.Nodes = [][]dynamo.Vec2{meshNodes(e.game.Creature(1)), meshNodes(e.game.Creature(2))}
	}
	return s
}

// Creature returns the pose of creature i (1 or 2). Other indices return
// the zero state and false.
func (e *ContestEngine) Creature(i int) (locomotion.State, bool) {
	body := e.game.Creature(i)
	if body == nil {
		return locomotion.State{}, false
	}
	return body.State(), true
}

// NodePositions returns creature i's mesh nodes, or nil without a mesh.
func (e *ContestEngine) NodePositions(i int) []dynamo.Vec2 {
	body := e.game.Creature(i)
	if body == nil {
		return nil
	}
	return meshNodes(body)
}

// Edges returns creature i's mesh edges, or nil without a mesh.
func (e *ContestEngine) Edges(i int) [][2]int {
	body := e.game.Creature(i)
	if body == nil {
		return nil
	}
	return meshEdges(body)
}

// HasPolicy reports whether creature i is policy driven.
func (e *ContestEngine) HasPolicy(i int) bool {
	return i >= 1 && i <= 2 && e.policy[i-1] != nil
}

func (e *ContestEngine) Winner() contest.Winner { return e.game.Winner() }
func (e *ContestEngine) CurrentTime() float64   { return e.game.Elapsed() }
func (e *ContestEngine) Started() bool          { return e.game.Started() }
func (e *ContestEngine) Completed() bool        { return e.game.Completed() }
func (e *ContestEngine) FinishLine() float64    { return e.game.FinishLine() }
