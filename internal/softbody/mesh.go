package softbody

import (
	"math"

	"github.com/san-kum/morphrace/internal/dynamo"
)

const (
	DefaultStiffness     = 1000.0
	DefaultDamping       = 10.0
	DefaultNodeMass      = 1.0
	DefaultLinearDamping = 0.5
	DefaultMaxSubstep    = 1.0 / 240.0

	// maxSubsteps bounds the work done for one oversized frame delta.
	maxSubsteps = 64
	// minLength is the spring length below which the edge direction is
	// undefined and the spring is skipped for that substep.
	minLength = 1e-9
)

// Params configures spring dynamics.
type Params struct {
	Stiffness     float64
	Damping       float64
	NodeMass      float64
	LinearDamping float64
	MaxSubstep    float64
	Ground        bool
	GroundY       float64
}

func DefaultParams() Params {
	return Params{
		Stiffness:     DefaultStiffness,
		Damping:       DefaultDamping,
		NodeMass:      DefaultNodeMass,
		LinearDamping: DefaultLinearDamping,
		MaxSubstep:    DefaultMaxSubstep,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Stiffness <= 0 {
		p.Stiffness = d.Stiffness
	}
	if p.Damping < 0 {
		p.Damping = d.Damping
	}
	if p.NodeMass <= 0 {
		p.NodeMass = d.NodeMass
	}
	if p.LinearDamping < 0 {
		p.LinearDamping = d.LinearDamping
	}
	if p.MaxSubstep <= 0 {
		p.MaxSubstep = d.MaxSubstep
	}
	return p
}

// Edge is an undirected spring between nodes A < B.
type Edge struct {
	A, B int
	Rest float64
}

// Drive carries the per-step inputs from the locomotion integrator. The
// integrator only sets Speed and Time; Force is for hosts stepping a mesh
// directly, and being uniform it translates the mesh without deforming it.
type Drive struct {
	Force dynamo.Vec2 // uniform external force on every node
	Speed float64     // creature forward speed, scales the gait wobble
	Time  float64     // seconds since the creature started moving
}

// Mesh is a mass-spring network over a triangulated profile.
type Mesh struct {
	params Params
	gait   *Gait

	rest      []dynamo.Vec2
	pos       []dynamo.Vec2
	vel       []dynamo.Vec2
	force     []dynamo.Vec2
	wobble    []float64
	edges     []Edge
	triangles [][3]int
}

// New validates desc and builds the spring network. Every triangle index must
// reference an existing node and a triangle's three corners must differ.
func New(desc Description, params Params) (*Mesh, error) {
	const op = "build mesh"

	n := len(desc.Nodes)
	if n == 0 {
		return nil, dynamo.Errorf(op, dynamo.ErrInvalidMeshData, "empty node list")
	}
	if len(desc.Triangles) == 0 {
		return nil, dynamo.Errorf(op, dynamo.ErrInvalidMeshData, "empty triangle list")
	}

	for i, tri := range desc.Triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= n {
				return nil, dynamo.Errorf(op, dynamo.ErrInvalidMeshData, "triangle %d references node %d, have %d nodes", i, idx, n)
			}
		}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			return nil, dynamo.Errorf(op, dynamo.ErrInvalidMeshData, "triangle %d repeats a node", i)
		}
	}

	m := &Mesh{
		params:    params.withDefaults(),
		rest:      make([]dynamo.Vec2, n),
		pos:       make([]dynamo.Vec2, n),
		vel:       make([]dynamo.Vec2, n),
		force:     make([]dynamo.Vec2, n),
		wobble:    make([]float64, n),
		triangles: make([][3]int, len(desc.Triangles)),
	}
	copy(m.rest, desc.Nodes)
	copy(m.pos, desc.Nodes)
	copy(m.triangles, desc.Triangles)

	seen := make(map[[2]int]struct{}, len(desc.Triangles)*3)
	for _, tri := range desc.Triangles {
		pairs := [3][2]int{{tri[0], tri[1]}, {tri[1], tri[2]}, {tri[2], tri[0]}}
		for _, p := range pairs {
			a, b := p[0], p[1]
			if a > b {
				a, b = b, a
			}
			key := [2]int{a, b}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			m.edges = append(m.edges, Edge{A: a, B: b, Rest: desc.Nodes[a].Dist(desc.Nodes[b])})
		}
	}

	return m, nil
}

// Parse is ParseDescription followed by New.
func Parse(data []byte, params Params) (*Mesh, error) {
	desc, err := ParseDescription(data)
	if err != nil {
		return nil, err
	}
	return New(desc, params)
}

// SetGait replaces the wobble function. nil disables wobble.
func (m *Mesh) SetGait(g *Gait) {
	m.gait = g
	for i := range m.wobble {
		m.wobble[i] = 0
	}
}

func (m *Mesh) Gait() *Gait { return m.gait }

// Step advances the springs by dt and applies the gait wobble for d.Time.
// Non-positive dt is a no-op.
func (m *Mesh) Step(dt float64, d Drive) {
	dt = dynamo.SanitizeDt(dt)
	if dt == 0 {
		return
	}

	steps := int(math.Ceil(dt / m.params.MaxSubstep))
	if steps < 1 {
		steps = 1
	}
	if steps > maxSubsteps {
		steps = maxSubsteps
	}
	h := dt / float64(steps)

	for s := 0; s < steps; s++ {
		m.relax(h, d.Force)
	}
	m.applyGait(d)
	m.recover()
}

func (m *Mesh) relax(h float64, ext dynamo.Vec2) {
	p := m.params

	for i := range m.force {
		m.force[i] = ext
	}

	for _, e := range m.edges {
		delta := m.pos[e.B].Sub(m.pos[e.A])
		length := delta.Len()
		if length < minLength {
			continue
		}
		dir := delta.Scale(1 / length)
		relVel := m.vel[e.B].Sub(m.vel[e.A]).Dot(dir)

		f := dir.Scale(p.Stiffness*(length-e.Rest) + p.Damping*relVel)
		m.force[e.A] = m.force[e.A].Add(f)
		m.force[e.B] = m.force[e.B].Sub(f)
	}

	retain := math.Max(0, 1-p.LinearDamping*h)
	invMass := 1 / p.NodeMass
	for i := range m.pos {
		v := m.vel[i].Add(m.force[i].Scale(invMass * h)).Scale(retain)
		m.pos[i] = m.pos[i].Add(v.Scale(h))
		if p.Ground && m.pos[i].Y < p.GroundY {
			m.pos[i].Y = p.GroundY
			if v.Y < 0 {
				v.Y = 0
			}
		}
		m.vel[i] = v
	}
}

// applyGait moves each node by the change in its wobble offset since the
// previous step, so the wobble never accumulates into the rest shape.
func (m *Mesh) applyGait(d Drive) {
	if m.gait == nil {
		return
	}
	for i := range m.pos {
		off := m.gait.Offset(m.rest[i].X, d.Speed, d.Time)
		m.pos[i].Y += off - m.wobble[i]
		m.wobble[i] = off
	}
}

// recover snaps diverged nodes back to rest. An oversized delta can blow up
// the explicit integration; the frame loop must keep going regardless.
func (m *Mesh) recover() {
	for i := range m.pos {
		if m.pos[i].IsValid() && m.vel[i].IsValid() {
			continue
		}
		m.pos[i] = m.rest[i]
		m.vel[i] = dynamo.Vec2{}
		m.wobble[i] = 0
	}
}

// Nodes returns a copy of the current node positions.
func (m *Mesh) Nodes() []dynamo.Vec2 {
	out := make([]dynamo.Vec2, len(m.pos))
	copy(out, m.pos)
	return out
}

// RestNodes returns a copy of the construction-time node positions.
func (m *Mesh) RestNodes() []dynamo.Vec2 {
	out := make([]dynamo.Vec2, len(m.rest))
	copy(out, m.rest)
	return out
}

// Edges returns a copy of the derived edge list.
func (m *Mesh) Edges() []Edge {
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out
}

func (m *Mesh) Triangles() [][3]int {
	out := make([][3]int, len(m.triangles))
	copy(out, m.triangles)
	return out
}

func (m *Mesh) NodeCount() int { return len(m.pos) }
func (m *Mesh) EdgeCount() int { return len(m.edges) }

// Centroid is the mean node position.
func (m *Mesh) Centroid() dynamo.Vec2 {
	var c dynamo.Vec2
	for _, p := range m.pos {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(m.pos)))
}

// Strain is the mean relative deviation of edge lengths from rest.
func (m *Mesh) Strain() float64 {
	if len(m.edges) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range m.edges {
		if e.Rest < minLength {
			continue
		}
		l := m.pos[e.A].Dist(m.pos[e.B])
		sum += math.Abs(l-e.Rest) / e.Rest
	}
	return sum / float64(len(m.edges))
}
