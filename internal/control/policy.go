package control

import (
	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/policy"
)

// Policy drives a creature from a loaded model. Output 0 is throttle,
// output 1 is turn; extra outputs are ignored.
type Policy struct {
	Model *policy.Model
}

func NewPolicy(m *policy.Model) *Policy {
	return &Policy{Model: m}
}

func (p *Policy) Compute(obs Observation) dynamo.Control {
	if p.Model == nil {
		return dynamo.Control{}
	}
	a := p.Model.Evaluate(obs.Vector())
	var c dynamo.Control
	if len(a) > 0 {
		c.Throttle = a[0]
	}
	if len(a) > 1 {
		c.Turn = a[1]
	}
	return c.Clamp()
}
