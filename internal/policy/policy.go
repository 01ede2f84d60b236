// Package policy loads and evaluates pre-trained feed-forward controllers.
//
// A policy is described by two JSON documents: the architecture
//
//	{"layers": [6, 16, 2], "activation": "tanh", "output_activation": "tanh"}
//
// and a flat weight array laid out per layer as W (out×in, row-major)
// followed by b (out). Evaluation is pure, so one Model can drive any number
// of creatures.
package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/morphrace/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Activation names accepted in the architecture document.
const (
	Tanh = "tanh"
	ReLU = "relu"
)

// Args is the architecture document.
type Args struct {
	Layers           []int  `json:"layers"`
	Activation       string `json:"activation,omitempty"`
	OutputActivation string `json:"output_activation,omitempty"`
}

type layer struct {
	w *mat.Dense
	b *mat.VecDense
}

// Model is an immutable fully connected network.
type Model struct {
	args   Args
	layers []layer
	hidden func(float64) float64
	params int
}

// Load parses both documents and validates that the weights fit the
// architecture. Malformed text yields dynamo.ErrPolicyParse, shape problems
// yield dynamo.ErrPolicyFormat.
func Load(argsText, weightsText string) (*Model, error) {
	const op = "load policy"

	var args Args
	if err := strictDecode(argsText, &args); err != nil {
		return nil, dynamo.Errorf(op, dynamo.ErrPolicyParse, "args: %v", err)
	}
	weights, err := parseWeights(weightsText)
	if err != nil {
		return nil, dynamo.Errorf(op, dynamo.ErrPolicyParse, "weights: %v", err)
	}
	return Build(args, weights)
}

// Build constructs a model from already-decoded inputs.
func Build(args Args, weights []float64) (*Model, error) {
	const op = "load policy"

	if len(args.Layers) < 2 {
		return nil, dynamo.Errorf(op, dynamo.ErrPolicyFormat, "need at least 2 layer sizes, got %d", len(args.Layers))
	}
	for i, n := range args.Layers {
		if n <= 0 {
			return nil, dynamo.Errorf(op, dynamo.ErrPolicyFormat, "layer %d has size %d", i, n)
		}
	}

	if args.Activation == "" {
		args.Activation = Tanh
	}
	if args.OutputActivation == "" {
		args.OutputActivation = Tanh
	}
	hidden, ok := activations[strings.ToLower(args.Activation)]
	if !ok {
		return nil, dynamo.Errorf(op, dynamo.ErrPolicyFormat, "unknown activation %q", args.Activation)
	}
	if strings.ToLower(args.OutputActivation) != Tanh {
		return nil, dynamo.Errorf(op, dynamo.ErrPolicyFormat, "output activation must be bounded, got %q", args.OutputActivation)
	}

	want := ParamCount(args.Layers)
	if len(weights) != want {
		return nil, dynamo.Errorf(op, dynamo.ErrPolicyFormat, "want %d weights, got %d", want, len(weights))
	}
	for i, w := range weights {
		if !dynamo.Finite(w) {
			return nil, dynamo.Errorf(op, dynamo.ErrPolicyFormat, "weight %d is not finite", i)
		}
	}

	m := &Model{
		args:   args,
		hidden: hidden,
		params: want,
		layers: make([]layer, len(args.Layers)-1),
	}
	m.args.Layers = append([]int(nil), args.Layers...)

	off := 0
	for i := range m.layers {
		in, out := args.Layers[i], args.Layers[i+1]
		w := make([]float64, in*out)
		copy(w, weights[off:off+in*out])
		off += in * out
		b := make([]float64, out)
		copy(b, weights[off:off+out])
		off += out
		m.layers[i] = layer{w: mat.NewDense(out, in, w), b: mat.NewVecDense(out, b)}
	}

	return m, nil
}

// ParamCount is Σ(in·out + out) over consecutive layer sizes.
func ParamCount(layers []int) int {
	n := 0
	for i := 0; i+1 < len(layers); i++ {
		n += layers[i]*layers[i+1] + layers[i+1]
	}
	return n
}

var activations = map[string]func(float64) float64{
	Tanh: math.Tanh,
	ReLU: func(x float64) float64 { return math.Max(0, x) },
}

func strictDecode(text string, v any) error {
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data")
	}
	return nil
}

func parseWeights(text string) ([]float64, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Weights *[]float64 `json:"weights"`
		}
		if err := strictDecode(text, &wrapped); err != nil {
			return nil, err
		}
		if wrapped.Weights == nil {
			return nil, fmt.Errorf("missing \"weights\" field")
		}
		return *wrapped.Weights, nil
	}
	var flat []float64
	if err := strictDecode(text, &flat); err != nil {
		return nil, err
	}
	if flat == nil {
		return nil, fmt.Errorf("weights must be an array")
	}
	return flat, nil
}

// Evaluate runs a forward pass. The observation is zero-padded or truncated
// to the input size. Every output lies in [-1, 1].
func (m *Model) Evaluate(obs []float64) []float64 {
	x := mat.NewVecDense(m.Inputs(), nil)
	for i := 0; i < m.Inputs() && i < len(obs); i++ {
		if dynamo.Finite(obs[i]) {
			x.SetVec(i, obs[i])
		}
	}

	last := len(m.layers) - 1
	for i, l := range m.layers {
		r, _ := l.w.Dims()
		y := mat.NewVecDense(r, nil)
		y.MulVec(l.w, x)
		y.AddVec(y, l.b)
		act := m.hidden
		if i == last {
			act = math.Tanh
		}
		for j := 0; j < r; j++ {
			y.SetVec(j, act(y.AtVec(j)))
		}
		x = y
	}

	out := make([]float64, x.Len())
	for i := range out {
		out[i] = dynamo.Clamp1(x.AtVec(i))
	}
	return out
}

func (m *Model) Inputs() int     { return m.args.Layers[0] }
func (m *Model) Outputs() int    { return m.args.Layers[len(m.args.Layers)-1] }
func (m *Model) ParamCount() int { return m.params }

// Architecture returns a copy of the decoded architecture document.
func (m *Model) Architecture() Args {
	a := m.args
	a.Layers = append([]int(nil), m.args.Layers...)
	return a
}

func (m *Model) String() string {
	sizes := make([]string, len(m.args.Layers))
	for i, n := range m.args.Layers {
		sizes[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("mlp[%s] %s/%s %d params", strings.Join(sizes, "-"), m.args.Activation, m.args.OutputActivation, m.params)
}
