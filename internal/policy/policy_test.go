package policy

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/morphrace/internal/dynamo"
)

func TestLoadValid(t *testing.T) {
	// 2 -> 2: W = [[1, 0], [0, -1]], b = [0, 0]
	m, err := Load(`{"layers":[2,2],"activation":"tanh"}`, `[1,0,0,-1,0,0]`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Inputs() != 2 || m.Outputs() != 2 {
		t.Errorf("expected 2x2, got %dx%d", m.Inputs(), m.Outputs())
	}
	if m.ParamCount() != 6 {
		t.Errorf("expected 6 params, got %d", m.ParamCount())
	}

	out := m.Evaluate([]float64{0.5, 0.25})
	if math.Abs(out[0]-math.Tanh(0.5)) > 1e-12 {
		t.Errorf("expected %f, got %f", math.Tanh(0.5), out[0])
	}
	if math.Abs(out[1]-math.Tanh(-0.25)) > 1e-12 {
		t.Errorf("expected %f, got %f", math.Tanh(-0.25), out[1])
	}
}

func TestHiddenLayerDefaultsToTanh(t *testing.T) {
	// 1 -> 1 -> 1 with identity weights: out = tanh(tanh(x))
	m, err := Load(`{"layers":[1,1,1]}`, `[1,0, 1,0]`)
	if err != nil {
		t.Fatal(err)
	}
	want := math.Tanh(math.Tanh(2))
	if out := m.Evaluate([]float64{2}); math.Abs(out[0]-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, out[0])
	}
}

func TestWrappedWeights(t *testing.T) {
	_, err := Load(`{"layers":[1,1]}`, `{"weights":[2, 0.5]}`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestHiddenLayerReLU(t *testing.T) {
	// 1 -> 1 (relu) -> 1: hidden = relu(-x), out = tanh(hidden)
	m, err := Load(`{"layers":[1,1,1],"activation":"relu"}`, `[-1,0, 1,0]`)
	if err != nil {
		t.Fatal(err)
	}
	if out := m.Evaluate([]float64{2}); out[0] != 0 {
		t.Errorf("expected 0, got %f", out[0])
	}
	if out := m.Evaluate([]float64{-2}); math.Abs(out[0]-math.Tanh(2)) > 1e-12 {
		t.Errorf("expected %f, got %f", math.Tanh(2), out[0])
	}
}

func TestOutputsBounded(t *testing.T) {
	weights := make([]float64, ParamCount([]int{6, 8, 2}))
	for i := range weights {
		weights[i] = float64((i*37)%11) - 5
	}
	data, _ := json.Marshal(weights)
	m, err := Load(`{"layers":[6,8,2]}`, string(data))
	if err != nil {
		t.Fatal(err)
	}

	obs := []float64{1e6, -1e6, 3, math.NaN(), 0, 42}
	a := m.Evaluate(obs)
	b := m.Evaluate(obs)
	for i := range a {
		if a[i] < -1 || a[i] > 1 {
			t.Errorf("output %d out of range: %f", i, a[i])
		}
		if a[i] != b[i] {
			t.Errorf("output %d not deterministic", i)
		}
	}
}

func TestObservationPadding(t *testing.T) {
	m, err := Load(`{"layers":[3,1]}`, `[1,1,1,0]`)
	if err != nil {
		t.Fatal(err)
	}
	short := m.Evaluate([]float64{0.2})
	long := m.Evaluate([]float64{0.2, 0, 0, 9, 9})
	if short[0] != long[0] {
		t.Errorf("expected %f, got %f", short[0], long[0])
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		weights string
		want    error
	}{
		{"args not json", `{"layers":`, `[]`, dynamo.ErrPolicyParse},
		{"weights not json", `{"layers":[1,1]}`, `[1,`, dynamo.ErrPolicyParse},
		{"weights wrong type", `{"layers":[1,1]}`, `"abc"`, dynamo.ErrPolicyParse},
		{"layers wrong type", `{"layers":"1,1"}`, `[1,1]`, dynamo.ErrPolicyParse},
		{"wrapper missing field", `{"layers":[1,1]}`, `{"w":[1,1]}`, dynamo.ErrPolicyParse},
		{"one layer", `{"layers":[4]}`, `[]`, dynamo.ErrPolicyFormat},
		{"zero size", `{"layers":[2,0]}`, `[]`, dynamo.ErrPolicyFormat},
		{"count mismatch", `{"layers":[4,2]}`, `[1,2,3,4,5,6,7,8,9]`, dynamo.ErrPolicyFormat},
		{"unknown activation", `{"layers":[1,1],"activation":"swish"}`, `[1,1]`, dynamo.ErrPolicyFormat},
		{"unbounded output", `{"layers":[1,1],"output_activation":"relu"}`, `[1,1]`, dynamo.ErrPolicyFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Load(tt.args, tt.weights)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if m != nil {
				t.Error("expected nil model on error")
			}
		})
	}
}

func TestBuildRejectsNonFinite(t *testing.T) {
	_, err := Build(Args{Layers: []int{1, 1}}, []float64{math.Inf(1), 0})
	if !errors.Is(err, dynamo.ErrPolicyFormat) {
		t.Errorf("expected ErrPolicyFormat, got %v", err)
	}
}

func TestArchitectureIsCopy(t *testing.T) {
	m, err := Load(`{"layers":[2,3,2]}`, string(mustJSON(make([]float64, ParamCount([]int{2, 3, 2})))))
	if err != nil {
		t.Fatal(err)
	}
	a := m.Architecture()
	a.Layers[0] = 99
	if m.Inputs() != 2 {
		t.Errorf("expected 2 inputs, got %d", m.Inputs())
	}
	if a.Activation != Tanh || a.OutputActivation != Tanh {
		t.Errorf("expected tanh defaults, got %q/%q", a.Activation, a.OutputActivation)
	}
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
