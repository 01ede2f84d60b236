package morphology

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLookup(t *testing.T) {
	for _, k := range Kinds() {
		p := Lookup(k)
		if p.Kind != k {
			t.Errorf("Lookup(%s).Kind = %s", k, p.Kind)
		}
		if p.MaxSpeed <= 0 || p.Acceleration <= 0 || p.TurnRate <= 0 {
			t.Errorf("%s: expected positive locomotion constants, got %+v", k, p)
		}
		if p.Drag <= 0 || p.Drag >= 1 {
			t.Errorf("%s: drag must be in (0,1), got %f", k, p.Drag)
		}
	}

	if Lookup(Kind(42)).Kind != Biped {
		t.Error("unknown kind should fall back to biped")
	}
}

func TestLegCounts(t *testing.T) {
	want := map[Kind]int{Biped: 2, Quadruped: 4, Hexapod: 6}
	for k, legs := range want {
		if got := Lookup(k).Legs; got != legs {
			t.Errorf("%s legs = %d, want %d", k, got, legs)
		}
	}
}

func TestStrideLength(t *testing.T) {
	if got := Lookup(Biped).StrideLength(); got != 7.5 {
		t.Errorf("expected biped stride 7.5, got %f", got)
	}
	if got := (Profile{MaxSpeed: 10}).StrideLength(); got != 0 {
		t.Errorf("expected 0 without a gait frequency, got %f", got)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"biped", Biped, false},
		{"Quadruped", Quadruped, false},
		{" HEXAPOD ", Hexapod, false},
		{"2", Hexapod, false},
		{"9", Biped, false},
		{"spider", Biped, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestKindYAML(t *testing.T) {
	var v struct {
		Kind Kind `yaml:"kind"`
	}
	if err := yaml.Unmarshal([]byte("kind: quadruped\n"), &v); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if v.Kind != Quadruped {
		t.Errorf("expected quadruped, got %s", v.Kind)
	}

	out, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != "kind: quadruped\n" {
		t.Errorf("unexpected yaml: %q", out)
	}
}
