package sim

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/morphrace/internal/engine"
)

var ErrUnknownScript = errors.New("sim: unknown script")

// Script decides which keys are held at simulated time t.
type Script interface {
	Keys(t float64, snap engine.Snapshot) []string
}

type ScriptFunc func(t float64, snap engine.Snapshot) []string

func (f ScriptFunc) Keys(t float64, snap engine.Snapshot) []string { return f(t, snap) }

// Idle holds nothing.
var Idle Script = ScriptFunc(func(float64, engine.Snapshot) []string { return nil })

// Hold presses the same keys for the whole run.
func Hold(keys ...string) Script {
	held := append([]string(nil), keys...)
	return ScriptFunc(func(float64, engine.Snapshot) []string { return held })
}

// Step is one phase of a Sequence.
type Step struct {
	Duration float64
	Keys     []string
}

// Sequence plays steps in order and loops once the last one ends.
func Sequence(steps ...Step) Script {
	var period float64
	for _, s := range steps {
		period += s.Duration
	}
	return ScriptFunc(func(t float64, _ engine.Snapshot) []string {
		if len(steps) == 0 || period <= 0 {
			return nil
		}
		t = math.Mod(t, period)
		for _, s := range steps {
			if t < s.Duration {
				return s.Keys
			}
			t -= s.Duration
		}
		return steps[len(steps)-1].Keys
	})
}

var scripts = map[string]func() Script{
	"idle": func() Script { return Idle },
	"forward": func() Script {
		return Hold("ArrowUp", "KeyW")
	},
	"circle": func() Script {
		return Hold("ArrowUp", "ArrowLeft")
	},
	"reverse": func() Script {
		return Hold("Space", "ArrowRight")
	},
	"duel": func() Script {
		return Sequence(
			Step{Duration: 1.5, Keys: []string{"KeyW", "ArrowUp"}},
			Step{Duration: 0.3, Keys: []string{"KeyW", "ArrowUp", "ArrowLeft"}},
			Step{Duration: 0.3, Keys: []string{"KeyW", "ArrowUp", "ArrowRight"}},
			Step{Duration: 0.5, Keys: []string{"KeyW"}},
		)
	},
}

// ScriptByName returns a built-in script.
func ScriptByName(name string) (Script, error) {
	f, ok := scripts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScript, name)
	}
	return f(), nil
}

func ScriptNames() []string {
	names := make([]string, 0, len(scripts))
	for n := range scripts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
