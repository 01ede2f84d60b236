package control

import "github.com/san-kum/morphrace/internal/dynamo"

// Key tokens use browser KeyboardEvent.code names.
const (
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyW          = "KeyW"
	KeyA          = "KeyA"
	KeyS          = "KeyS"
	KeyD          = "KeyD"
	KeySpace      = "Space"
)

// KeyMap assigns key tokens to the four movement intents.
type KeyMap struct {
	Forward []string
	Back    []string
	Left    []string
	Right   []string
}

var (
	// RaceKeys drives the single racer with either arrows or WASD.
	// Space brakes into reverse.
	RaceKeys = KeyMap{
		Forward: []string{KeyArrowUp, KeyW},
		Back:    []string{KeyArrowDown, KeyS, KeySpace},
		Left:    []string{KeyArrowLeft, KeyA},
		Right:   []string{KeyArrowRight, KeyD},
	}

	Player1Keys = KeyMap{
		Forward: []string{KeyW},
		Back:    []string{KeyS},
		Left:    []string{KeyA},
		Right:   []string{KeyD},
	}

	Player2Keys = KeyMap{
		Forward: []string{KeyArrowUp},
		Back:    []string{KeyArrowDown},
		Left:    []string{KeyArrowLeft},
		Right:   []string{KeyArrowRight},
	}
)

// Control maps the currently held keys to a control signal. Forward beats
// back when both are held, left and right cancel, unknown tokens are ignored.
// Left turns increase the heading.
func (k KeyMap) Control(keys []string) dynamo.Control {
	var fwd, back, left, right bool
	for _, key := range keys {
		switch {
		case contains(k.Forward, key):
			fwd = true
		case contains(k.Back, key):
			back = true
		case contains(k.Left, key):
			left = true
		case contains(k.Right, key):
			right = true
		}
	}

	var c dynamo.Control
	switch {
	case fwd:
		c.Throttle = 1
	case back:
		c.Throttle = -1
	}
	if left {
		c.Turn++
	}
	if right {
		c.Turn--
	}
	return c
}

// Tokens lists every token the map recognizes.
func (k KeyMap) Tokens() []string {
	out := make([]string, 0, len(k.Forward)+len(k.Back)+len(k.Left)+len(k.Right))
	out = append(out, k.Forward...)
	out = append(out, k.Back...)
	out = append(out, k.Left...)
	return append(out, k.Right...)
}

// Keys binds a KeyMap to a held-key set so it can act as a Source. Hosts
// refresh Held before every Compute.
type Keys struct {
	Map  KeyMap
	Held []string
}

func NewKeys(m KeyMap) *Keys { return &Keys{Map: m} }

func (k *Keys) Compute(Observation) dynamo.Control { return k.Map.Control(k.Held) }

func contains(set []string, key string) bool {
	for _, s := range set {
		if s == key {
			return true
		}
	}
	return false
}
