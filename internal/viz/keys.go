package viz

import (
	"sort"

	"github.com/san-kum/morphrace/internal/control"
)

// DefaultHoldWindow is how long a terminal key press counts as held, in
// milliseconds. Terminals report presses and auto-repeats but never
// releases.
const DefaultHoldWindow = 180.0

var terminalKeys = map[string]string{
	"up":    control.KeyArrowUp,
	"down":  control.KeyArrowDown,
	"left":  control.KeyArrowLeft,
	"right": control.KeyArrowRight,
	"w":     control.KeyW,
	"a":     control.KeyA,
	"s":     control.KeyS,
	"d":     control.KeyD,
}

// Token translates a bubbletea key name to an engine key token.
func Token(key string) (string, bool) {
	tok, ok := terminalKeys[key]
	return tok, ok
}

// KeyHold turns discrete key presses into held keys that expire after a
// window with no repeat.
type KeyHold struct {
	window float64
	until  map[string]float64
}

func NewKeyHold(window float64) *KeyHold {
	if window <= 0 {
		window = DefaultHoldWindow
	}
	return &KeyHold{window: window, until: make(map[string]float64)}
}

// Press marks token held until now+window.
func (h *KeyHold) Press(token string, now float64) {
	h.until[token] = now + h.window
}

// Active returns the tokens still held at now in sorted order, forgetting
// expired ones.
func (h *KeyHold) Active(now float64) []string {
	keys := make([]string, 0, len(h.until))
	for tok, until := range h.until {
		if now >= until {
			delete(h.until, tok)
			continue
		}
		keys = append(keys, tok)
	}
	sort.Strings(keys)
	return keys
}

func (h *KeyHold) Clear() { clear(h.until) }
