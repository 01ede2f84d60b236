// Package morphology holds the fixed locomotion constants for each creature
// body plan.
package morphology

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is a creature's body-plan category.
type Kind uint8

const (
	Biped Kind = iota
	Quadruped
	Hexapod
)

var kindNames = [...]string{"biped", "quadruped", "hexapod"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// FromIndex maps a numeric index to a Kind. Unknown indices fall back to
// Biped.
func FromIndex(i int) Kind {
	if i < 0 || i >= len(kindNames) {
		return Biped
	}
	return Kind(i)
}

// ParseKind accepts a name ("biped", case-insensitive) or a numeric index.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if s == name {
			return Kind(i), nil
		}
	}
	if i, err := strconv.Atoi(s); err == nil {
		return FromIndex(i), nil
	}
	return Biped, fmt.Errorf("unknown morphology: %q (available: %s)", s, strings.Join(kindNames[:], ", "))
}

// Kinds lists every body plan in index order.
func Kinds() []Kind {
	return []Kind{Biped, Quadruped, Hexapod}
}

// MarshalText lets Kind appear by name in YAML and JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
