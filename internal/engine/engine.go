// Package engine is the host-facing facade over the race and contest
// simulations. Hosts pick a backend by mode name at startup:
//
//	eng, err := engine.New(engine.Config{Mode: engine.ModeRace, Laps: 3})
//	eng.Start(nowMillis)
//	eng.Update(deltaSeconds, nowMillis, []string{"ArrowUp"})
//	snap := eng.Snapshot()
//
// Engines are single-threaded by contract; hosts serialize access.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/san-kum/morphrace/internal/contest"
	"github.com/san-kum/morphrace/internal/control"
	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/locomotion"
	"github.com/san-kum/morphrace/internal/morphology"
	"github.com/san-kum/morphrace/internal/policy"
	"github.com/san-kum/morphrace/internal/softbody"
)

const (
	ModeRace    = "race"
	ModeContest = "contest"
)

// ErrUnknownMode is returned by New for a mode nobody registered.
var ErrUnknownMode = errors.New("engine: unknown mode")

// Engine is the capability set every backend provides.
type Engine interface {
	Mode() string
	LoadPolicy(args, weights string) error
	InitSimulation(meshJSON string) error
	Start(now float64)
	Update(delta, now float64, keys []string)
	Snapshot() Snapshot
}

// Config selects and parameterizes a backend.
type Config struct {
	Mode       string
	Morphology morphology.Kind
	Opponent   morphology.Kind
	Laps       int

	FinishLine  float64
	Rope        contest.Rope
	PolicySlots []int // contest creatures driven by LoadPolicy; default {2}
	Bots        []int // contest creatures driven by the autopilot when no policy is loaded

	SoftBody softbody.Params
	Gait     *softbody.Gait // nil uses the default gait; zero Frequency uses the morphology's
	NoGait   bool

	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) gait(kind morphology.Kind) *softbody.Gait {
	if c.NoGait {
		return nil
	}
	freq := morphology.Lookup(kind).GaitFrequency
	if c.Gait == nil {
		return softbody.DefaultGait(freq)
	}
	g := *c.Gait
	if g.Frequency <= 0 {
		g.Frequency = freq
	}
	return &g
}

// CreatureSnapshot is one creature's pose and the control it last applied.
type CreatureSnapshot struct {
	Kind         string         `json:"kind"`
	Position     dynamo.Vec3    `json:"position"`
	Heading      float64        `json:"heading"`
	Speed        float64        `json:"speed"`
	LastHeading  float64        `json:"last_heading"`
	TotalHeading float64        `json:"total_heading"`
	Control      dynamo.Control `json:"control"`
	Driver       string         `json:"driver"`
}

// Snapshot is a self-contained copy of everything a host renders.
type Snapshot struct {
	Mode      string             `json:"mode"`
	Time      float64            `json:"time"`
	Started   bool               `json:"started"`
	Completed bool               `json:"completed"`
	Lap       int                `json:"lap"`
	TotalLaps int                `json:"total_laps"`
	Winner    int                `json:"winner"`
	Splits    []float64          `json:"splits,omitempty"`
	Creatures []CreatureSnapshot `json:"creatures"`
	Nodes     [][]dynamo.Vec2    `json:"nodes,omitempty"`
}

// Factory builds a backend.
type Factory func(cfg Config) (Engine, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available under mode. Registering a mode twice
// replaces the earlier factory.
func Register(mode string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[mode] = f
}

// New builds the backend registered for cfg.Mode. An empty mode means race.
func New(cfg Config) (Engine, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeRace
	}
	registryMu.RLock()
	f, ok := registry[cfg.Mode]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
	return f(cfg)
}

// Modes lists registered backends in sorted order.
func Modes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for m := range registry {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register(ModeRace, func(cfg Config) (Engine, error) { return NewRace(cfg), nil })
	Register(ModeContest, func(cfg Config) (Engine, error) { return NewContest(cfg), nil })
}

// loadModel parses a policy and checks it fits the observation/action
// interface.
func loadModel(args, weights string) (*policy.Model, error) {
	m, err := policy.Load(args, weights)
	if err != nil {
		return nil, err
	}
	if m.Inputs() != control.ObservationSize {
		return nil, dynamo.Errorf("load policy", dynamo.ErrPolicyFormat, "policy takes %d inputs, observation has %d", m.Inputs(), control.ObservationSize)
	}
	if m.Outputs() < 2 {
		return nil, dynamo.Errorf("load policy", dynamo.ErrPolicyFormat, "policy has %d outputs, need throttle and turn", m.Outputs())
	}
	return m, nil
}

func snapshotCreature(it *locomotion.Integrator, c dynamo.Control, driver string) CreatureSnapshot {
	s := it.State()
	return CreatureSnapshot{
		Kind:         s.Kind.String(),
		Position:     s.Position,
		Heading:      s.Heading,
		Speed:        s.Speed,
		LastHeading:  s.LastHeadingDelta,
		TotalHeading: s.TotalHeading,
		Control:      c,
		Driver:       driver,
	}
}

func meshNodes(it *locomotion.Integrator) []dynamo.Vec2 {
	if m := it.Mesh(); m != nil {
		return m.Nodes()
	}
	return nil
}
