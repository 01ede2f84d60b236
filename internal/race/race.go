// Package race is the single-creature lap race state machine.
//
// A race moves NotStarted → Running → Completed. Laps are counted from the
// creature's accumulated heading: a lap is credited when the heading has
// turned a full 2π past the last lap boundary. One Advance credits at most
// one lap; extra turns covered by a single oversized step are skipped.
package race

import (
	"fmt"
	"math"

	"github.com/san-kum/morphrace/internal/dynamo"
)

// Status is the race phase.
type Status uint8

const (
	NotStarted Status = iota
	Running
	Completed
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// lapEpsilon absorbs float error when the accumulated heading lands exactly
// on a multiple of 2π.
const lapEpsilon = 1e-9

// Race tracks laps and elapsed time. Timestamps passed to Start and Advance
// are host milliseconds; Elapsed is reported in seconds.
type Race struct {
	totalLaps int
	lap       int
	status    Status
	start     float64
	elapsed   float64
	splits    []float64
	// boundary is |heading| at the last lap boundary, a multiple of 2π.
	boundary float64
}

// New creates a race of totalLaps laps. Values below 1 are raised to 1.
func New(totalLaps int) *Race {
	if totalLaps < 1 {
		totalLaps = 1
	}
	return &Race{totalLaps: totalLaps}
}

// Start begins the race at now. It fails with dynamo.ErrInvalidTransition,
// changing nothing, unless the race has not started yet.
func (r *Race) Start(now float64) error {
	if r.status != NotStarted {
		return dynamo.Errorf("start race", dynamo.ErrInvalidTransition, "race is %s", r.status)
	}
	r.start = now
	r.elapsed = 0
	r.status = Running
	return nil
}

// Advance updates elapsed time and credits a lap when totalHeading has
// crossed the next full-turn threshold. It reports whether a lap was
// credited.
func (r *Race) Advance(now, totalHeading float64) bool {
	if r.status != Running {
		return false
	}
	if dynamo.Finite(now) {
		r.elapsed = (now - r.start) / 1000
	}
	if !dynamo.Finite(totalHeading) {
		return false
	}

	turned := math.Abs(totalHeading)
	if turned-r.boundary < 2*math.Pi-lapEpsilon {
		return false
	}

	r.boundary = math.Floor(turned/(2*math.Pi)+lapEpsilon) * 2 * math.Pi
	r.lap++
	r.splits = append(r.splits, r.elapsed)
	if r.lap >= r.totalLaps {
		r.status = Completed
	}
	return true
}

func (r *Race) Lap() int           { return r.lap }
func (r *Race) TotalLaps() int     { return r.totalLaps }
func (r *Race) Elapsed() float64   { return r.elapsed }
func (r *Race) StartTime() float64 { return r.start }
func (r *Race) Status() Status     { return r.status }
func (r *Race) Started() bool      { return r.status != NotStarted }
func (r *Race) Completed() bool    { return r.status == Completed }

// Splits returns the elapsed time at each lap crossing.
func (r *Race) Splits() []float64 {
	return append([]float64(nil), r.splits...)
}

// Progress is the completed fraction of the race, counting the partial lap.
func (r *Race) Progress(totalHeading float64) float64 {
	if r.status == Completed {
		return 1
	}
	partial := (math.Abs(totalHeading) - r.boundary) / (2 * math.Pi)
	return dynamo.Clamp((float64(r.lap)+dynamo.Clamp(partial, 0, 1))/float64(r.totalLaps), 0, 1)
}
