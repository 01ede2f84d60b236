package metrics

import (
	"github.com/san-kum/morphrace/internal/dynamo"
	"github.com/san-kum/morphrace/internal/engine"
)

// LapTime is the elapsed time at which the run completed, or 0 if it never
// did.
type LapTime struct {
	name string
	at   float64
}

func NewLapTime() *LapTime { return &LapTime{name: "finish_time"} }

func (l *LapTime) Name() string { return l.name }

func (l *LapTime) Observe(snap engine.Snapshot, u dynamo.Control) {
	if snap.Completed && l.at == 0 {
		l.at = snap.Time
	}
}

func (l *LapTime) Value() float64 { return l.at }
func (l *LapTime) Reset()         { l.at = 0 }

// LeadShare is the fraction of frames in which creature 1 is ahead of
// creature 2 along x.
type LeadShare struct {
	name    string
	ahead   int
	samples int
}

func NewLeadShare() *LeadShare { return &LeadShare{name: "lead_share"} }

func (l *LeadShare) Name() string { return l.name }

func (l *LeadShare) Observe(snap engine.Snapshot, u dynamo.Control) {
	if len(snap.Creatures) < 2 {
		return
	}
	l.samples++
	if snap.Creatures[0].Position.X > snap.Creatures[1].Position.X {
		l.ahead++
	}
}

func (l *LeadShare) Value() float64 {
	if l.samples == 0 {
		return 0
	}
	return float64(l.ahead) / float64(l.samples)
}

func (l *LeadShare) Reset() {
	l.ahead = 0
	l.samples = 0
}
