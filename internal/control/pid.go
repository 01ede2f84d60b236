package control

import "github.com/san-kum/morphrace/internal/dynamo"

// PID tracks a scalar setpoint. Error is Target - measured.
type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Target   float64
	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		first:  true,
	}
}

// Update returns the controller output for a measurement taken at time t.
func (p *PID) Update(measured, t float64) float64 {
	return p.UpdateError(p.Target-measured, t)
}

// UpdateError is Update for callers that compute the error themselves,
// e.g. when it must be wrapped.
func (p *PID) UpdateError(err, t float64) float64 {
	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.Kp * err
	}

	dt := t - p.prevT
	if dt <= 0 {
		return p.Kp*err + p.Ki*p.integral
	}
	p.integral += err * dt
	derivative := (err - p.prevErr) / dt
	p.prevErr = err
	p.prevT = t

	return p.Kp*err + p.Ki*p.integral + p.Kd*derivative
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// Autopilot holds a heading at constant throttle. It is what drives contest
// creatures configured as bots.
type Autopilot struct {
	Throttle float64
	pid      *PID
}

// NewAutopilot steers toward heading (radians) at the given throttle.
func NewAutopilot(heading, throttle float64) *Autopilot {
	return &Autopilot{
		Throttle: throttle,
		pid:      NewPID(2.0, 0.1, 0.2, heading),
	}
}

func (a *Autopilot) Compute(obs Observation) dynamo.Control {
	err := dynamo.WrapAngle(a.pid.Target - obs.Heading())
	return dynamo.Control{
		Throttle: a.Throttle,
		Turn:     a.pid.UpdateError(err, obs.Time),
	}.Clamp()
}

func (a *Autopilot) Reset() { a.pid.Reset() }
