package dynamo

import "math"

// Vec2 is a point in the creature's 2D mesh profile (z is implicitly 0).
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) IsValid() bool        { return finite(v.X) && finite(v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }

// Vec3 is a world-space position. Y is up; creatures move in the x/z plane.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }
func (v Vec3) Len() float64         { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Planar returns the horizontal distance from the origin.
func (v Vec3) Planar() float64 { return math.Hypot(v.X, v.Z) }

// Control is the normalized signal every control source produces.
// Keys and policies both map onto it so the integrator never needs to know
// which one is driving.
type Control struct {
	Throttle float64 `json:"throttle"`
	Turn     float64 `json:"turn"`
}

// Clamp bounds both channels to [-1, 1]. Non-finite values become 0.
func (c Control) Clamp() Control {
	return Control{Throttle: Clamp1(c.Throttle), Turn: Clamp1(c.Turn)}
}

// Effort is |throttle| + |turn|.
func (c Control) Effort() float64 {
	return math.Abs(c.Throttle) + math.Abs(c.Turn)
}

// Clamp1 bounds x to [-1, 1] and maps NaN/Inf to 0.
func Clamp1(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return Clamp(x, -1, 1)
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Finite reports whether x is neither NaN nor Inf.
func Finite(x float64) bool { return finite(x) }

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// SanitizeDt maps negative or non-finite frame deltas to 0.
func SanitizeDt(dt float64) float64 {
	if !finite(dt) || dt < 0 {
		return 0
	}
	return dt
}

// WrapAngle folds an angle into (-π, π].
func WrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
