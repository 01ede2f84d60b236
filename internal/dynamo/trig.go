package dynamo

import "math"

// TrigTable is a precomputed sine table with linear interpolation.
// Gait wobble is evaluated for every mesh node on every frame and only
// needs visual accuracy, so it reads from here instead of math.Sin.
type TrigTable struct {
	sin []float64
	n   int
}

// DefaultTrigTable has 4096 entries (~0.0015 rad resolution).
var DefaultTrigTable = NewTrigTable(4096)

// NewTrigTable builds a table with n samples over one period.
func NewTrigTable(n int) *TrigTable {
	if n < 4 {
		n = 4
	}
	t := &TrigTable{sin: make([]float64, n), n: n}
	for i := 0; i < n; i++ {
		t.sin[i] = math.Sin(float64(i) * 2 * math.Pi / float64(n))
	}
	return t
}

// lookup interpolates the table at phase x (radians) plus a quarter-turn
// offset expressed in table slots.
func (t *TrigTable) lookup(x float64, offset int) float64 {
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	idx := x * float64(t.n) / (2 * math.Pi)
	i := int(idx)
	frac := idx - float64(i)
	i0 := (i + offset) % t.n
	i1 := (i + 1 + offset) % t.n
	return t.sin[i0]*(1-frac) + t.sin[i1]*frac
}

// Sin returns an approximate sine of x.
func (t *TrigTable) Sin(x float64) float64 {
	return t.lookup(x, 0)
}

// Cos returns an approximate cosine of x.
func (t *TrigTable) Cos(x float64) float64 {
	return t.lookup(x, t.n/4)
}

// FastSin uses the default table.
func FastSin(x float64) float64 {
	return DefaultTrigTable.Sin(x)
}
