package analysis

import "math"

// Sample is one frame of a creature's ground motion.
type Sample struct {
	X, Z    float64
	Heading float64
	Speed   float64
}

type TrackStats struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
	PathLength float64
	// MeanRadius is the mean turning radius |speed|/|yaw rate| over frames
	// that were turning. 0 when the creature never turned.
	MeanRadius float64
	Turns      float64 // net heading change in full turns
}

// Track summarizes samples recorded every dt seconds.
func Track(samples []Sample, dt float64) TrackStats {
	var st TrackStats
	if len(samples) == 0 {
		return st
	}
	st.MinX, st.MaxX = samples[0].X, samples[0].X
	st.MinZ, st.MaxZ = samples[0].Z, samples[0].Z

	var radiusSum float64
	var turning int
	for i := 1; i < len(samples); i++ {
		a, b := samples[i-1], samples[i]
		st.MinX = math.Min(st.MinX, b.X)
		st.MaxX = math.Max(st.MaxX, b.X)
		st.MinZ = math.Min(st.MinZ, b.Z)
		st.MaxZ = math.Max(st.MaxZ, b.Z)
		st.PathLength += math.Hypot(b.X-a.X, b.Z-a.Z)

		if dt <= 0 {
			continue
		}
		yaw := math.Abs(b.Heading-a.Heading) / dt
		if yaw > 1e-6 && b.Speed != 0 {
			radiusSum += math.Abs(b.Speed) / yaw
			turning++
		}
	}
	if turning > 0 {
		st.MeanRadius = radiusSum / float64(turning)
	}
	st.Turns = (samples[len(samples)-1].Heading - samples[0].Heading) / (2 * math.Pi)
	return st
}
