package analysis

import (
	"math"
	"testing"
)

func TestDominantFrequency(t *testing.T) {
	const rate = 60.0
	samples := make([]float64, 600)
	for i := range samples {
		tt := float64(i) / rate
		samples[i] = 3 + math.Sin(2*math.Pi*2.5*tt) + 0.2*math.Sin(2*math.Pi*9*tt)
	}
	f, p := DominantFrequency(samples, rate)
	if math.Abs(f-2.5) > 0.11 {
		t.Errorf("expected 2.5 Hz, got %f", f)
	}
	if p <= 0 {
		t.Errorf("expected positive power, got %f", p)
	}
}

func TestDominantFrequencyDegenerate(t *testing.T) {
	if f, _ := DominantFrequency([]float64{1, 2}, 60); f != 0 {
		t.Errorf("expected 0 for short trace, got %f", f)
	}
	flat := make([]float64, 64)
	for i := range flat {
		flat[i] = 4
	}
	if f, _ := DominantFrequency(flat, 60); f != 0 {
		t.Errorf("expected 0 for constant trace, got %f", f)
	}
}

func TestPowerSpectrum(t *testing.T) {
	data := make([]float64, 64)
	for i := range data {
		data[i] = math.Cos(2 * math.Pi * 4 * float64(i) / 64)
	}
	ps := PowerSpectrum(data)
	if len(ps) != 33 {
		t.Fatalf("expected 33 bins, got %d", len(ps))
	}
	best := 0
	for i := range ps {
		if ps[i] > ps[best] {
			best = i
		}
	}
	if best != 4 {
		t.Errorf("expected peak at bin 4, got %d", best)
	}
	if FFT(nil) != nil {
		t.Error("expected nil for empty input")
	}
}

func TestTrackCircle(t *testing.T) {
	const dt = 1.0 / 60
	const speed, yaw = 15.0, 3.0
	var samples []Sample
	x, z, h := 10.0, 0.0, 0.0
	for i := 0; i < 126; i++ {
		samples = append(samples, Sample{X: x, Z: z, Heading: h, Speed: speed})
		h += yaw * dt
		x += math.Sin(h) * speed * dt
		z += math.Cos(h) * speed * dt
	}
	st := Track(samples, dt)
	if math.Abs(st.MeanRadius-speed/yaw) > 1e-9 {
		t.Errorf("expected radius %f, got %f", speed/yaw, st.MeanRadius)
	}
	if st.Turns < 0.99 || st.Turns > 1.01 {
		t.Errorf("expected about one turn, got %f", st.Turns)
	}
	if math.Abs((st.MaxX-st.MinX)-2*speed/yaw) > 0.3 {
		t.Errorf("expected width near %f, got %f", 2*speed/yaw, st.MaxX-st.MinX)
	}
}

func TestTrackEmpty(t *testing.T) {
	if st := Track(nil, 0.1); st != (TrackStats{}) {
		t.Errorf("expected zero stats, got %+v", st)
	}
}
