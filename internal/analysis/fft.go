package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT returns the positive-frequency coefficients of a real signal,
// len(data)/2+1 values.
func FFT(data []float64) []complex128 {
	if len(data) == 0 {
		return nil
	}
	fft := fourier.NewFFT(len(data))
	return fft.Coefficients(nil, data)
}

// PowerSpectrum is the magnitude of each FFT coefficient.
func PowerSpectrum(data []float64) []float64 {
	coeffs := FFT(data)
	ps := make([]float64, len(coeffs))
	for i, c := range coeffs {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency finds the strongest non-DC component of samples taken at
// sampleRate Hz. It returns 0, 0 for traces too short to analyze.
func DominantFrequency(samples []float64, sampleRate float64) (freq, power float64) {
	n := len(samples)
	if n < 4 || sampleRate <= 0 {
		return 0, 0
	}

	mean := 0.0
	for _, s := range samples {
		mean += s
	}
	mean /= float64(n)
	centered := make([]float64, n)
	for i, s := range samples {
		centered[i] = s - mean
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, centered)
	best := 0
	for i := 1; i < len(coeffs); i++ {
		if p := cmplx.Abs(coeffs[i]); p > power {
			power = p
			best = i
		}
	}
	if best == 0 {
		return 0, 0
	}
	return fft.Freq(best) * sampleRate, power
}
