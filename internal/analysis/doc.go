// Package analysis extracts summary signals from recorded runs.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectral content of a trace,
//     used to recover the gait wobble frequency from mesh height or speed
//   - [Track]: geometry of a creature's ground path
//
// # Gait Frequency
//
//	f, _ := analysis.DominantFrequency(heights, 1/dt)
package analysis
