package spectral

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SpectralSlope computes the overall spectral tilt via linear regression of
// log power against log frequency
type SpectralSlope struct {
	sampleRate  int
	freqBins    []float64 // Pre-calculated frequency bins
	initialized bool

	// Reused regression buffers, sized on first use
	xs []float64
	ys []float64
}

// NewSpectralSlope creates a new spectral slope calculator
func NewSpectralSlope(sampleRate int) *SpectralSlope {
	return &SpectralSlope{
		sampleRate: sampleRate,
	}
}

// Compute calculates spectral slope for a single power spectrum.
// Bins with negligible power are excluded from the regression; a silent
// spectrum yields 0.
func (ss *SpectralSlope) Compute(powerSpectrum []float64) float64 {
	if len(powerSpectrum) < 2 {
		return 0
	}

	if !ss.initialized || len(ss.freqBins) != len(powerSpectrum) {
		ss.freqBins = FrequencyBins(len(powerSpectrum), ss.sampleRate)
		ss.initialized = true
	}

	ss.xs = ss.xs[:0]
	ss.ys = ss.ys[:0]

	for i, p := range powerSpectrum {
		if p > 1e-10 && ss.freqBins[i] > 0 {
			ss.xs = append(ss.xs, math.Log10(ss.freqBins[i]))
			ss.ys = append(ss.ys, math.Log10(p))
		}
	}

	if len(ss.xs) < 2 {
		return 0
	}

	_, slope := stat.LinearRegression(ss.xs, ss.ys, nil, false)
	return slope
}

// ComputeFrames processes multiple frames efficiently
func (ss *SpectralSlope) ComputeFrames(powerSpectrogram [][]float64) []float64 {
	if len(powerSpectrogram) == 0 {
		return []float64{}
	}

	slopes := make([]float64, len(powerSpectrogram))
	for t, powerSpectrum := range powerSpectrogram {
		slopes[t] = ss.Compute(powerSpectrum)
	}

	return slopes
}
