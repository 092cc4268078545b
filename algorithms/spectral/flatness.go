package spectral

import (
	"math"
)

// SpectralFlatness computes spectral flatness (Wiener entropy), the ratio of
// the geometric mean to the arithmetic mean of the power spectrum.
// Values near 0 indicate tonal content, values near 1 noise-like content.
type SpectralFlatness struct {
	minThreshold float64 // Minimum value to avoid log(0)
}

// NewSpectralFlatness creates a new spectral flatness calculator
func NewSpectralFlatness() *SpectralFlatness {
	return &SpectralFlatness{
		minThreshold: 1e-10,
	}
}

// Compute calculates spectral flatness for a single power spectrum.
// A silent spectrum yields 0 rather than a division by zero.
func (sf *SpectralFlatness) Compute(powerSpectrum []float64) float64 {
	if len(powerSpectrum) == 0 {
		return 0.0
	}

	// Geometric mean in the log domain for numerical stability
	logSum := 0.0
	validCount := 0

	for _, p := range powerSpectrum {
		if p > sf.minThreshold {
			logSum += math.Log(p)
			validCount++
		}
	}

	if validCount == 0 {
		return 0.0
	}

	geometricMean := math.Exp(logSum / float64(validCount))

	arithmeticMean := 0.0
	for _, p := range powerSpectrum {
		arithmeticMean += p
	}
	arithmeticMean /= float64(len(powerSpectrum))

	if arithmeticMean <= sf.minThreshold {
		return 0.0
	}

	flatness := geometricMean / arithmeticMean
	if flatness > 1.0 {
		flatness = 1.0
	}

	return flatness
}

// ComputeFrames processes multiple frames efficiently
func (sf *SpectralFlatness) ComputeFrames(powerSpectrogram [][]float64) []float64 {
	if len(powerSpectrogram) == 0 {
		return []float64{}
	}

	flatness := make([]float64, len(powerSpectrogram))
	for t, powerSpectrum := range powerSpectrogram {
		flatness[t] = sf.Compute(powerSpectrum)
	}

	return flatness
}
