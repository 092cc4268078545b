package spectral

import (
	"math"
)

// SpectralMoments computes the statistical-moment shape descriptors of a
// power spectrum treated as a distribution over frequency: centroid (first
// moment), spread (square root of the second central moment), skewness
// (third standardized moment) and kurtosis (fourth standardized moment).
type SpectralMoments struct {
	sampleRate  int
	freqBins    []float64 // Pre-calculated frequency bins for efficiency
	initialized bool
}

// MomentsResult holds the four spectral shape descriptors of one spectrum
type MomentsResult struct {
	Centroid float64 `json:"centroid"`
	Spread   float64 `json:"spread"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
}

// NewSpectralMoments creates a new spectral moments calculator
func NewSpectralMoments(sampleRate int) *SpectralMoments {
	return &SpectralMoments{
		sampleRate: sampleRate,
	}
}

// Compute calculates the shape descriptors for a single power spectrum.
// A zero-energy spectrum yields all-zero descriptors rather than NaN.
func (sm *SpectralMoments) Compute(powerSpectrum []float64) MomentsResult {
	if len(powerSpectrum) == 0 {
		return MomentsResult{}
	}

	if !sm.initialized || len(sm.freqBins) != len(powerSpectrum) {
		sm.freqBins = FrequencyBins(len(powerSpectrum), sm.sampleRate)
		sm.initialized = true
	}

	total := 0.0
	for _, p := range powerSpectrum {
		total += p
	}
	if total == 0 {
		return MomentsResult{}
	}

	centroid := 0.0
	for i, p := range powerSpectrum {
		centroid += sm.freqBins[i] * p / total
	}

	m2 := 0.0
	m3 := 0.0
	m4 := 0.0
	for i, p := range powerSpectrum {
		d := sm.freqBins[i] - centroid
		w := p / total
		m2 += d * d * w
		m3 += d * d * d * w
		m4 += d * d * d * d * w
	}

	spread := math.Sqrt(m2)

	result := MomentsResult{
		Centroid: centroid,
		Spread:   spread,
	}

	// A flat (single-bin) distribution has zero spread; the standardized
	// moments are undefined there and reported as 0
	if spread > 0 {
		result.Skewness = m3 / (spread * spread * spread)
		result.Kurtosis = m4 / (m2 * m2)
	}

	return result
}

// ComputeFrames processes multiple frames efficiently
func (sm *SpectralMoments) ComputeFrames(powerSpectrogram [][]float64) []MomentsResult {
	if len(powerSpectrogram) == 0 {
		return []MomentsResult{}
	}

	results := make([]MomentsResult, len(powerSpectrogram))
	for t, powerSpectrum := range powerSpectrogram {
		results[t] = sm.Compute(powerSpectrum)
	}

	return results
}
