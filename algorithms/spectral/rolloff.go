package spectral

// DefaultRolloffThreshold is the cumulative-energy fraction below the
// rolloff frequency
const DefaultRolloffThreshold = 0.85

// SpectralRolloff computes the frequency below which a fixed fraction of the
// total spectral energy is concentrated
type SpectralRolloff struct {
	sampleRate  int
	threshold   float64
	freqBins    []float64 // Pre-calculated frequency bins
	initialized bool
}

// NewSpectralRolloff creates a new spectral rolloff calculator with the
// default 85th-percentile threshold
func NewSpectralRolloff(sampleRate int) *SpectralRolloff {
	return &SpectralRolloff{
		sampleRate: sampleRate,
		threshold:  DefaultRolloffThreshold,
	}
}

// Compute calculates spectral rolloff for a single power spectrum.
// A silent spectrum yields 0.
func (sr *SpectralRolloff) Compute(powerSpectrum []float64) float64 {
	if len(powerSpectrum) == 0 {
		return 0.0
	}

	if !sr.initialized || len(sr.freqBins) != len(powerSpectrum) {
		sr.freqBins = FrequencyBins(len(powerSpectrum), sr.sampleRate)
		sr.initialized = true
	}

	totalEnergy := 0.0
	for _, p := range powerSpectrum {
		totalEnergy += p
	}

	if totalEnergy == 0 {
		return 0
	}

	targetEnergy := sr.threshold * totalEnergy
	cumulativeEnergy := 0.0

	for i, p := range powerSpectrum {
		cumulativeEnergy += p
		if cumulativeEnergy >= targetEnergy {
			return sr.freqBins[i]
		}
	}

	return sr.freqBins[len(sr.freqBins)-1]
}

// ComputeFrames processes multiple frames efficiently
func (sr *SpectralRolloff) ComputeFrames(powerSpectrogram [][]float64) []float64 {
	if len(powerSpectrogram) == 0 {
		return []float64{}
	}

	rolloffs := make([]float64, len(powerSpectrogram))
	for t, powerSpectrum := range powerSpectrogram {
		rolloffs[t] = sr.Compute(powerSpectrum)
	}

	return rolloffs
}
