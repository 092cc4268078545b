package chroma

import (
	"math"
)

// NumBins is the number of pitch classes in a chroma vector
// (C, C#, D, D#, E, F, F#, G, G#, A, A#, B)
const NumBins = 12

// Chroma folds spectral energy into the 12 pitch classes, octave-independent.
// Frequencies are mapped to MIDI note numbers relative to the tuning
// reference (A4) and wrapped modulo 12.
type Chroma struct {
	sampleRate int
	tuningFreq float64 // A4 frequency (default 440 Hz)
	minFreq    float64 // Minimum frequency to consider
	maxFreq    float64 // Maximum frequency to consider

	mapping     []int // FFT bin -> chroma bin, -1 outside the valid range
	initialized bool
}

// NewChroma creates a chroma calculator with standard A4=440Hz tuning over
// the 80 Hz - 8 kHz band
func NewChroma(sampleRate int) *Chroma {
	return &Chroma{
		sampleRate: sampleRate,
		tuningFreq: 440.0,
		minFreq:    80.0,   // Approximate E2
		maxFreq:    8000.0, // High enough for harmonics
	}
}

// Compute folds a one-sided power spectrum into a unit-sum chroma vector.
// A zero-energy spectrum yields an all-zero vector.
func (c *Chroma) Compute(powerSpectrum []float64) []float64 {
	chromaVector := make([]float64, NumBins)
	if len(powerSpectrum) == 0 {
		return chromaVector
	}

	if !c.initialized || len(c.mapping) != len(powerSpectrum) {
		c.initializeMapping(len(powerSpectrum))
	}

	for f, p := range powerSpectrum {
		bin := c.mapping[f]
		if bin >= 0 {
			chromaVector[bin] += p
		}
	}

	normalizeChroma(chromaVector)
	return chromaVector
}

// initializeMapping pre-calculates the FFT bin to pitch class mapping
func (c *Chroma) initializeMapping(freqBins int) {
	freqResolution := float64(c.sampleRate) / float64((freqBins-1)*2)
	c.mapping = make([]int, freqBins)

	for f := range freqBins {
		frequency := float64(f) * freqResolution

		if frequency < c.minFreq || frequency > c.maxFreq {
			c.mapping[f] = -1
			continue
		}

		midiNote := c.frequencyToMIDI(frequency)
		bin := int(math.Round(midiNote)) % NumBins
		if bin < 0 {
			bin += NumBins
		}
		c.mapping[f] = bin
	}

	c.initialized = true
}

// frequencyToMIDI converts frequency to MIDI note number
// A4 (tuning reference) = MIDI note 69
func (c *Chroma) frequencyToMIDI(frequency float64) float64 {
	if frequency <= 0 {
		return 0
	}
	return 69.0 + 12.0*math.Log2(frequency/c.tuningFreq)
}

// normalizeChroma normalizes a chroma vector to unit sum
func normalizeChroma(chromaVector []float64) {
	totalEnergy := 0.0
	for _, energy := range chromaVector {
		totalEnergy += energy
	}

	if totalEnergy > 1e-10 {
		for i := range chromaVector {
			chromaVector[i] /= totalEnergy
		}
	}
}
