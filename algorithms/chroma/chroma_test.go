package chroma

import (
	"math"
	"testing"
)

const (
	sampleRate = 44100
	numBins    = 513 // one-sided spectrum of a 1024-point FFT
)

// binFor returns the FFT bin closest to the given frequency.
func binFor(freq float64) int {
	return int(math.Round(freq * float64((numBins-1)*2) / sampleRate))
}

func TestComputePureTone(t *testing.T) {
	c := NewChroma(sampleRate)

	// Energy at 440 Hz folds to pitch class 9 (A)
	spectrum := make([]float64, numBins)
	spectrum[binFor(440)] = 1.0

	v := c.Compute(spectrum)
	if len(v) != NumBins {
		t.Fatalf("chroma vector has %d bins, want %d", len(v), NumBins)
	}

	peak := 0
	for i := range v {
		if v[i] > v[peak] {
			peak = i
		}
	}
	if peak != 9 {
		t.Errorf("peak at pitch class %d, want 9 (A): %v", peak, v)
	}
}

func TestComputeOctaveInvariance(t *testing.T) {
	c := NewChroma(sampleRate)

	// Octaves of A; 110 Hz is skipped because the 43 Hz bin resolution
	// cannot place it on pitch
	for _, freq := range []float64{220, 440, 880, 1760} {
		spectrum := make([]float64, numBins)
		spectrum[binFor(freq)] = 1.0

		v := c.Compute(spectrum)
		peak := 0
		for i := range v {
			if v[i] > v[peak] {
				peak = i
			}
		}
		if peak != 9 {
			t.Errorf("%v Hz folds to pitch class %d, want 9", freq, peak)
		}
	}
}

func TestComputeUnitSum(t *testing.T) {
	c := NewChroma(sampleRate)

	spectrum := make([]float64, numBins)
	for i := range spectrum {
		spectrum[i] = float64(i%7) * 0.3
	}

	v := c.Compute(spectrum)
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("chroma vector sums to %v, want 1", sum)
	}
}

func TestComputeSilence(t *testing.T) {
	c := NewChroma(sampleRate)

	v := c.Compute(make([]float64, numBins))
	for i, x := range v {
		if x != 0 {
			t.Errorf("silence: chroma[%d] = %v, want 0", i, x)
		}
	}
}

func TestComputeIgnoresOutOfBandEnergy(t *testing.T) {
	c := NewChroma(sampleRate)

	// Only sub-bass energy, below the 80 Hz floor
	spectrum := make([]float64, numBins)
	spectrum[0] = 100.0
	spectrum[1] = 100.0 // ~43 Hz

	v := c.Compute(spectrum)
	for i, x := range v {
		if x != 0 {
			t.Errorf("out-of-band energy leaked into chroma[%d] = %v", i, x)
		}
	}
}
