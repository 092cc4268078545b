package perceptual

import (
	"math"
	"testing"
)

const (
	sampleRate = 44100
	numBins    = 513
)

// binFor returns the FFT bin closest to the given frequency.
func binFor(freq float64) int {
	return int(math.Round(freq * float64((numBins-1)*2) / sampleRate))
}

func TestBarkRoundTrip(t *testing.T) {
	bs := NewBarkScale()
	for _, hz := range []float64{100, 500, 1000, 4000, 12000} {
		back := bs.BarkToHz(bs.HzToBark(hz))
		if math.Abs(back-hz)/hz > 1e-6 {
			t.Errorf("bark round trip of %v Hz returned %v", hz, back)
		}
	}
}

func TestCriticalBandEdges(t *testing.T) {
	bs := NewBarkScale()
	edges := bs.CriticalBandEdges()

	if len(edges) != NumBands+1 {
		t.Fatalf("got %d edges, want %d", len(edges), NumBands+1)
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			t.Errorf("edges not strictly increasing at %d: %v <= %v", i, edges[i], edges[i-1])
		}
	}
}

func TestBandEnergiesPlacement(t *testing.T) {
	bs := NewBarkScale()
	edges := bs.CriticalBandEdges()

	// 1 kHz sits in the band whose edges bracket it
	spectrum := make([]float64, numBins)
	spectrum[binFor(1000)] = 4.0

	energies := bs.BandEnergies(spectrum, sampleRate)
	if len(energies) != NumBands {
		t.Fatalf("got %d band energies, want %d", len(energies), NumBands)
	}

	active := -1
	for b, e := range energies {
		if e > 0 {
			if active != -1 {
				t.Fatalf("energy smeared across bands %d and %d", active, b)
			}
			active = b
		}
	}
	if active == -1 {
		t.Fatal("no band received the tone energy")
	}

	freq := float64(binFor(1000)) * sampleRate / float64((numBins-1)*2)
	if freq < edges[active] || freq >= edges[active+1] {
		t.Errorf("tone at %v Hz landed in band %d [%v, %v)", freq, active, edges[active], edges[active+1])
	}
}

func TestLoudnessSilence(t *testing.T) {
	l := NewLoudness(sampleRate)

	result := l.Compute(make([]float64, numBins))
	for b, n := range result.SpecificLoudness {
		if n != 0 {
			t.Errorf("silence: specific loudness band %d = %v, want 0", b, n)
		}
	}
	if result.Spread != 0 || result.Sharpness != 0 {
		t.Errorf("silence: spread = %v, sharpness = %v, want 0", result.Spread, result.Sharpness)
	}
}

func TestLoudnessSingleBandSpread(t *testing.T) {
	l := NewLoudness(sampleRate)

	spectrum := make([]float64, numBins)
	spectrum[binFor(1000)] = 2.0

	result := l.Compute(spectrum)
	if result.Spread != 0 {
		t.Errorf("single active band: spread = %v, want 0", result.Spread)
	}
}

func TestLoudnessSpreadGrowsWithBandCount(t *testing.T) {
	l := NewLoudness(sampleRate)

	narrow := make([]float64, numBins)
	narrow[binFor(1000)] = 1.0

	wide := make([]float64, numBins)
	for _, f := range []float64{200, 500, 1000, 2000, 4000, 8000} {
		wide[binFor(f)] = 1.0
	}

	if nr, wr := l.Compute(narrow), l.Compute(wide); wr.Spread <= nr.Spread {
		t.Errorf("spread did not grow with band count: narrow %v, wide %v", nr.Spread, wr.Spread)
	}
}

func TestSharpnessFavorsHighFrequencies(t *testing.T) {
	l := NewLoudness(sampleRate)

	low := make([]float64, numBins)
	low[binFor(250)] = 1.0

	high := make([]float64, numBins)
	high[binFor(8000)] = 1.0

	lowResult, highResult := l.Compute(low), l.Compute(high)
	if highResult.Sharpness <= lowResult.Sharpness {
		t.Errorf("sharpness of a high tone (%v) should exceed a low tone (%v)",
			highResult.Sharpness, lowResult.Sharpness)
	}
}
