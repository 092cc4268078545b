package perceptual

import (
	"math"
)

// Loudness computes a perceptually weighted loudness decomposition of a
// power spectrum: a 24-band specific loudness vector plus the scalar spread
// and sharpness descriptors derived from it.
type Loudness struct {
	sampleRate int
	barkScale  *BarkScale
	gains      []float64 // Equal-loudness weight per band center
}

// LoudnessResult holds the per-frame perceptual descriptors
type LoudnessResult struct {
	SpecificLoudness []float64 `json:"specific_loudness"` // 24 bark bands
	Spread           float64   `json:"spread"`            // Distribution of loudness across bands
	Sharpness        float64   `json:"sharpness"`         // High-frequency loudness concentration
}

// NewLoudness creates a new perceptual loudness calculator
func NewLoudness(sampleRate int) *Loudness {
	bs := NewBarkScale()

	gains := make([]float64, NumBands)
	for i, center := range bs.BandCenters() {
		gains[i] = equalLoudnessGain(center)
	}

	return &Loudness{
		sampleRate: sampleRate,
		barkScale:  bs,
		gains:      gains,
	}
}

// Compute calculates the loudness decomposition of a one-sided power
// spectrum. A zero-energy spectrum yields all-zero output.
func (l *Loudness) Compute(powerSpectrum []float64) LoudnessResult {
	result := LoudnessResult{
		SpecificLoudness: make([]float64, NumBands),
	}

	energies := l.barkScale.BandEnergies(powerSpectrum, l.sampleRate)

	total := 0.0
	maxLoudness := 0.0
	for b, energy := range energies {
		weighted := energy * l.gains[b]
		if weighted <= 0 {
			continue
		}

		// Specific loudness per Zwicker's power law
		n := math.Pow(weighted, 0.23)
		result.SpecificLoudness[b] = n
		total += n
		if n > maxLoudness {
			maxLoudness = n
		}
	}

	if total <= 0 {
		return result
	}

	// Spread: how evenly loudness is distributed across the bands,
	// 0 for a single active band, approaching 1 for flat loudness
	rel := (total - maxLoudness) / total
	result.Spread = rel * rel

	// Sharpness: Zwicker/Aures weighted centroid over the bark axis,
	// with the upper bands (z > 14) emphasized
	weightedSum := 0.0
	for b, n := range result.SpecificLoudness {
		z := float64(b + 1)
		g := 1.0
		if z > 14 {
			g = 0.066 * math.Exp(0.171*z)
		}
		weightedSum += z * g * n
	}
	result.Sharpness = 0.11 * weightedSum / total

	return result
}
