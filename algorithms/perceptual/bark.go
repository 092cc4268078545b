package perceptual

import (
	"math"
)

// NumBands is the number of critical bands in the perceptual decomposition
const NumBands = 24

// BarkScale provides bark frequency conversion utilities based on the
// critical bands of human auditory perception
type BarkScale struct{}

// NewBarkScale creates a new bark scale converter
func NewBarkScale() *BarkScale {
	return &BarkScale{}
}

// HzToBark converts frequency in Hz to bark scale
// Using Traunmüller (1990) formula
func (bs *BarkScale) HzToBark(hz float64) float64 {
	return (26.81 * hz / (1960.0 + hz)) - 0.53
}

// BarkToHz converts bark scale to frequency in Hz
// Inverse of Traunmüller formula
func (bs *BarkScale) BarkToHz(bark float64) float64 {
	return 1960.0 * (bark + 0.53) / (26.28 - bark)
}

// CriticalBandEdges returns the 25 critical band edge frequencies in Hz
// bounding the 24 bark bands
func (bs *BarkScale) CriticalBandEdges() []float64 {
	return []float64{
		0, 100, 200, 300, 400, 510, 630, 770, 920, 1080,
		1270, 1480, 1720, 2000, 2320, 2700, 3150, 3700, 4400,
		5300, 6400, 7700, 9500, 12000, 15500,
	}
}

// BandCenters returns the center frequencies of the 24 bark bands
func (bs *BarkScale) BandCenters() []float64 {
	return []float64{
		50, 150, 250, 350, 450, 570, 700, 840, 1000, 1170,
		1370, 1600, 1850, 2150, 2500, 2900, 3400, 4000, 4800,
		5800, 7000, 8500, 10500, 13500,
	}
}

// BandEnergies accumulates a one-sided power spectrum into the 24 critical
// bands. Bands above the Nyquist frequency stay at zero.
func (bs *BarkScale) BandEnergies(powerSpectrum []float64, sampleRate int) []float64 {
	energies := make([]float64, NumBands)
	if len(powerSpectrum) < 2 {
		return energies
	}

	edges := bs.CriticalBandEdges()
	freqResolution := float64(sampleRate) / float64((len(powerSpectrum)-1)*2)

	for i, p := range powerSpectrum {
		freq := float64(i) * freqResolution
		band := bandIndex(edges, freq)
		if band >= 0 {
			energies[band] += p
		}
	}

	return energies
}

// bandIndex returns the band containing freq, or -1 above the last edge
func bandIndex(edges []float64, freq float64) int {
	for b := 1; b < len(edges); b++ {
		if freq < edges[b] {
			return b - 1
		}
	}
	return -1
}

// equalLoudnessGain returns a power-domain equal-loudness weight for the
// given frequency, derived from the A-weighting curve
func equalLoudnessGain(hz float64) float64 {
	if hz <= 0 {
		return 0
	}

	f2 := hz * hz
	num := 12194.0 * 12194.0 * f2 * f2
	den := (f2 + 20.6*20.6) *
		math.Sqrt((f2+107.7*107.7)*(f2+737.9*737.9)) *
		(f2 + 12194.0*12194.0)

	ra := num / den
	// +2.0 dB normalization so the gain is unity at 1 kHz
	db := 20.0*math.Log10(ra) + 2.0
	return math.Pow(10.0, db/10.0)
}
