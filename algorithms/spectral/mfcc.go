package spectral

import (
	"fmt"
	"math"
)

const logFloor = 1e-10

// MFCC computes Mel-Frequency Cepstral Coefficients from a power spectrum
// via a mel filterbank, log compression and a type-II discrete cosine
// transform
type MFCC struct {
	numCoefficients int
	numMelFilters   int
	sampleRate      int
	lowFreq         float64
	highFreq        float64

	melScale    *MelScale
	filterBank  [][]float64
	dctMatrix   [][]float64
	initialized bool
}

// NewMFCC creates a new MFCC computer with default filterbank parameters
// (26 mel filters spanning 0 Hz to Nyquist)
func NewMFCC(sampleRate, numCoefficients int) *MFCC {
	if numCoefficients <= 0 {
		numCoefficients = 13
	}
	return &MFCC{
		numCoefficients: numCoefficients,
		numMelFilters:   26,
		sampleRate:      sampleRate,
		lowFreq:         0.0,
		highFreq:        float64(sampleRate) / 2.0,
		melScale:        NewMelScale(),
	}
}

// Initialize prepares the filterbank and DCT matrix for the given FFT size
func (m *MFCC) Initialize(fftSize int) error {
	if fftSize <= 0 {
		return fmt.Errorf("invalid FFT size: %d", fftSize)
	}

	m.filterBank = m.melScale.CreateFilterBank(
		m.numMelFilters,
		fftSize,
		m.sampleRate,
		m.lowFreq,
		m.highFreq,
	)

	if len(m.filterBank) == 0 {
		return fmt.Errorf("failed to create mel filter bank")
	}

	m.createDCTMatrix()

	m.initialized = true
	return nil
}

// Compute calculates MFCC coefficients from a one-sided power spectrum.
// A zero-energy spectrum yields all-zero coefficients.
func (m *MFCC) Compute(powerSpectrum []float64) ([]float64, error) {
	if len(powerSpectrum) == 0 {
		return nil, fmt.Errorf("empty power spectrum")
	}

	if !m.initialized {
		fftSize := (len(powerSpectrum) - 1) * 2
		if err := m.Initialize(fftSize); err != nil {
			return nil, fmt.Errorf("failed to initialize MFCC: %w", err)
		}
	}

	total := 0.0
	for _, p := range powerSpectrum {
		total += p
	}
	if total == 0 {
		return make([]float64, m.numCoefficients), nil
	}

	melSpectrum := m.melScale.ApplyFilterBank(powerSpectrum, m.filterBank)

	// Log compression with a floor to avoid log(0)
	logMelSpectrum := make([]float64, len(melSpectrum))
	for i, mel := range melSpectrum {
		if mel < logFloor {
			mel = logFloor
		}
		logMelSpectrum[i] = math.Log(mel)
	}

	return m.applyDCT(logMelSpectrum), nil
}

// NumCoefficients returns the number of coefficients produced per frame
func (m *MFCC) NumCoefficients() int {
	return m.numCoefficients
}

// createDCTMatrix creates the orthonormal DCT-II matrix
func (m *MFCC) createDCTMatrix() {
	m.dctMatrix = make([][]float64, m.numCoefficients)

	for k := range m.numCoefficients {
		m.dctMatrix[k] = make([]float64, m.numMelFilters)

		for n := range m.numMelFilters {
			m.dctMatrix[k][n] = math.Cos(math.Pi * float64(k) * (float64(n) + 0.5) / float64(m.numMelFilters))

			if k == 0 {
				m.dctMatrix[k][n] *= math.Sqrt(1.0 / float64(m.numMelFilters))
			} else {
				m.dctMatrix[k][n] *= math.Sqrt(2.0 / float64(m.numMelFilters))
			}
		}
	}
}

// applyDCT applies the discrete cosine transform
func (m *MFCC) applyDCT(logMelSpectrum []float64) []float64 {
	coeffs := make([]float64, m.numCoefficients)

	for k := range m.numCoefficients {
		sum := 0.0
		for n := 0; n < len(logMelSpectrum) && n < len(m.dctMatrix[k]); n++ {
			sum += logMelSpectrum[n] * m.dctMatrix[k][n]
		}
		coeffs[k] = sum
	}

	return coeffs
}
