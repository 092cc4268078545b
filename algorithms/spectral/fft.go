package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality backed by mjibson/go-dsp
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the Fast Fourier Transform of a real signal
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// go-dsp handles all sizes efficiently, including non-power-of-2
	return fft.FFTReal(x)
}

// MagnitudeSpectrum computes the one-sided magnitude spectrum of a real
// signal. Only the positive frequencies are kept, DC and Nyquist included,
// so the result has len(x)/2+1 bins.
func (f *FFT) MagnitudeSpectrum(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	fftResult := fft.FFTReal(x)
	freqBins := min(len(fftResult), len(fftResult)/2+1)

	magnitude := make([]float64, freqBins)
	for i := range freqBins {
		magnitude[i] = cmplx.Abs(fftResult[i])
	}

	return magnitude
}

// PowerSpectrum computes the one-sided power spectrum of a real signal
func (f *FFT) PowerSpectrum(x []float64) []float64 {
	magnitude := f.MagnitudeSpectrum(x)

	power := make([]float64, len(magnitude))
	for i, mag := range magnitude {
		power[i] = mag * mag
	}

	return power
}

// FrequencyBins returns the center frequency in Hz of every bin of a
// one-sided spectrum with numBins bins at the given sample rate
func FrequencyBins(numBins, sampleRate int) []float64 {
	bins := make([]float64, numBins)
	for i := range numBins {
		bins[i] = float64(i) * float64(sampleRate) / float64((numBins-1)*2)
	}
	return bins
}
