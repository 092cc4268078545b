package analysis

import (
	"fmt"
	"iter"
	"math"

	"github.com/soundvault/timbre/algorithms/chroma"
	"github.com/soundvault/timbre/algorithms/perceptual"
	"github.com/soundvault/timbre/algorithms/spectral"
	"github.com/soundvault/timbre/algorithms/windowing"
	"github.com/soundvault/timbre/logging"
)

// Default analysis parameters (50% overlap)
const (
	DefaultWindowSize = 1024
	DefaultHopSize    = 512
)

// FrameDescriptors holds every raw descriptor computed from one frame
type FrameDescriptors struct {
	RMS    float64
	ZCR    float64
	Energy float64

	Centroid float64
	Flatness float64
	Slope    float64
	Rolloff  float64
	Spread   float64
	Skewness float64
	Kurtosis float64

	PerceptualSpread    float64
	PerceptualSharpness float64

	Chroma   []float64
	MFCC     []float64
	Loudness []float64
}

// Analyzer turns a mono PCM buffer into windowed FFT frames and per-frame
// descriptors, and folds them into one RawFeatureSet per file.
// An Analyzer is bound to one sample rate and frame geometry; it is not
// safe for concurrent use.
type Analyzer struct {
	sampleRate int
	windowSize int
	hopSize    int

	window   *windowing.Hann
	fft      *spectral.FFT
	moments  *spectral.SpectralMoments
	flatness *spectral.SpectralFlatness
	rolloff  *spectral.SpectralRolloff
	slope    *spectral.SpectralSlope
	mfcc     *spectral.MFCC
	chroma   *chroma.Chroma
	loudness *perceptual.Loudness

	frameBuffer []float64
	logger      logging.Logger
}

// NewAnalyzer creates an analyzer for the given sample rate with the
// default 1024/512 frame geometry
func NewAnalyzer(sampleRate int) (*Analyzer, error) {
	return NewAnalyzerWithParams(sampleRate, DefaultWindowSize, DefaultHopSize)
}

// NewAnalyzerWithParams creates an analyzer with a custom frame geometry
func NewAnalyzerWithParams(sampleRate, windowSize, hopSize int) (*Analyzer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if hopSize <= 0 || hopSize > windowSize {
		return nil, fmt.Errorf("hop size must be in (0, %d], got %d", windowSize, hopSize)
	}

	return &Analyzer{
		sampleRate:  sampleRate,
		windowSize:  windowSize,
		hopSize:     hopSize,
		window:      windowing.NewHann(windowSize),
		fft:         spectral.NewFFT(),
		moments:     spectral.NewSpectralMoments(sampleRate),
		flatness:    spectral.NewSpectralFlatness(),
		rolloff:     spectral.NewSpectralRolloff(sampleRate),
		slope:       spectral.NewSpectralSlope(sampleRate),
		mfcc:        spectral.NewMFCC(sampleRate, MFCCCoeffs),
		chroma:      chroma.NewChroma(sampleRate),
		loudness:    perceptual.NewLoudness(sampleRate),
		frameBuffer: make([]float64, windowSize),
		logger: logging.WithFields(logging.Fields{
			"component":   "analyzer",
			"sample_rate": sampleRate,
		}),
	}, nil
}

// FrameDescriptors returns a lazy, finite, restartable sequence of per-frame
// descriptors over the PCM buffer. Descriptor computation stops early when
// the consumer stops iterating.
func (a *Analyzer) FrameDescriptors(pcm []float64) iter.Seq[FrameDescriptors] {
	return func(yield func(FrameDescriptors) bool) {
		for frame := range Frames(pcm, a.windowSize, a.hopSize) {
			fd, err := a.analyzeFrame(frame)
			if err != nil {
				a.logger.Error(err, "frame analysis failed")
				return
			}
			if !yield(fd) {
				return
			}
		}
	}
}

// Analyze folds the per-frame descriptor sequence of a mono PCM buffer into
// one RawFeatureSet: the arithmetic mean across frames for every scalar and
// every array position, accumulated as running means.
func (a *Analyzer) Analyze(pcm []float64) (*RawFeatureSet, error) {
	if len(pcm) < a.windowSize {
		return nil, fmt.Errorf("signal too short: %d samples, need at least %d", len(pcm), a.windowSize)
	}

	var agg aggregator
	for frame := range Frames(pcm, a.windowSize, a.hopSize) {
		fd, err := a.analyzeFrame(frame)
		if err != nil {
			return nil, err
		}
		agg.add(fd)
	}

	result := agg.result()
	if err := result.Validate(); err != nil {
		return nil, err
	}

	return result, nil
}

// analyzeFrame computes every descriptor for a single frame. The time-domain
// descriptors are taken before windowing; the spectral descriptors operate
// on the one-sided power spectrum of the Hann-windowed frame.
func (a *Analyzer) analyzeFrame(frame []float64) (FrameDescriptors, error) {
	fd := FrameDescriptors{}

	sumSquares := 0.0
	crossings := 0
	for i, s := range frame {
		sumSquares += s * s
		if i > 0 && ((frame[i-1] >= 0 && s < 0) || (frame[i-1] < 0 && s >= 0)) {
			crossings++
		}
	}
	fd.RMS = math.Sqrt(sumSquares / float64(len(frame)))
	fd.ZCR = float64(crossings) / float64(len(frame)-1)
	fd.Energy = sumSquares

	copy(a.frameBuffer, frame)
	if err := a.window.ApplyInPlace(a.frameBuffer); err != nil {
		return fd, err
	}

	powerSpectrum := a.fft.PowerSpectrum(a.frameBuffer)

	m := a.moments.Compute(powerSpectrum)
	fd.Centroid = m.Centroid
	fd.Spread = m.Spread
	fd.Skewness = m.Skewness
	fd.Kurtosis = m.Kurtosis

	fd.Flatness = a.flatness.Compute(powerSpectrum)
	fd.Rolloff = a.rolloff.Compute(powerSpectrum)
	fd.Slope = a.slope.Compute(powerSpectrum)

	mfccCoeffs, err := a.mfcc.Compute(powerSpectrum)
	if err != nil {
		return fd, fmt.Errorf("mfcc: %w", err)
	}
	fd.MFCC = mfccCoeffs

	fd.Chroma = a.chroma.Compute(powerSpectrum)

	loud := a.loudness.Compute(powerSpectrum)
	fd.Loudness = loud.SpecificLoudness
	fd.PerceptualSpread = loud.Spread
	fd.PerceptualSharpness = loud.Sharpness

	return fd, nil
}

// aggregator folds frame descriptors into per-file means. Running means are
// used instead of naive sums so long files cannot overflow the accumulators.
type aggregator struct {
	n   float64
	set RawFeatureSet
}

func (g *aggregator) add(fd FrameDescriptors) {
	g.n++
	n := g.n
	s := &g.set

	runningMean(&s.RMS, fd.RMS, n)
	runningMean(&s.ZCR, fd.ZCR, n)
	runningMean(&s.Energy, fd.Energy, n)
	runningMean(&s.SpectralCentroid, fd.Centroid, n)
	runningMean(&s.SpectralFlatness, fd.Flatness, n)
	runningMean(&s.SpectralSlope, fd.Slope, n)
	runningMean(&s.SpectralRolloff, fd.Rolloff, n)
	runningMean(&s.SpectralSpread, fd.Spread, n)
	runningMean(&s.SpectralSkewness, fd.Skewness, n)
	runningMean(&s.SpectralKurtosis, fd.Kurtosis, n)
	runningMean(&s.PerceptualSpread, fd.PerceptualSpread, n)
	runningMean(&s.PerceptualSharpness, fd.PerceptualSharpness, n)

	for i := range s.Chroma {
		runningMean(&s.Chroma[i], fd.Chroma[i], n)
	}
	for i := range s.MFCC {
		runningMean(&s.MFCC[i], fd.MFCC[i], n)
	}
	for i := range s.PerceptualLoudness {
		runningMean(&s.PerceptualLoudness[i], fd.Loudness[i], n)
	}
}

func (g *aggregator) result() *RawFeatureSet {
	set := g.set
	return &set
}

func runningMean(mean *float64, value, n float64) {
	*mean += (value - *mean) / n
}
