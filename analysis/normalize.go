package analysis

import (
	"math"
)

// Fixed normalization references. They are part of the persisted feature
// format: changing any of them invalidates previously stored vectors.
const (
	// Frequencies (centroid, rolloff, spread) are scaled against half the
	// 44.1 kHz reference rate regardless of the source sample rate
	refNyquistHz = 22050.0

	// Upper bound for per-frame energy of a full-scale signal
	refEnergy = float64(DefaultWindowSize)

	// Sharpness of a full-scale high-frequency signal lands around 4-5 acum
	refSharpness = 5.0

	// Spectral kurtosis saturation point for the log compression
	refKurtosis = 100.0

	// MFCC coefficients are scaled down before squashing so the usual
	// dynamic range maps away from the saturated tails
	mfccScale = 10.0
)

// Normalize maps a RawFeatureSet into a bounded, comparison-stable
// NormalizedFeatureSet. It is a pure deterministic function: identical input
// always yields bit-identical output. Every mapping is fixed per descriptor:
//
//   - linear clamp against a fixed reference for bounded and Hz-valued
//     descriptors (rms, zcr, centroid, rolloff, spread, perceptual spread,
//     sharpness, chroma)
//   - logarithmic compression for ratio- and magnitude-like descriptors
//     (flatness, energy, kurtosis, loudness bands)
//   - rational squash x/(1+|x|) for signed unbounded descriptors
//     (slope, skewness, mfcc)
func Normalize(raw *RawFeatureSet) *NormalizedFeatureSet {
	n := &NormalizedFeatureSet{
		RMS:                 clamp01(raw.RMS),
		ZCR:                 clamp01(raw.ZCR),
		Energy:              logCompress(raw.Energy, refEnergy),
		SpectralCentroid:    clamp01(raw.SpectralCentroid / refNyquistHz),
		SpectralFlatness:    logCompress(raw.SpectralFlatness*9.0, 9.0),
		SpectralSlope:       squash01(raw.SpectralSlope),
		SpectralRolloff:     clamp01(raw.SpectralRolloff / refNyquistHz),
		SpectralSpread:      clamp01(raw.SpectralSpread / refNyquistHz),
		SpectralSkewness:    squash01(raw.SpectralSkewness),
		SpectralKurtosis:    logCompress(raw.SpectralKurtosis, refKurtosis),
		PerceptualSpread:    clamp01(raw.PerceptualSpread),
		PerceptualSharpness: clamp01(raw.PerceptualSharpness / refSharpness),
	}

	for i, v := range raw.Chroma {
		n.Chroma[i] = clamp01(v)
	}
	for i, v := range raw.MFCC {
		n.MFCC[i] = squash01(v / mfccScale)
	}
	for i, v := range raw.PerceptualLoudness {
		n.PerceptualLoudness[i] = clamp01(v / (1.0 + v))
	}

	return n
}

// clamp01 clamps to [0, 1]
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// logCompress maps [0, ref] to [0, 1] logarithmically, clamping above ref
func logCompress(v, ref float64) float64 {
	if v <= 0 {
		return 0
	}
	return clamp01(math.Log1p(v) / math.Log1p(ref))
}

// squash01 maps (-inf, +inf) to (0, 1) via the rational squash x/(1+|x|)
func squash01(v float64) float64 {
	return 0.5 * (1.0 + v/(1.0+math.Abs(v)))
}
