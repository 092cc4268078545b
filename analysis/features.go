package analysis

import (
	"fmt"
	"math"
)

// Fixed descriptor array dimensions
const (
	ChromaBins    = 12
	MFCCCoeffs    = 13
	LoudnessBands = 24
)

// RawFeatureSet is the per-file output of analysis: every per-frame
// descriptor averaged across frames. All values are guaranteed finite
// before the set leaves the analyzer.
type RawFeatureSet struct {
	RMS                 float64 `json:"rms"`
	ZCR                 float64 `json:"zcr"`
	Energy              float64 `json:"energy"`
	SpectralCentroid    float64 `json:"spectral_centroid"`
	SpectralFlatness    float64 `json:"spectral_flatness"`
	SpectralSlope       float64 `json:"spectral_slope"`
	SpectralRolloff     float64 `json:"spectral_rolloff"`
	SpectralSpread      float64 `json:"spectral_spread"`
	SpectralSkewness    float64 `json:"spectral_skewness"`
	SpectralKurtosis    float64 `json:"spectral_kurtosis"`
	PerceptualSpread    float64 `json:"perceptual_spread"`
	PerceptualSharpness float64 `json:"perceptual_sharpness"`

	Chroma             [ChromaBins]float64    `json:"chroma"`
	MFCC               [MFCCCoeffs]float64    `json:"mfcc"`
	PerceptualLoudness [LoudnessBands]float64 `json:"perceptual_loudness"`
}

// NormalizedFeatureSet has the same shape as RawFeatureSet with every value
// remapped into [0, 1]. It is a pure deterministic function of the raw set.
type NormalizedFeatureSet struct {
	RMS                 float64 `json:"rms"`
	ZCR                 float64 `json:"zcr"`
	Energy              float64 `json:"energy"`
	SpectralCentroid    float64 `json:"spectral_centroid"`
	SpectralFlatness    float64 `json:"spectral_flatness"`
	SpectralSlope       float64 `json:"spectral_slope"`
	SpectralRolloff     float64 `json:"spectral_rolloff"`
	SpectralSpread      float64 `json:"spectral_spread"`
	SpectralSkewness    float64 `json:"spectral_skewness"`
	SpectralKurtosis    float64 `json:"spectral_kurtosis"`
	PerceptualSpread    float64 `json:"perceptual_spread"`
	PerceptualSharpness float64 `json:"perceptual_sharpness"`

	Chroma             [ChromaBins]float64    `json:"chroma"`
	MFCC               [MFCCCoeffs]float64    `json:"mfcc"`
	PerceptualLoudness [LoudnessBands]float64 `json:"perceptual_loudness"`
}

// Validate reports an error naming the first non-finite descriptor, if any
func (r *RawFeatureSet) Validate() error {
	scalars := map[string]float64{
		"rms":                  r.RMS,
		"zcr":                  r.ZCR,
		"energy":               r.Energy,
		"spectral_centroid":    r.SpectralCentroid,
		"spectral_flatness":    r.SpectralFlatness,
		"spectral_slope":       r.SpectralSlope,
		"spectral_rolloff":     r.SpectralRolloff,
		"spectral_spread":      r.SpectralSpread,
		"spectral_skewness":    r.SpectralSkewness,
		"spectral_kurtosis":    r.SpectralKurtosis,
		"perceptual_spread":    r.PerceptualSpread,
		"perceptual_sharpness": r.PerceptualSharpness,
	}
	for name, v := range scalars {
		if !isFinite(v) {
			return fmt.Errorf("descriptor %s is not finite: %v", name, v)
		}
	}

	for i, v := range r.Chroma {
		if !isFinite(v) {
			return fmt.Errorf("descriptor chroma[%d] is not finite: %v", i, v)
		}
	}
	for i, v := range r.MFCC {
		if !isFinite(v) {
			return fmt.Errorf("descriptor mfcc[%d] is not finite: %v", i, v)
		}
	}
	for i, v := range r.PerceptualLoudness {
		if !isFinite(v) {
			return fmt.Errorf("descriptor perceptual_loudness[%d] is not finite: %v", i, v)
		}
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
