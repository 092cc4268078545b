package analysis

import (
	"math"
	"testing"
)

func sampleRawSet() *RawFeatureSet {
	raw := &RawFeatureSet{
		RMS:                 0.42,
		ZCR:                 0.11,
		Energy:              135.7,
		SpectralCentroid:    3150.0,
		SpectralFlatness:    0.23,
		SpectralSlope:       -1.7e-4,
		SpectralRolloff:     8400.0,
		SpectralSpread:      2100.0,
		SpectralSkewness:    1.9,
		SpectralKurtosis:    14.2,
		PerceptualSpread:    0.36,
		PerceptualSharpness: 1.8,
	}
	for i := range raw.Chroma {
		raw.Chroma[i] = float64(i) / ChromaBins
	}
	for i := range raw.MFCC {
		raw.MFCC[i] = float64(i-6) * 3.5
	}
	for i := range raw.PerceptualLoudness {
		raw.PerceptualLoudness[i] = float64(i) * 0.4
	}
	return raw
}

func TestNormalizeBounds(t *testing.T) {
	n := Normalize(sampleRawSet())

	check := func(name string, v float64) {
		t.Helper()
		if v < 0 || v > 1 || math.IsNaN(v) {
			t.Errorf("%s = %v, want within [0, 1]", name, v)
		}
	}

	check("rms", n.RMS)
	check("zcr", n.ZCR)
	check("energy", n.Energy)
	check("spectral_centroid", n.SpectralCentroid)
	check("spectral_flatness", n.SpectralFlatness)
	check("spectral_slope", n.SpectralSlope)
	check("spectral_rolloff", n.SpectralRolloff)
	check("spectral_spread", n.SpectralSpread)
	check("spectral_skewness", n.SpectralSkewness)
	check("spectral_kurtosis", n.SpectralKurtosis)
	check("perceptual_spread", n.PerceptualSpread)
	check("perceptual_sharpness", n.PerceptualSharpness)
	for _, v := range n.Chroma {
		check("chroma", v)
	}
	for _, v := range n.MFCC {
		check("mfcc", v)
	}
	for _, v := range n.PerceptualLoudness {
		check("perceptual_loudness", v)
	}
}

func TestNormalizeExtremeInputsStayBounded(t *testing.T) {
	raw := &RawFeatureSet{
		RMS:                 1e9,
		ZCR:                 -5,
		Energy:              1e12,
		SpectralCentroid:    1e7,
		SpectralFlatness:    50,
		SpectralSlope:       -1e6,
		SpectralRolloff:     -100,
		SpectralSpread:      1e7,
		SpectralSkewness:    1e9,
		SpectralKurtosis:    1e9,
		PerceptualSpread:    40,
		PerceptualSharpness: 900,
	}
	for i := range raw.MFCC {
		raw.MFCC[i] = -1e8
	}
	for i := range raw.PerceptualLoudness {
		raw.PerceptualLoudness[i] = 1e8
	}

	n := Normalize(raw)
	for name, v := range map[string]float64{
		"rms":                  n.RMS,
		"zcr":                  n.ZCR,
		"energy":               n.Energy,
		"spectral_slope":       n.SpectralSlope,
		"spectral_rolloff":     n.SpectralRolloff,
		"spectral_skewness":    n.SpectralSkewness,
		"perceptual_sharpness": n.PerceptualSharpness,
		"mfcc[0]":              n.MFCC[0],
		"perceptual_loudness[0]": n.PerceptualLoudness[0],
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v, want within [0, 1]", name, v)
		}
	}
}

func TestNormalizeIsPure(t *testing.T) {
	raw := sampleRawSet()

	first := Normalize(raw)
	second := Normalize(raw)

	if *first != *second {
		t.Fatal("normalizing the same raw set twice produced different outputs")
	}
}

func TestNormalizeSilence(t *testing.T) {
	n := Normalize(&RawFeatureSet{})

	for name, v := range map[string]float64{
		"rms":               n.RMS,
		"zcr":               n.ZCR,
		"energy":            n.Energy,
		"spectral_centroid": n.SpectralCentroid,
		"spectral_flatness": n.SpectralFlatness,
		"spectral_rolloff":  n.SpectralRolloff,
	} {
		if v != 0 {
			t.Errorf("silence: %s = %v, want 0", name, v)
		}
	}

	// Signed descriptors squash zero to the midpoint
	if n.SpectralSlope != 0.5 {
		t.Errorf("silence: spectral_slope = %v, want 0.5", n.SpectralSlope)
	}
	if n.SpectralSkewness != 0.5 {
		t.Errorf("silence: spectral_skewness = %v, want 0.5", n.SpectralSkewness)
	}
	for i, v := range n.MFCC {
		if v != 0.5 {
			t.Errorf("silence: mfcc[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestNormalizeMonotonicInEnergy(t *testing.T) {
	low := Normalize(&RawFeatureSet{Energy: 10})
	high := Normalize(&RawFeatureSet{Energy: 100})
	if low.Energy >= high.Energy {
		t.Errorf("energy normalization not monotonic: f(10) = %v, f(100) = %v", low.Energy, high.Energy)
	}
}
