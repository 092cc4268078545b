package store

import (
	"context"

	"github.com/soundvault/timbre/analysis"
)

// AggregatedFeatureSet is the mean feature vector of a group of files.
// Each axis is averaged over only the rows that have a value on that axis;
// an axis with no contributing rows stays 0.
type AggregatedFeatureSet struct {
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

	Chroma             [analysis.ChromaBins]float64    `json:"chroma"`
	MFCC               [analysis.MFCCCoeffs]float64    `json:"mfcc"`
	PerceptualLoudness [analysis.LoudnessBands]float64 `json:"perceptual_loudness"`
}

// VectorDim is the dimensionality of the flattened feature vector.
const VectorDim = 12 + analysis.ChromaBins + analysis.MFCCCoeffs + analysis.LoudnessBands

// Vector flattens the aggregate into the fixed 61-dimension ordering used
// by downstream similarity: the 10 spectral/time scalars, chroma, the two
// perceptual scalars, loudness bands, then MFCC.
func (a *AggregatedFeatureSet) Vector() [VectorDim]float64 {
	var v [VectorDim]float64
	i := 0

	for _, scalar := range []float64{
		a.RMS, a.ZCR, a.Energy,
		a.SpectralCentroid, a.SpectralFlatness, a.SpectralSlope,
		a.SpectralRolloff, a.SpectralSpread, a.SpectralSkewness, a.SpectralKurtosis,
	} {
		v[i] = scalar
		i++
	}
	for _, c := range a.Chroma {
		v[i] = c
		i++
	}
	v[i] = a.PerceptualSpread
	i++
	v[i] = a.PerceptualSharpness
	i++
	for _, l := range a.PerceptualLoudness {
		v[i] = l
		i++
	}
	for _, m := range a.MFCC {
		v[i] = m
		i++
	}

	return v
}

// meanAccumulator tracks a running sum and contribution count per axis.
type meanAccumulator struct {
	sum   float64
	count float64
}

func (m *meanAccumulator) add(v float64) {
	m.sum += v
	m.count++
}

func (m *meanAccumulator) mean() float64 {
	if m.count == 0 {
		return 0.0
	}
	return m.sum / m.count
}

// Aggregate loads the feature rows of the given files and computes, per
// scalar field and per array position independently, the mean over the rows
// having a value on that axis. Files without a feature row contribute
// nothing; a group with no stored rows yields the zero set.
func (s *Store) Aggregate(ctx context.Context, fileIDs []int64) (*AggregatedFeatureSet, error) {
	rows, err := s.featuresByFileIDs(ctx, fileIDs)
	if err != nil {
		return nil, err
	}

	var scalars [numScalarColumns]meanAccumulator
	var chroma [analysis.ChromaBins]meanAccumulator
	var mfcc [analysis.MFCCCoeffs]meanAccumulator
	var loudness [analysis.LoudnessBands]meanAccumulator

	for _, row := range rows {
		for i, v := range row.scalars {
			if v.Valid {
				scalars[i].add(v.Float64)
			}
		}
		accumulateArray(chroma[:], row.chroma)
		accumulateArray(mfcc[:], row.mfcc)
		accumulateArray(loudness[:], row.loudness)
	}

	agg := &AggregatedFeatureSet{
		RMS:                 scalars[0].mean(),
		ZCR:                 scalars[1].mean(),
		Energy:              scalars[2].mean(),
		SpectralCentroid:    scalars[3].mean(),
		SpectralFlatness:    scalars[4].mean(),
		SpectralSlope:       scalars[5].mean(),
		SpectralRolloff:     scalars[6].mean(),
		SpectralSpread:      scalars[7].mean(),
		SpectralSkewness:    scalars[8].mean(),
		SpectralKurtosis:    scalars[9].mean(),
		PerceptualSpread:    scalars[10].mean(),
		PerceptualSharpness: scalars[11].mean(),
	}
	for i := range agg.Chroma {
		agg.Chroma[i] = chroma[i].mean()
	}
	for i := range agg.MFCC {
		agg.MFCC[i] = mfcc[i].mean()
	}
	for i := range agg.PerceptualLoudness {
		agg.PerceptualLoudness[i] = loudness[i].mean()
	}

	return agg, nil
}

func accumulateArray(accs []meanAccumulator, values []*float64) {
	for i := 0; i < len(accs) && i < len(values); i++ {
		if values[i] != nil {
			accs[i].add(*values[i])
		}
	}
}
