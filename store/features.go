package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/soundvault/timbre/analysis"
)

// FeatureRow is one immutable persisted feature vector: the normalized set
// used for comparison plus the originating raw values kept for later
// re-aggregation. At most one row exists per file.
type FeatureRow struct {
	FileID     int64
	Normalized analysis.NormalizedFeatureSet
	Raw        analysis.RawFeatureSet
}

// Exists reports whether a feature row is already stored for the file.
func (s *Store) Exists(ctx context.Context, fileID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM media_features WHERE file_id = ?", fileID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check feature row: %w", err)
	}
	return count > 0, nil
}

// CountFeatures returns the number of stored feature rows.
func (s *Store) CountFeatures(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM media_features").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count features: %w", err)
	}
	return count, nil
}

// InsertBatch stores all rows as a single atomic unit: either every row is
// committed or none is.
func (s *Store) InsertBatch(ctx context.Context, rows []FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin feature tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO media_features (
            file_id, rms, zcr, energy,
            spectral_centroid, spectral_flatness, spectral_slope,
            spectral_rolloff, spectral_spread, spectral_skewness, spectral_kurtosis,
            perceptual_spread, perceptual_sharpness,
            chroma_json, mfcc_json, perceptual_loudness_json,
            raw_json, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare feature insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)

	for _, row := range rows {
		chromaJSON, err := json.Marshal(row.Normalized.Chroma)
		if err != nil {
			return fmt.Errorf("marshal chroma: %w", err)
		}
		mfccJSON, err := json.Marshal(row.Normalized.MFCC)
		if err != nil {
			return fmt.Errorf("marshal mfcc: %w", err)
		}
		loudnessJSON, err := json.Marshal(row.Normalized.PerceptualLoudness)
		if err != nil {
			return fmt.Errorf("marshal loudness: %w", err)
		}
		rawJSON, err := json.Marshal(row.Raw)
		if err != nil {
			return fmt.Errorf("marshal raw set: %w", err)
		}

		n := row.Normalized
		if _, err := stmt.ExecContext(ctx,
			row.FileID, n.RMS, n.ZCR, n.Energy,
			n.SpectralCentroid, n.SpectralFlatness, n.SpectralSlope,
			n.SpectralRolloff, n.SpectralSpread, n.SpectralSkewness, n.SpectralKurtosis,
			n.PerceptualSpread, n.PerceptualSharpness,
			string(chromaJSON), string(mfccJSON), string(loudnessJSON),
			string(rawJSON), now,
		); err != nil {
			return fmt.Errorf("insert feature row for file %d: %w", row.FileID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit feature batch: %w", err)
	}

	return nil
}

// storedFeatures is one feature row as read back from the database.
// Every axis is optional: a NULL column or a null JSON element means the
// descriptor is absent for that file.
type storedFeatures struct {
	scalars  [numScalarColumns]sql.NullFloat64
	chroma   []*float64
	mfcc     []*float64
	loudness []*float64
}

// scalarColumns lists the scalar feature columns in their canonical order.
var scalarColumns = []string{
	"rms", "zcr", "energy",
	"spectral_centroid", "spectral_flatness", "spectral_slope",
	"spectral_rolloff", "spectral_spread", "spectral_skewness", "spectral_kurtosis",
	"perceptual_spread", "perceptual_sharpness",
}

const numScalarColumns = 12

// featuresByFileIDs loads the stored feature rows for the given files.
// Missing files are simply absent from the result.
func (s *Store) featuresByFileIDs(ctx context.Context, fileIDs []int64) ([]storedFeatures, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(fileIDs)), ",")
	args := make([]any, len(fileIDs))
	for i, id := range fileIDs {
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT %s, chroma_json, mfcc_json, perceptual_loudness_json
         FROM media_features WHERE file_id IN (%s)`,
		strings.Join(scalarColumns, ", "), placeholders,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load features: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []storedFeatures
	for rows.Next() {
		var sf storedFeatures
		var chromaJSON, mfccJSON, loudnessJSON sql.NullString

		dest := make([]any, 0, numScalarColumns+3)
		for i := range sf.scalars {
			dest = append(dest, &sf.scalars[i])
		}
		dest = append(dest, &chromaJSON, &mfccJSON, &loudnessJSON)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}

		if sf.chroma, err = unmarshalNullableArray(chromaJSON); err != nil {
			return nil, fmt.Errorf("decode chroma: %w", err)
		}
		if sf.mfcc, err = unmarshalNullableArray(mfccJSON); err != nil {
			return nil, fmt.Errorf("decode mfcc: %w", err)
		}
		if sf.loudness, err = unmarshalNullableArray(loudnessJSON); err != nil {
			return nil, fmt.Errorf("decode loudness: %w", err)
		}

		result = append(result, sf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature rows: %w", err)
	}

	return result, nil
}

func unmarshalNullableArray(col sql.NullString) ([]*float64, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var values []*float64
	if err := json.Unmarshal([]byte(col.String), &values); err != nil {
		return nil, err
	}
	return values, nil
}
