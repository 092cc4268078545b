package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// FileRecord identifies one audio file registered in the library.
type FileRecord struct {
	ID   int64
	Path string
}

// audioExtensions are the file types the scanner registers.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".wma":  true,
}

// AddFile registers an audio file path in the library, returning its
// identifier. Re-registering an existing path returns the existing row.
func (s *Store) AddFile(ctx context.Context, path string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO media_files (path, added_at) VALUES (?, ?)",
		path, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return res.LastInsertId()
	}

	var id int64
	err = s.db.QueryRowContext(ctx, "SELECT id FROM media_files WHERE path = ?", path).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("lookup file: %w", err)
	}
	return id, nil
}

// ScanDirectory walks root and registers every audio file found.
// It returns the number of files newly registered.
func (s *Store) ScanDirectory(ctx context.Context, root string) (int, error) {
	added := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		res, insertErr := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO media_files (path, added_at) VALUES (?, ?)",
			path, time.Now().UTC().Format(time.RFC3339Nano),
		)
		if insertErr != nil {
			return fmt.Errorf("insert file %s: %w", path, insertErr)
		}
		if n, raErr := res.RowsAffected(); raErr == nil && n > 0 {
			added++
		}
		return nil
	})
	if err != nil {
		return added, fmt.Errorf("scan %s: %w", root, err)
	}

	return added, nil
}

// CountFiles returns the total number of files in the library.
func (s *Store) CountFiles(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM media_files").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return count, nil
}

// ListUnfeatured returns up to limit files with an identifier greater than
// afterID that have no feature row yet, in ascending identifier order.
// This is the keyset-pagination anti-join the pipeline cursors over.
func (s *Store) ListUnfeatured(ctx context.Context, afterID int64, limit int) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.path
         FROM media_files f
         LEFT JOIN media_features mf ON mf.file_id = f.id
         WHERE f.id > ? AND mf.file_id IS NULL
         ORDER BY f.id ASC
         LIMIT ?`,
		afterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unfeatured: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []FileRecord
	for rows.Next() {
		var rec FileRecord
		if err := rows.Scan(&rec.ID, &rec.Path); err != nil {
			return nil, fmt.Errorf("scan unfeatured row: %w", err)
		}
		files = append(files, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unfeatured rows: %w", err)
	}

	return files, nil
}

// FilePath returns the registered path of a file identifier.
func (s *Store) FilePath(ctx context.Context, id int64) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx, "SELECT path FROM media_files WHERE id = ?", id).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("file %d not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("lookup file %d: %w", id, err)
	}
	return path, nil
}
