package pipeline

import (
	"fmt"
)

// DecodeError reports a file that could not be read or decoded. The file is
// skipped and stays in the unprocessed set for a future run.
type DecodeError struct {
	FileID int64
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode file %d (%s): %v", e.FileID, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ExtractionError reports an internal numeric failure during analysis of one
// file. Handled the same way as a decode error: skipped, not retried in this
// run.
type ExtractionError struct {
	FileID int64
	Path   string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract features for file %d (%s): %v", e.FileID, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// PersistenceError reports a store-level failure (paging read or batch
// commit). It is fatal to the run: no partial batch is ever left
// half-committed.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("feature store: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
