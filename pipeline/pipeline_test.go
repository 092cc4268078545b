package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soundvault/timbre/decode"
	"github.com/soundvault/timbre/store"
)

const (
	testSampleRate = 8000
	testWindowSize = 256
	testHopSize    = 128
)

// fakeDecoder synthesizes a short sine tone for every path, and fails for
// paths containing "corrupt".
type fakeDecoder struct{}

func (fakeDecoder) Decode(ctx context.Context, path string) (*decode.AudioSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.Contains(path, "corrupt") {
		return nil, fmt.Errorf("unreadable stream: %s", path)
	}

	pcm := make([]float64, testSampleRate/5)
	for i := range pcm {
		pcm[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/testSampleRate)
	}
	return &decode.AudioSource{
		SampleRate:   testSampleRate,
		TotalSamples: len(pcm),
		PCM:          pcm,
	}, nil
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "features.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func addFiles(t *testing.T, s *store.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := s.AddFile(context.Background(), fmt.Sprintf("/music/%03d.flac", i)); err != nil {
			t.Fatalf("AddFile: %v", err)
		}
	}
}

func newTestOrchestrator(s *store.Store) *Orchestrator {
	return NewWithParams(s, s, fakeDecoder{}, testWindowSize, testHopSize)
}

func TestRunRejectsInvalidBatchSize(t *testing.T) {
	s := openTestStore(t)
	orch := newTestOrchestrator(s)

	if _, err := orch.Run(context.Background(), 0, nil); err == nil {
		t.Fatal("expected error for zero batch size")
	}
}

func TestRunIsSingleUse(t *testing.T) {
	s := openTestStore(t)
	orch := newTestOrchestrator(s)

	if _, err := orch.Run(context.Background(), 4, nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := orch.Run(context.Background(), 4, nil); err == nil {
		t.Fatal("expected error reusing an orchestrator")
	}
}

func TestRunProcessesAllFiles(t *testing.T) {
	const numFiles = 10

	for _, batchSize := range []int{1, 3, numFiles, numFiles * 2} {
		t.Run(fmt.Sprintf("batch_%d", batchSize), func(t *testing.T) {
			s := openTestStore(t)
			addFiles(t, s, numFiles)

			orch := newTestOrchestrator(s)
			total, err := orch.Run(context.Background(), batchSize, nil)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if total != numFiles {
				t.Errorf("Run returned total %d, want %d", total, numFiles)
			}
			if state := orch.State(); state != StateCompleted {
				t.Errorf("state = %s, want completed", state)
			}

			count, err := s.CountFeatures(context.Background())
			if err != nil {
				t.Fatalf("CountFeatures: %v", err)
			}
			if count != numFiles {
				t.Errorf("persisted %d feature rows, want %d", count, numFiles)
			}
		})
	}
}

func TestRunIsIdempotent(t *testing.T) {
	const numFiles = 6

	s := openTestStore(t)
	addFiles(t, s, numFiles)

	if _, err := newTestOrchestrator(s).Run(context.Background(), 3, nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// A fresh run over the same library finds nothing to do
	inserted := false
	progress := func(processed, total int) {
		if processed > 0 {
			inserted = true
		}
	}
	if _, err := newTestOrchestrator(s).Run(context.Background(), 3, progress); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if inserted {
		t.Error("second run attempted files that already have feature rows")
	}

	count, err := s.CountFeatures(context.Background())
	if err != nil {
		t.Fatalf("CountFeatures: %v", err)
	}
	if count != numFiles {
		t.Errorf("second run changed row count to %d, want %d", count, numFiles)
	}
}

func TestRunContainsCorruptFiles(t *testing.T) {
	const numFiles = 100

	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < numFiles; i++ {
		name := fmt.Sprintf("/music/%03d.flac", i)
		if i == 42 {
			name = "/music/042-corrupt.flac"
		}
		if _, err := s.AddFile(ctx, name); err != nil {
			t.Fatalf("AddFile: %v", err)
		}
	}

	orch := newTestOrchestrator(s)
	if _, err := orch.Run(ctx, 8, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state := orch.State(); state != StateCompleted {
		t.Errorf("state = %s, want completed despite the corrupt file", state)
	}

	count, err := s.CountFeatures(ctx)
	if err != nil {
		t.Fatalf("CountFeatures: %v", err)
	}
	if count != numFiles-1 {
		t.Errorf("persisted %d rows, want %d (corrupt file skipped)", count, numFiles-1)
	}
}

func TestRunProgressReporting(t *testing.T) {
	const numFiles = 7

	s := openTestStore(t)
	addFiles(t, s, numFiles)

	var calls []int
	lastTotal := -1
	progress := func(processed, total int) {
		calls = append(calls, processed)
		lastTotal = total
	}

	if _, err := newTestOrchestrator(s).Run(context.Background(), 3, progress); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if lastTotal != numFiles {
		t.Errorf("progress total = %d, want %d", lastTotal, numFiles)
	}
	if len(calls) == 0 || calls[len(calls)-1] != numFiles {
		t.Fatalf("progress calls %v, want final processed count %d", calls, numFiles)
	}
	for i := 1; i < len(calls); i++ {
		if calls[i] < calls[i-1] {
			t.Errorf("processed count regressed: %v", calls)
		}
	}
}

func TestRunCancellationFlushesCompletedBatches(t *testing.T) {
	const (
		numFiles  = 12
		batchSize = 3
		stopAfter = 2 // batches
	)

	s := openTestStore(t)
	addFiles(t, s, numFiles)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := 0
	progress := func(processed, total int) {
		batches++
		if batches == stopAfter {
			cancel()
		}
	}

	orch := newTestOrchestrator(s)
	if _, err := orch.Run(ctx, batchSize, progress); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state := orch.State(); state != StateCancelled {
		t.Errorf("state = %s, want cancelled", state)
	}

	// Committed batches survive; nothing beyond the cancellation point does
	count, err := s.CountFeatures(context.Background())
	if err != nil {
		t.Fatalf("CountFeatures: %v", err)
	}
	if count < stopAfter*batchSize {
		t.Errorf("persisted %d rows, want at least %d committed before cancellation", count, stopAfter*batchSize)
	}
	if count >= numFiles {
		t.Errorf("persisted %d rows, cancellation had no effect", count)
	}

	// The remaining files are picked up by a later run
	if _, err := newTestOrchestrator(s).Run(context.Background(), batchSize, nil); err != nil {
		t.Fatalf("resume Run: %v", err)
	}
	count, err = s.CountFeatures(context.Background())
	if err != nil {
		t.Fatalf("CountFeatures: %v", err)
	}
	if count != numFiles {
		t.Errorf("resume left %d rows, want %d", count, numFiles)
	}
}

func TestRunPreCancelledContext(t *testing.T) {
	s := openTestStore(t)
	addFiles(t, s, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := newTestOrchestrator(s)
	if _, err := orch.Run(ctx, 2, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state := orch.State(); state != StateCancelled {
		t.Errorf("state = %s, want cancelled", state)
	}
}

// failingStore rejects every commit.
type failingStore struct{}

func (failingStore) InsertBatch(ctx context.Context, rows []store.FeatureRow) error {
	return errors.New("disk full")
}

func TestRunPersistenceFailureIsFatal(t *testing.T) {
	s := openTestStore(t)
	addFiles(t, s, 4)

	orch := NewWithParams(s, failingStore{}, fakeDecoder{}, testWindowSize, testHopSize)
	_, err := orch.Run(context.Background(), 2, nil)
	if err == nil {
		t.Fatal("expected persistence failure to abort the run")
	}
	if !IsFatal(err) {
		t.Errorf("persistence failure not classified fatal: %v", err)
	}
	if state := orch.State(); state != StateFailed {
		t.Errorf("state = %s, want failed", state)
	}
}

func TestErrorWrapping(t *testing.T) {
	base := errors.New("bad stream")
	var err error = &DecodeError{FileID: 7, Path: "/music/x.flac", Err: base}

	if !errors.Is(err, base) {
		t.Error("DecodeError does not unwrap to its cause")
	}
	if IsFatal(err) {
		t.Error("per-file decode error must not be fatal")
	}

	err = &PersistenceError{Err: base}
	if !errors.Is(err, base) {
		t.Error("PersistenceError does not unwrap to its cause")
	}
	if !IsFatal(err) {
		t.Error("persistence error must be fatal")
	}
}
