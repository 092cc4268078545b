// Package pipeline drives feature extraction over an entire audio library:
// a single producer pages unfeatured files out of the store, a single
// consumer fans them out to bounded-parallel analysis tasks and commits each
// batch of results in one transaction.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/soundvault/timbre/analysis"
	"github.com/soundvault/timbre/decode"
	"github.com/soundvault/timbre/logging"
	"github.com/soundvault/timbre/store"
)

// State is the lifecycle state of one pipeline run.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCancelling
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCancelling:
		return "cancelling"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileUniverse is the library collaborator the producer pages over.
type FileUniverse interface {
	ListUnfeatured(ctx context.Context, afterID int64, limit int) ([]store.FileRecord, error)
	CountFiles(ctx context.Context) (int, error)
}

// FeatureStore is the persistence collaborator the consumer commits to.
type FeatureStore interface {
	InsertBatch(ctx context.Context, rows []store.FeatureRow) error
}

// ProgressFunc is invoked once after each batch commit with the number of
// files attempted so far and the total file count snapshot taken at run
// start. The total may become stale if the library is mutated concurrently;
// that is an accepted limitation of the snapshot semantics.
type ProgressFunc func(processed, total int)

// EmptyProgress is a ProgressFunc that does nothing.
func EmptyProgress(processed, total int) {}

// Orchestrator coordinates one batch analysis run over the library.
type Orchestrator struct {
	universe FileUniverse
	features FeatureStore
	decoder  decode.Decoder

	windowSize int
	hopSize    int

	state  atomic.Int32
	logger logging.Logger
}

// New creates an orchestrator with the default analysis frame geometry.
func New(universe FileUniverse, features FeatureStore, decoder decode.Decoder) *Orchestrator {
	return NewWithParams(universe, features, decoder, analysis.DefaultWindowSize, analysis.DefaultHopSize)
}

// NewWithParams creates an orchestrator with a custom frame geometry.
func NewWithParams(universe FileUniverse, features FeatureStore, decoder decode.Decoder, windowSize, hopSize int) *Orchestrator {
	return &Orchestrator{
		universe:   universe,
		features:   features,
		decoder:    decoder,
		windowSize: windowSize,
		hopSize:    hopSize,
		logger: logging.WithFields(logging.Fields{
			"component": "pipeline",
		}),
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// taskResult is the outcome of one analysis task. Exactly one of row/err is
// meaningful.
type taskResult struct {
	row store.FeatureRow
	err error
}

// Run processes every file in the library that has no feature vector yet,
// in ascending identifier order, batchSize files at a time. It returns the
// total file count observed at run start (not the number inserted: files
// that fail or already have a row are not counted separately).
//
// Cancellation via ctx is cooperative: it is observed at the top of the
// producer and consumer loops; analysis tasks already in flight run to
// completion and their results are flushed in one final transaction before
// Run returns with the run in the cancelled state.
func (o *Orchestrator) Run(ctx context.Context, batchSize int, progress ProgressFunc) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if progress == nil {
		progress = EmptyProgress
	}

	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return 0, fmt.Errorf("pipeline run already started (state %s)", o.State())
	}

	o.logger.Info("starting library analysis", logging.Fields{
		"batch_size": batchSize,
	})

	// In-flight work must survive cancellation so completed results can
	// still be flushed; store and decode calls use the detached context
	// while ctx is only polled at loop boundaries.
	runCtx := context.WithoutCancel(ctx)

	total, err := o.universe.CountFiles(runCtx)
	if err != nil {
		o.state.Store(int32(StateFailed))
		return 0, &PersistenceError{Err: err}
	}

	// Bounded hand-off queue: the producer suspends when the consumer falls
	// behind, keeping O(batchSize) file records in flight.
	queue := make(chan store.FileRecord, batchSize)

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer close(queue)
		return o.produce(ctx, gctx, queue, batchSize)
	})

	g.Go(func() error {
		return o.consume(ctx, runCtx, queue, batchSize, total, progress)
	})

	if err := g.Wait(); err != nil {
		o.state.Store(int32(StateFailed))
		o.logger.Error(err, "library analysis failed")
		return total, err
	}

	if ctx.Err() != nil {
		o.state.Store(int32(StateCancelled))
		o.logger.Info("library analysis cancelled", logging.Fields{
			"total": total,
		})
		return total, nil
	}

	o.state.Store(int32(StateCompleted))
	o.logger.Info("library analysis completed", logging.Fields{
		"total": total,
	})
	return total, nil
}

// produce pages unfeatured files with a keyset cursor and pushes them onto
// the queue. cancelCtx carries the caller's cancellation signal; groupCtx
// ends when the consumer fails, unblocking a suspended send.
func (o *Orchestrator) produce(cancelCtx, groupCtx context.Context, queue chan<- store.FileRecord, batchSize int) error {
	var afterID int64

	for {
		if cancelCtx.Err() != nil {
			o.state.Store(int32(StateCancelling))
			o.logger.Info("cancellation requested, stopping producer")
			return nil
		}

		files, err := o.universe.ListUnfeatured(groupCtx, afterID, batchSize)
		if err != nil {
			return &PersistenceError{Err: err}
		}
		if len(files) == 0 {
			o.logger.Debug("no more files to process")
			return nil
		}

		for _, file := range files {
			select {
			case queue <- file:
			case <-cancelCtx.Done():
				o.state.Store(int32(StateCancelling))
				o.logger.Info("cancellation requested, stopping producer")
				return nil
			case <-groupCtx.Done():
				return nil
			}
		}

		// The cursor never revisits an identifier within one run
		afterID = files[len(files)-1].ID
	}
}

// consume drains the queue, fans each file out to an analysis task with at
// most batchSize tasks in flight, and commits one transaction per completed
// batch of successes.
func (o *Orchestrator) consume(cancelCtx, runCtx context.Context, queue <-chan store.FileRecord, batchSize, total int, progress ProgressFunc) error {
	var wg sync.WaitGroup
	results := make([]taskResult, 0, batchSize)
	pending := 0
	processed := 0

	flush := func() error {
		wg.Wait()

		rows := make([]store.FeatureRow, 0, len(results))
		for _, res := range results {
			if res.err != nil {
				// Contained at the task boundary: the file stays in the
				// unprocessed set for a future run
				o.logger.Error(res.err, "file analysis failed")
				continue
			}
			rows = append(rows, res.row)
		}

		if err := o.features.InsertBatch(runCtx, rows); err != nil {
			return &PersistenceError{Err: err}
		}

		processed += pending
		progress(processed, total)

		results = results[:0]
		pending = 0
		return nil
	}

	for file := range queue {
		if cancelCtx.Err() != nil {
			o.state.Store(int32(StateCancelling))
			o.logger.Info("cancellation requested, stopping consumer")
			break
		}

		// At most batchSize results accumulate before a flush, so the
		// backing array never reallocates under a live slot pointer
		results = append(results, taskResult{})
		slot := &results[len(results)-1]
		pending++

		wg.Add(1)
		go func(file store.FileRecord) {
			defer wg.Done()
			slot.row, slot.err = o.analyzeFile(runCtx, file)
		}(file)

		if pending >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	// Final flush: everything computed but not yet committed, including
	// tasks still in flight when cancellation was observed
	if pending > 0 {
		if err := flush(); err != nil {
			return err
		}
	}

	return nil
}

// analyzeFile runs the full analysis chain for one file: decode, per-frame
// descriptor extraction, aggregation, normalization. It performs no store
// I/O.
func (o *Orchestrator) analyzeFile(ctx context.Context, file store.FileRecord) (store.FeatureRow, error) {
	src, err := o.decoder.Decode(ctx, file.Path)
	if err != nil {
		return store.FeatureRow{}, &DecodeError{FileID: file.ID, Path: file.Path, Err: err}
	}

	analyzer, err := analysis.NewAnalyzerWithParams(src.SampleRate, o.windowSize, o.hopSize)
	if err != nil {
		return store.FeatureRow{}, &ExtractionError{FileID: file.ID, Path: file.Path, Err: err}
	}

	raw, err := analyzer.Analyze(src.PCM)
	if err != nil {
		return store.FeatureRow{}, &ExtractionError{FileID: file.ID, Path: file.Path, Err: err}
	}

	return store.FeatureRow{
		FileID:     file.ID,
		Normalized: *analysis.Normalize(raw),
		Raw:        *raw,
	}, nil
}

// IsFatal reports whether err ends a run in the failed state (as opposed to
// a contained per-file failure).
func IsFatal(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
