package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
	now     func() time.Time
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) *RunRepository {
	return &RunRepository{
		backend: backend,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// StartRun stores a new run record with status running.
func (r *RunRepository) StartRun(ctx context.Context, run *core.PipelineRun) error {
	run.Status = core.RunStatusRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = r.now()
	}
	if err := core.ValidateRun(run); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrInvalidRecord, err)
	}

	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return writeRun(tx, run, true)
	}, true)
}

// FinishRun marks a run completed with final counts.
func (r *RunRepository) FinishRun(ctx context.Context, runID string, counts core.RunCounts) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		run, err := readRun(tx, makeRunKey(runID))
		if err != nil {
			return err
		}
		if run == nil {
			return storage.ErrNotFound
		}
		run.Counts = counts
		run.Status = core.RunStatusCompleted
		run.CompletedAt = r.now()
		return writeRun(tx, run, false)
	}, true)
}

// FailRun marks a run failed, creating the record when it is missing.
func (r *RunRepository) FailRun(ctx context.Context, runID string, counts core.RunCounts, message string) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		run, err := readRun(tx, makeRunKey(runID))
		if err != nil {
			return err
		}
		isNew := run == nil
		if isNew {
			now := r.now()
			run = &core.PipelineRun{RunID: runID, RunDate: now, StartedAt: now}
		}
		run.Status = core.RunStatusFailed
		run.Counts = counts
		run.ErrorMessage = message
		run.CompletedAt = r.now()
		return writeRun(tx, run, isNew)
	}, true)
}

// GetRun retrieves a run by ID.
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*core.PipelineRun, error) {
	var result *core.PipelineRun
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = readRun(tx, makeRunKey(runID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// RecentRuns returns up to limit runs, most recently started first.
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]*core.PipelineRun, error) {
	var results []*core.PipelineRun
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(runDatePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefixEnd(runDatePrefix)); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			var runID string
			if err := iter.Item().Value(func(val []byte) error {
				runID = string(val)
				return nil
			}); err != nil {
				return err
			}
			run, err := readRun(tx, makeRunKey(runID))
			if err != nil {
				return err
			}
			if run != nil {
				results = append(results, run)
			}
		}
		return nil
	}, false)
	return results, err
}

// writeRun stores the run and, for new runs, its start index entry.
func writeRun(tx *badger.Txn, run *core.PipelineRun, isNew bool) error {
	value, err := storage.MarshalRun(run)
	if err != nil {
		return err
	}
	if isNew {
		if err := tx.Set(makeRunDateKey(run.StartedAt, run.RunID), []byte(run.RunID)); err != nil {
			return wrapTxnErr(err)
		}
	}
	return wrapTxnErr(tx.Set(makeRunKey(run.RunID), value))
}

// readRun reads a run from the transaction.
// Returns nil, nil if the key doesn't exist.
func readRun(tx *badger.Txn, key []byte) (*core.PipelineRun, error) {
	entry, err := tx.Get(key)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var run *core.PipelineRun
	err = entry.Value(func(val []byte) error {
		var unmarshalErr error
		run, unmarshalErr = storage.UnmarshalRun(val)
		return unmarshalErr
	})
	return run, err
}
