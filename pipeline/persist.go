package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/storage"
)

// PersistStore is the subset of storage.Store the persister writes through.
type PersistStore interface {
	storage.ItemRepository
	storage.RunRepository
	storage.TransactionManager
}

// Persister writes enriched items and the run record transactionally.
type Persister struct {
	store  PersistStore
	now    func() time.Time
	logger *slog.Logger
}

// NewPersister creates a persister. A nil logger uses slog.Default().
func NewPersister(store PersistStore, logger *slog.Logger) (*Persister, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With("stage", "persist"),
	}, nil
}

// Persist records the run as running, upserts every item and marks the run
// completed with counts.
//
// Writes share one transaction until the store reports
// storage.ErrTransactionTooLarge. That transaction is then committed and the
// remaining writes continue in a fresh one, so the run record is started in
// the first transaction and finished in the last.
//
// Items that fail to upsert are logged and skipped; the returned count only
// includes items the store acknowledged. An error is returned when the run
// record or a commit fails. Transactions committed before the failure stay
// durable and the run record is left running.
func (p *Persister) Persist(ctx context.Context, items []*core.EnrichedItem, runID string, runDate time.Time, counts core.RunCounts) (int, error) {
	log := p.logger.With("run_id", runID)
	log.Info("persisting items", "items", len(items))

	run := &core.PipelineRun{
		RunID:     runID,
		RunDate:   runDate,
		StartedAt: p.now(),
		Status:    core.RunStatusRunning,
	}

	var (
		cur    persistCursor
		chunks int
		err    error
	)
	for !cur.finished {
		if cur, err = p.persistChunk(ctx, items, run, counts, cur, log); err != nil {
			log.Error("persistence failed", "err", err, "committed_items", cur.persisted)
			return 0, err
		}
		chunks++
	}

	log.Info("persistence complete", "persisted", cur.persisted, "failed", len(items)-cur.persisted, "transactions", chunks)
	return cur.persisted, nil
}

// persistCursor tracks progress across transactions.
type persistCursor struct {
	next      int
	persisted int
	started   bool
	finished  bool
}

// persistChunk writes as much as fits in one transaction, starting at cur.
// On error the returned cursor is cur, since nothing in the chunk committed.
func (p *Persister) persistChunk(ctx context.Context, items []*core.EnrichedItem, run *core.PipelineRun, counts core.RunCounts, cur persistCursor, log *slog.Logger) (persistCursor, error) {
	var out persistCursor
	err := p.store.WithTransaction(ctx, func(ctx context.Context) error {
		out = cur
		wrote := false
		if !out.started {
			if err := p.store.StartRun(ctx, run); err != nil {
				return fmt.Errorf("starting run: %w", err)
			}
			out.started = true
			wrote = true
		}

		for out.next < len(items) {
			item := items[out.next]
			id, err := p.store.UpsertItem(ctx, item)
			if errors.Is(err, storage.ErrTransactionTooLarge) && wrote {
				return nil
			}
			out.next++
			if err != nil {
				log.Warn("failed to persist item", "item_id", item.ItemID, "err", err)
				continue
			}
			wrote = true
			if id != "" {
				out.persisted++
			}
		}

		counts.Persisted = out.persisted
		err := p.store.FinishRun(ctx, run.RunID, counts)
		if errors.Is(err, storage.ErrTransactionTooLarge) && wrote {
			return nil
		}
		if err != nil {
			return fmt.Errorf("finishing run: %w", err)
		}
		out.finished = true
		return nil
	})
	if err != nil {
		return cur, err
	}
	return out, nil
}
