package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/newsdigest/core"
)

// ErrRunInProgress is returned when Run is called while another run is active.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Sink receives the payload of every successful run.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, payload *Payload) error
}

// RunOptions are per-run parameters.
type RunOptions struct {
	// BackfillDays moves the collection cutoff back from the run date.
	BackfillDays int
}

// RunResult reports the outcome of a run.
type RunResult struct {
	RunID   string
	Status  core.RunStatus
	Payload *Payload
	State   *State
	Err     error
}

// Orchestrator runs collection, deduplication, enrichment, persistence and
// publication in order. One Orchestrator serves many runs but executes
// them one at a time.
type Orchestrator struct {
	collectors         []Collector
	deduplicator       *Deduplicator
	enricher           *Enricher
	persister          *Persister
	publisher          *Publisher
	sinks              []Sink
	maxConcurrent      int
	generateEmbeddings bool
	now                func() time.Time
	logger             *slog.Logger

	mu sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithSinks adds payload sinks. Sink failures are logged and never fail a run.
func WithSinks(sinks ...Sink) Option {
	return func(o *Orchestrator) error {
		o.sinks = append(o.sinks, sinks...)
		return nil
	}
}

// WithMaxConcurrent sets the enrichment concurrency.
// Default is DefaultMaxConcurrent.
func WithMaxConcurrent(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 {
			return ErrInvalidConcurrency
		}
		o.maxConcurrent = n
		return nil
	}
}

// WithGenerateEmbeddings toggles embedding of enriched items.
func WithGenerateEmbeddings(enabled bool) Option {
	return func(o *Orchestrator) error {
		o.generateEmbeddings = enabled
		return nil
	}
}

// WithClock overrides the clock used for run dates.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) error {
		if now != nil {
			o.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an orchestrator over the given stages.
func NewOrchestrator(collectors []Collector, enricher *Enricher, persister *Persister, opts ...Option) (*Orchestrator, error) {
	if enricher == nil {
		return nil, ErrGeneratorRequired
	}
	if persister == nil {
		return nil, ErrStoreRequired
	}

	o := &Orchestrator{
		collectors:    collectors,
		enricher:      enricher,
		persister:     persister,
		maxConcurrent: DefaultMaxConcurrent,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.deduplicator = NewDeduplicator(o.logger.With("stage", "deduplicate"))
	o.publisher = NewPublisher(o.logger)
	return o, nil
}

// NewRunID formats a run identifier for the given time.
func NewRunID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("run_%s_%s", t.UTC().Format("20060102_150405"), suffix)
}

// Run executes one pipeline run.
//
// Collection errors never fail a run. A run fails when enrichment reports the
// generation service unavailable or persistence cannot commit; the failure is
// then recorded on the run record and returned both as the error and in
// RunResult.Err.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.BackfillDays < 0 {
		return nil, ErrInvalidBackfill
	}
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	state := &State{
		RunDate:      o.now(),
		BackfillDays: opts.BackfillDays,
	}
	state.RunID = NewRunID(state.RunDate)
	log := o.logger.With("run_id", state.RunID)
	log.Info("starting pipeline run", "backfill_days", opts.BackfillDays)

	collected := collectAll(ctx, o.collectors, state.Cutoff(), log.With("stage", "collect"))
	state.RawItems = collected.Items
	state.CollectionErrors = collected.Errors
	log.Info("collection complete", "items", len(state.RawItems), "errors", len(state.CollectionErrors))

	state.DedupedItems = o.deduplicator.Deduplicate(state.RawItems)

	enriched, err := o.enricher.Enrich(ctx, state.DedupedItems, o.maxConcurrent, o.generateEmbeddings)
	if err != nil {
		return o.fail(ctx, state, fmt.Errorf("enrichment: %w", err))
	}
	state.EnrichedItems = enriched.Items
	state.FailedItems = enriched.Failed

	persisted, err := o.persister.Persist(ctx, state.EnrichedItems, state.RunID, state.RunDate, state.Counts())
	if err != nil {
		return o.fail(ctx, state, fmt.Errorf("persistence: %w", err))
	}
	state.PersistedCount = persisted

	state.Payload = o.publisher.Publish(state.EnrichedItems, state)
	o.deliver(ctx, state.Payload, log)

	log.Info("pipeline run complete",
		"collected", len(state.RawItems),
		"processed", len(state.EnrichedItems),
		"persisted", state.PersistedCount)

	return &RunResult{
		RunID:   state.RunID,
		Status:  core.RunStatusCompleted,
		Payload: state.Payload,
		State:   state,
	}, nil
}

func (o *Orchestrator) fail(ctx context.Context, state *State, err error) (*RunResult, error) {
	log := o.logger.With("run_id", state.RunID)
	log.Error("pipeline run failed", "err", err)

	// The run context may already be done; the failure must still be written.
	recordCtx := context.WithoutCancel(ctx)
	if recordErr := o.persister.store.FailRun(recordCtx, state.RunID, state.Counts(), err.Error()); recordErr != nil {
		log.Error("failed to record run failure", "err", recordErr)
		err = errors.Join(err, recordErr)
	}

	return &RunResult{
		RunID:  state.RunID,
		Status: core.RunStatusFailed,
		State:  state,
		Err:    err,
	}, err
}

func (o *Orchestrator) deliver(ctx context.Context, payload *Payload, log *slog.Logger) {
	for _, sink := range o.sinks {
		if err := sink.Deliver(ctx, payload); err != nil {
			log.Warn("sink delivery failed", "sink", sink.Name(), "err", err)
			continue
		}
		log.Info("payload delivered", "sink", sink.Name())
	}
}
