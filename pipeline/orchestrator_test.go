package pipeline

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/newsdigest/ai"
	"github.com/poiesic/newsdigest/ai/mock"
	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	name string
	err  error

	mu       sync.Mutex
	payloads []*Payload
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(ctx context.Context, payload *Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	return s.err
}

type orchestratorFixture struct {
	store    storage.Store
	provider *mock.MockProvider
	orch     *Orchestrator
}

func newFixture(t *testing.T, collectors []Collector, opts ...Option) *orchestratorFixture {
	t.Helper()
	f := &orchestratorFixture{
		store:    newTestStore(t),
		provider: mock.NewMockProvider(),
	}

	enricher, err := NewEnricher(f.provider.Generator(), f.provider.Embedder(), WithRetryDelay(time.Millisecond))
	require.NoError(t, err)
	persister, err := NewPersister(f.store, nil)
	require.NoError(t, err)

	opts = append([]Option{WithClock(func() time.Time { return baseTime })}, opts...)
	f.orch, err = NewOrchestrator(collectors, enricher, persister, opts...)
	require.NoError(t, err)
	return f
}

func TestNewRunID(t *testing.T) {
	id := NewRunID(baseTime)
	assert.Regexp(t, regexp.MustCompile(`^run_20250615_120000_[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, NewRunID(baseTime))
}

func TestNewOrchestrator_Validation(t *testing.T) {
	_, err := NewOrchestrator(nil, nil, nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)

	enricher, err := NewEnricher(mock.NewMockGenerator(), nil)
	require.NoError(t, err)
	_, err = NewOrchestrator(nil, enricher, nil)
	assert.ErrorIs(t, err, ErrStoreRequired)

	persister, err := NewPersister(newTestStore(t), nil)
	require.NoError(t, err)
	_, err = NewOrchestrator(nil, enricher, persister, WithMaxConcurrent(0))
	assert.ErrorIs(t, err, ErrInvalidConcurrency)
}

func TestRun_EndToEnd(t *testing.T) {
	shared := "https://example.com/shared"
	feedItems := []*core.RawItem{
		rawItem(core.SourceTypeFeed, "https://feed/rss", shared, "Shared", "short body", baseTime.Add(-time.Hour)),
		rawItem(core.SourceTypeFeed, "https://feed/rss", "https://example.com/only-feed", "Feed only", "feed body", baseTime.Add(-3*time.Hour)),
	}
	mailItems := []*core.RawItem{
		rawItem(core.SourceTypeMailbox, "dan@tldrnewsletter.com", shared, "Shared", "a noticeably longer body", baseTime.Add(-2*time.Hour)),
	}
	var cutoffs []time.Time
	var mu sync.Mutex
	record := func(items []*core.RawItem, errs []core.CollectionError) func(context.Context, time.Time) ([]*core.RawItem, []core.CollectionError) {
		return func(ctx context.Context, cutoff time.Time) ([]*core.RawItem, []core.CollectionError) {
			mu.Lock()
			cutoffs = append(cutoffs, cutoff)
			mu.Unlock()
			return items, errs
		}
	}

	sink := &recordingSink{name: "memory"}
	failing := &recordingSink{name: "broken", err: errors.New("unreachable")}
	f := newFixture(t, []Collector{
		CollectorFunc{CollectorName: "rss", Fn: record(feedItems, []core.CollectionError{{
			SourceType: core.SourceTypeFeed, SourceID: "https://dead/rss", ErrorKind: "http", Message: "timeout",
		}})},
		CollectorFunc{CollectorName: "mailbox", Fn: record(mailItems, nil)},
	}, WithSinks(failing, sink), WithGenerateEmbeddings(true))

	ctx := context.Background()
	result, err := f.orch.Run(ctx, RunOptions{BackfillDays: 2})
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, result.Status)
	assert.NoError(t, result.Err)

	for _, c := range cutoffs {
		assert.Equal(t, baseTime.AddDate(0, 0, -2), c)
	}
	assert.Len(t, cutoffs, 2)

	state := result.State
	assert.Len(t, state.RawItems, 3)
	assert.Len(t, state.DedupedItems, 2)
	assert.Len(t, state.EnrichedItems, 2)
	assert.Equal(t, 2, state.PersistedCount)

	payload := result.Payload
	require.NotNil(t, payload)
	assert.Equal(t, result.RunID, payload.Meta.RunID)
	assert.Equal(t, 2, payload.Stats.TotalItems)
	assert.Equal(t, 2, payload.Stats.PersistedCount)
	assert.Equal(t, 1, payload.Stats.CollectionErrors)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "timeout", payload.Errors[0].Error)

	// The merged item keeps the earliest date and both sources.
	merged := payload.Items[0]
	assert.Equal(t, core.ItemID(shared, "", ""), merged.ID)
	assert.Equal(t, []string{"feed", "mailbox"}, merged.Sources)
	assert.Equal(t, baseTime.Add(-2*time.Hour).Format(time.RFC3339), merged.PublishedAt)

	require.Len(t, sink.payloads, 1)
	assert.Same(t, payload, sink.payloads[0])
	assert.Len(t, failing.payloads, 1)

	run, err := f.store.GetRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	assert.Equal(t, core.RunCounts{Collected: 3, Processed: 2, Persisted: 2, CollectionErrors: 1}, run.Counts)

	stored, err := f.store.GetItem(ctx, merged.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Embedding)
}

func TestRun_NoItems(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	result, err := f.orch.Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, result.Status)
	assert.Zero(t, result.Payload.Stats.TotalItems)

	run, err := f.store.GetRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
}

func TestRun_GenerationUnavailableFailsRun(t *testing.T) {
	items := []*core.RawItem{rawItem(core.SourceTypeFeed, "f", "https://a", "A", "a", baseTime)}
	feedErr := core.CollectionError{SourceType: core.SourceTypeFeed, SourceID: "broken", ErrorKind: "http", Message: "404"}
	sink := &recordingSink{name: "memory"}
	f := newFixture(t, []Collector{staticCollector("rss", items, []core.CollectionError{feedErr})}, WithSinks(sink))
	f.provider.GetMockGenerator().GenerateFunc = func(ctx context.Context, req ai.GenerationRequest) (*ai.Summary, error) {
		return nil, errors.New("503 service unavailable")
	}
	ctx := context.Background()

	result, err := f.orch.Run(ctx, RunOptions{})
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
	require.NotNil(t, result)
	assert.Equal(t, core.RunStatusFailed, result.Status)
	assert.ErrorIs(t, result.Err, ErrGenerationUnavailable)
	assert.Nil(t, result.Payload)
	assert.Empty(t, sink.payloads)

	run, err := f.store.GetRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, run.Status)
	assert.Contains(t, run.ErrorMessage, "generation service unavailable")
	assert.Equal(t, core.RunCounts{Collected: 1, CollectionErrors: 1}, run.Counts)
}

func TestRun_PersistenceFailureFailsRun(t *testing.T) {
	inner := newTestStore(t)
	commitErr := errors.New("disk full")
	enricher, err := NewEnricher(mock.NewMockGenerator(), nil)
	require.NoError(t, err)
	persister, err := NewPersister(&failingCommitStore{Store: inner, err: commitErr}, nil)
	require.NoError(t, err)
	items := []*core.RawItem{rawItem(core.SourceTypeFeed, "f", "https://a", "A", "a", baseTime)}
	orch, err := NewOrchestrator([]Collector{staticCollector("rss", items, nil)}, enricher, persister)
	require.NoError(t, err)
	ctx := context.Background()

	result, err := orch.Run(ctx, RunOptions{})
	assert.ErrorIs(t, err, commitErr)
	assert.Equal(t, core.RunStatusFailed, result.Status)

	run, err := inner.GetRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, run.Status)
	assert.Contains(t, run.ErrorMessage, "disk full")
	_, err = inner.GetItem(ctx, items[0].ItemID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRun_RejectsNegativeBackfill(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.orch.Run(context.Background(), RunOptions{BackfillDays: -1})
	assert.ErrorIs(t, err, ErrInvalidBackfill)
}

func TestRun_OneAtATime(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	blocking := CollectorFunc{
		CollectorName: "blocking",
		Fn: func(ctx context.Context, cutoff time.Time) ([]*core.RawItem, []core.CollectionError) {
			close(started)
			<-release
			return nil, nil
		},
	}
	f := newFixture(t, []Collector{blocking})

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Run(context.Background(), RunOptions{})
		done <- err
	}()
	<-started

	_, err := f.orch.Run(context.Background(), RunOptions{})
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	assert.NoError(t, <-done)
}
