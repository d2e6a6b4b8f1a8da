package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/newsdigest/ai"
	"github.com/poiesic/newsdigest/core"
)

const (
	// DefaultMaxConcurrent bounds in-flight generation calls.
	DefaultMaxConcurrent = 5
	// DefaultMaxRetries is the number of retries after a validation failure.
	DefaultMaxRetries = 2
	// DefaultRetryDelay is the fixed wait between validation retries.
	DefaultRetryDelay = 500 * time.Millisecond
	// MaxPromptContent is the content length, in characters, sent for generation.
	MaxPromptContent = 8000
)

// EnrichResult is the output of one Enrich call.
type EnrichResult struct {
	Items  []*core.EnrichedItem
	Failed int
}

// Enricher turns deduplicated raw items into enriched items.
type Enricher struct {
	generator    ai.Generator
	embedder     ai.Embedder
	maxRetries   int
	retryDelay   time.Duration
	stageTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher) error

// WithMaxRetries sets the number of retries after a validation failure.
func WithMaxRetries(n int) EnricherOption {
	return func(e *Enricher) error {
		if n < 0 {
			n = 0
		}
		e.maxRetries = n
		return nil
	}
}

// WithRetryDelay sets the fixed delay between validation retries.
func WithRetryDelay(d time.Duration) EnricherOption {
	return func(e *Enricher) error {
		e.retryDelay = d
		return nil
	}
}

// WithStageTimeout bounds the wall-clock time of a whole Enrich call.
// Zero disables the bound.
func WithStageTimeout(d time.Duration) EnricherOption {
	return func(e *Enricher) error {
		e.stageTimeout = d
		return nil
	}
}

// WithEnricherClock overrides the clock used for ProcessedAt.
func WithEnricherClock(now func() time.Time) EnricherOption {
	return func(e *Enricher) error {
		if now != nil {
			e.now = now
		}
		return nil
	}
}

// WithEnricherLogger sets a custom logger.
// Default is slog.Default().
func WithEnricherLogger(logger *slog.Logger) EnricherOption {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEnricher creates an enricher. The embedder may be nil when embeddings
// are never requested.
func NewEnricher(generator ai.Generator, embedder ai.Embedder, opts ...EnricherOption) (*Enricher, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	e := &Enricher{
		generator:  generator,
		embedder:   embedder,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("stage", "enrich")
	return e, nil
}

// Enrich processes items with at most maxConcurrent generation calls in
// flight. Items that fail are counted and dropped; they never affect their
// siblings. The result is sorted newest first.
//
// ErrEmbeddingUnavailable is returned when there was at least one item and
// every item failed to embed. ErrGenerationUnavailable is returned when every
// item failed for another reason than invalid model output.
func (e *Enricher) Enrich(ctx context.Context, items []*core.RawItem, maxConcurrent int, generateEmbeddings bool) (*EnrichResult, error) {
	if maxConcurrent < 1 {
		return nil, ErrInvalidConcurrency
	}
	if generateEmbeddings && e.embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if len(items) == 0 {
		e.logger.Warn("no items to enrich")
		return &EnrichResult{Items: []*core.EnrichedItem{}}, nil
	}

	if e.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.stageTimeout)
		defer cancel()
	}

	pool, err := ants.NewPool(maxConcurrent)
	if err != nil {
		return nil, fmt.Errorf("creating enrichment pool: %w", err)
	}
	defer pool.Release()

	e.logger.Info("starting enrichment", "items", len(items), "max_concurrent", maxConcurrent)

	results := make([]*core.EnrichedItem, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = e.enrichOne(ctx, item, generateEmbeddings)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	out := &EnrichResult{Items: make([]*core.EnrichedItem, 0, len(items))}
	generationFailures, embeddingFailures := 0, 0
	for i, res := range results {
		if errs[i] != nil {
			out.Failed++
			switch {
			case errors.Is(errs[i], ErrEmbeddingFailed):
				embeddingFailures++
			case !errors.Is(errs[i], ai.ErrValidation):
				generationFailures++
			}
			continue
		}
		out.Items = append(out.Items, res)
	}

	sort.SliceStable(out.Items, func(i, j int) bool {
		return out.Items[i].PublishedAt.After(out.Items[j].PublishedAt)
	})

	e.logger.Info("enrichment complete",
		"input", len(items),
		"output", len(out.Items),
		"failed", out.Failed)

	switch {
	case embeddingFailures == len(items):
		return out, fmt.Errorf("%w: all %d items failed: %w", ErrEmbeddingUnavailable, len(items), firstError(errs))
	case generationFailures+embeddingFailures == len(items):
		return out, fmt.Errorf("%w: all %d items failed: %w", ErrGenerationUnavailable, len(items), firstError(errs))
	}
	return out, nil
}

func (e *Enricher) enrichOne(ctx context.Context, item *core.RawItem, generateEmbeddings bool) (*core.EnrichedItem, error) {
	log := e.logger.With("item_id", item.ItemID, "title", item.Title)

	req := ai.GenerationRequest{
		Title:       item.Title,
		Content:     core.Truncate(item.Content, MaxPromptContent),
		SourceType:  string(item.SourceType),
		SourceID:    item.SourceID,
		PublishedAt: item.PublishedAt,
	}

	summary, err := e.generateWithRetry(ctx, req, log)
	if err != nil {
		return nil, err
	}

	enriched := &core.EnrichedItem{
		ItemID:       item.ItemID,
		Title:        summary.Title,
		Summary:      summary.Summary,
		KeyPoints:    summary.KeyPoints,
		Topics:       summary.Topics,
		ArticleType:  core.ArticleType(summary.ArticleType),
		OriginalURLs: originalURLs(item),
		SourceTypes:  sourceTypes(item),
		PublishedAt:  item.PublishedAt,
		ProcessedAt:  e.now(),
	}

	if generateEmbeddings {
		vector, err := e.embedder.EmbedText(ctx, enriched.EmbeddingText())
		if err != nil {
			log.Error("failed to embed item", "err", err)
			return nil, fmt.Errorf("%w: item %s: %w", ErrEmbeddingFailed, item.ItemID, err)
		}
		enriched.Embedding = vector
	}

	return enriched, nil
}

// generateWithRetry retries only failures wrapping ai.ErrValidation.
func (e *Enricher) generateWithRetry(ctx context.Context, req ai.GenerationRequest, log *slog.Logger) (*ai.Summary, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		summary, err := e.generator.Generate(ctx, req)
		if err == nil {
			return summary, nil
		}
		if !errors.Is(err, ai.ErrValidation) {
			log.Error("failed to enrich item", "err", err)
			return nil, err
		}

		lastErr = err
		if attempt == e.maxRetries {
			break
		}
		log.Warn("validation error, retrying", "attempt", attempt+1, "err", err)

		timer := time.NewTimer(e.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	log.Error("failed after retries", "retries", e.maxRetries, "err", lastErr)
	return nil, lastErr
}

func sourceTypes(item *core.RawItem) []core.SourceType {
	merged := item.RawMetadata.Strings(core.MetaMergedFromSources)
	if len(merged) == 0 {
		return []core.SourceType{item.SourceType}
	}
	out := make([]core.SourceType, len(merged))
	for i, s := range merged {
		out[i] = core.SourceType(s)
	}
	return out
}

func originalURLs(item *core.RawItem) []string {
	if urls := item.RawMetadata.Strings(core.MetaAllURLs); len(urls) > 0 {
		return urls
	}
	if item.URL != "" {
		return []string{item.URL}
	}
	return []string{}
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
