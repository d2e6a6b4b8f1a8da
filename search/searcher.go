package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/newsdigest/ai"
	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/storage"
)

const (
	// DefaultMinSimilarity is the cosine similarity floor for a semantic hit.
	DefaultMinSimilarity float32 = 0.60

	// DefaultMaxHits is used when a caller passes a non-positive limit.
	DefaultMaxHits = 10

	// verbatimBoost is added when every query keyword appears in the item.
	verbatimBoost float32 = 0.3
)

// Searcher provides semantic search over stored digest items.
type Searcher struct {
	items         storage.ItemRepository
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity overrides DefaultMinSimilarity.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		if min < -1 || min > 1 {
			return ErrInvalidSimilarity
		}
		s.minSimilarity = min
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(items storage.ItemRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		items:         items,
		embedder:      embedder,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to maxHits items similar to query, ranked by score.
func (s *Searcher) Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, maxHits, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if maxHits <= 0 {
		maxHits = DefaultMaxHits
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// Over-fetch so the verbatim boost can promote items past the cut.
	matches, err := s.items.FindSimilar(ctx, embedding, s.minSimilarity, maxHits*2)
	if err != nil {
		s.logger.Error("error querying for similar items", "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(matches)

	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		if match == nil || match.Item == nil {
			continue
		}
		score := match.Score
		if containsAllQueryWords(itemText(match.Item), query) {
			score += verbatimBoost
			monitor.VerbatimHit(match.Item)
		}
		results = append(results, &core.SearchResult{Item: match.Item, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	s.logger.Debug("search complete", "query", query, "matches", len(matches), "results", len(results))
	return results, nil
}

func itemText(item *core.EnrichedItem) string {
	var b strings.Builder
	b.WriteString(item.Title)
	b.WriteByte(' ')
	b.WriteString(item.Summary)
	for _, kp := range item.KeyPoints {
		b.WriteByte(' ')
		b.WriteString(kp)
	}
	return b.String()
}
