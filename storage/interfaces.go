package storage

import (
	"context"

	"github.com/poiesic/newsdigest/core"
)

// TransactionManager runs a unit of work atomically.
type TransactionManager interface {
	// WithTransaction executes fn within a read-write transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// Repository calls made with the context passed to fn join the
	// transaction instead of opening their own.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ItemQuery filters and bounds RecentItems.
// Zero values mean "no filter"; Limit <= 0 means unbounded.
type ItemQuery struct {
	Topic       string
	ArticleType core.ArticleType
	Limit       int
}

// ItemRepository provides operations for managing enriched items.
// Implementations must be thread-safe and support concurrent access.
type ItemRepository interface {
	// UpsertItem inserts or updates an item keyed by ItemID.
	// On update PublishedAt and CreatedAt keep their stored values and every
	// other field is overwritten. Returns the stored identity key.
	UpsertItem(ctx context.Context, item *core.EnrichedItem) (string, error)

	// GetItem retrieves a single item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id string) (*core.EnrichedItem, error)

	// RecentItems returns items ordered by PublishedAt descending.
	RecentItems(ctx context.Context, query ItemQuery) ([]*core.EnrichedItem, error)

	// ScanItems returns up to limit items whose ID sorts after afterID,
	// in ID order. Pass "" to start from the beginning.
	ScanItems(ctx context.Context, afterID string, limit int) ([]*core.EnrichedItem, error)

	// CountItems returns the number of stored items.
	CountItems(ctx context.Context) (int, error)

	// UpdateEmbedding replaces the embedding of an existing item.
	// Returns ErrNotFound if the item doesn't exist.
	UpdateEmbedding(ctx context.Context, id string, vector []float32) error

	// FindSimilar finds items whose embedding is similar to vector.
	// Returns items with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)
}

// RunRepository provides operations for pipeline run records.
type RunRepository interface {
	// StartRun stores a new run record with status running.
	StartRun(ctx context.Context, run *core.PipelineRun) error

	// FinishRun marks a run completed with final counts.
	// Returns ErrNotFound if the run doesn't exist.
	FinishRun(ctx context.Context, runID string, counts core.RunCounts) error

	// FailRun marks a run failed with the counts reached so far. A run that
	// was never started is created so the failure is still recorded.
	FailRun(ctx context.Context, runID string, counts core.RunCounts, message string) error

	// GetRun retrieves a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	GetRun(ctx context.Context, runID string) (*core.PipelineRun, error)

	// RecentRuns returns up to limit runs, most recently started first.
	RecentRuns(ctx context.Context, limit int) ([]*core.PipelineRun, error)
}

// Store combines every repository behind one backend.
type Store interface {
	ItemRepository
	RunRepository
	TransactionManager

	// Close closes the storage backend and releases resources.
	Close() error
}
