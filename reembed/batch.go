package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/newsdigest/ai"
	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/storage"
)

// ItemStore is the storage a reembedding run needs.
type ItemStore interface {
	storage.ItemRepository
	storage.TransactionManager
}

// BatchProcessor embeds batches of items and writes the vectors back.
type BatchProcessor struct {
	store          ItemStore
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding API call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(store ItemStore, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		store:          store,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds items and stores the normalized vectors in one transaction.
// On success each item's Embedding field holds its new vector.
func (bp *BatchProcessor) Process(ctx context.Context, items []*core.EnrichedItem) error {
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.EmbeddingText()
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(items) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(items), len(embeddings))
	}

	vectors := make([][]float32, len(items))
	for i := range items {
		vectors[i] = NormalizeVector(embeddings[i])
	}

	err = bp.store.WithTransaction(ctx, func(ctx context.Context) error {
		for i, item := range items {
			if err := bp.store.UpdateEmbedding(ctx, item.ItemID, vectors[i]); err != nil {
				return fmt.Errorf("item %s: %w", item.ItemID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update items: %w", err)
	}

	for i, item := range items {
		item.Embedding = vectors[i]
	}
	return nil
}
