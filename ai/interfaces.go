package ai

import (
	"context"
	"time"
)

// Generator produces a structured summary for a single article.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate performs one generation call for the request.
	// Output that violates the Summary schema is reported as an error
	// wrapping ErrValidation; any other error means the call itself failed.
	Generate(ctx context.Context, req GenerationRequest) (*Summary, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// GenerationRequest carries the article fields a Generator sees.
// Content is expected to be truncated by the caller.
type GenerationRequest struct {
	Title       string
	Content     string
	SourceType  string
	SourceID    string
	PublishedAt time.Time
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Generator returns the summarization service.
	Generator() Generator

	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	Close() error
}
