// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.



package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/newsdigest/ai"
	"github.com/poiesic/newsdigest/core"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of items to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of items)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// OnlyMissing skips items that already carry an embedding.
	OnlyMissing bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Result summarizes a finished run.
type Result struct {
	Total    int
	Embedded int
	Skipped  int
	Elapsed  time.Duration
}

// Reembedder recomputes the embeddings of every stored item.
type Reembedder struct {
	store     ItemStore
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ItemIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr); nil discards it
func NewReembedder(store ItemStore, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		store:     store,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(store, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewItemIterator(store, config.BatchSize),
	}, nil
}

// Run embeds every stored item with the configured embedder.
func (r *Reembedder) Run(ctx context.Context) (*Result, error) {
	total, err := r.store.CountItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	result := &Result{Total: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No items found in database (0 items)\n")
		return result, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d items (batch size: %d)\n",
		total, r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	seen := 0
	err = r.iterator.ForEach(ctx, func(items []*core.EnrichedItem) error {
		pending := items
		if r.config.OnlyMissing {
			pending = make([]*core.EnrichedItem, 0, len(items))
			for _, item := range items {
				if len(item.Embedding) == 0 {
					pending = append(pending, item)
				}
			}
		}

		if err := r.processor.Process(ctx, pending); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		result.Embedded += len(pending)
		result.Skipped += len(items) - len(pending)
		seen += len(items)
		tracker.Update(seen)
		return nil
	})
	if err != nil {
		return result, err
	}

	tracker.Finish()
	result.Elapsed = tracker.Elapsed()

	fmt.Fprintf(r.progress, "Reembedding complete. Embedded %d items, skipped %d, in %v\n",
		result.Embedded, result.Skipped, result.Elapsed.Round(time.Millisecond))

	return result, nil
}
