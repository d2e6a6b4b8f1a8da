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

	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/storage"
)

const (
	// DefaultBatchSize is the default number of items to fetch in each batch
	DefaultBatchSize = 100
)

// ItemIterator pages through every stored item in ID order.
type ItemIterator struct {
	repo      storage.ItemRepository
	batchSize int
}

// NewItemIterator creates a new item iterator.
// batchSize: number of items to fetch in each batch, DefaultBatchSize if <= 0
func NewItemIterator(repo storage.ItemRepository, batchSize int) *ItemIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ItemIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with successive batches until every item has been seen.
// Iteration stops on the first error from fn. Context cancellation is
// checked between batches.
func (it *ItemIterator) ForEach(ctx context.Context, fn func([]*core.EnrichedItem) error) error {
	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := it.repo.ScanItems(ctx, afterID, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		// A short page is the last one.
		if len(batch) < it.batchSize {
			return nil
		}
		afterID = batch[len(batch)-1].ItemID
	}
}
