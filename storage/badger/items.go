package badger

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/storage"
)

// ItemRepository implements storage.ItemRepository for BadgerDB.
type ItemRepository struct {
	backend *Backend
	now     func() time.Time
}

var _ storage.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(backend *Backend) *ItemRepository {
	return &ItemRepository{
		backend: backend,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// UpsertItem inserts or updates an item keyed by ItemID.
func (r *ItemRepository) UpsertItem(ctx context.Context, item *core.EnrichedItem) (string, error) {
	if err := core.ValidateEnrichedItem(item); err != nil {
		return "", fmt.Errorf("%w: %w", storage.ErrInvalidRecord, err)
	}

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		key := makeItemKey(item.ItemID)
		old, err := readItem(tx, key)
		if err != nil {
			return err
		}

		now := r.now()
		stored := *item
		stored.UpdatedAt = now
		if old != nil {
			stored.PublishedAt = old.PublishedAt
			stored.CreatedAt = old.CreatedAt
		} else {
			stored.CreatedAt = now
		}

		value, err := storage.MarshalItem(&stored)
		if err != nil {
			return err
		}
		// The index entry goes first: if the record itself does not fit,
		// retrying in a new transaction rewrites the same index key.
		if old == nil {
			dateKey := makeItemDateKey(stored.PublishedAt, stored.ItemID)
			if err := tx.Set(dateKey, []byte(stored.ItemID)); err != nil {
				return wrapTxnErr(err)
			}
		}
		if err := tx.Set(key, value); err != nil {
			return wrapTxnErr(err)
		}

		item.PublishedAt = stored.PublishedAt
		item.CreatedAt = stored.CreatedAt
		item.UpdatedAt = stored.UpdatedAt
		return nil
	}, true)
	if err != nil {
		return "", err
	}
	return item.ItemID, nil
}

// GetItem retrieves a single item by ID.
func (r *ItemRepository) GetItem(ctx context.Context, id string) (*core.EnrichedItem, error) {
	var result *core.EnrichedItem
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = readItem(tx, makeItemKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// RecentItems walks the date index newest first, applying the query filters.
func (r *ItemRepository) RecentItems(ctx context.Context, query storage.ItemQuery) ([]*core.EnrichedItem, error) {
	var results []*core.EnrichedItem
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(itemDatePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefixEnd(itemDatePrefix)); iter.Valid(); iter.Next() {
			if query.Limit > 0 && len(results) >= query.Limit {
				break
			}

			var id []byte
			if err := iter.Item().Value(func(val []byte) error {
				id = bytes.Clone(val)
				return nil
			}); err != nil {
				return err
			}

			item, err := readItem(tx, makeItemKey(string(id)))
			if err != nil {
				return err
			}
			if item == nil || !matchesQuery(item, query) {
				continue
			}
			results = append(results, item)
		}
		return nil
	}, false)
	return results, err
}

func matchesQuery(item *core.EnrichedItem, query storage.ItemQuery) bool {
	if query.Topic != "" && !slices.Contains(item.Topics, query.Topic) {
		return false
	}
	if query.ArticleType != "" && item.ArticleType != query.ArticleType {
		return false
	}
	return true
}

// ScanItems returns up to limit items after afterID in key order.
func (r *ItemRepository) ScanItems(ctx context.Context, afterID string, limit int) ([]*core.EnrichedItem, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var results []*core.EnrichedItem
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		start := makeItemKey(afterID)
		for iter.Seek(start); iter.Valid() && len(results) < limit; iter.Next() {
			if afterID != "" && bytes.Equal(iter.Item().Key(), start) {
				continue
			}
			var item *core.EnrichedItem
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				item, err = storage.UnmarshalItem(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, item)
		}
		return nil
	}, false)
	return results, err
}

// CountItems counts stored items using a key-only iteration.
func (r *ItemRepository) CountItems(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// UpdateEmbedding replaces the embedding of an existing item.
func (r *ItemRepository) UpdateEmbedding(ctx context.Context, id string, vector []float32) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		key := makeItemKey(id)
		item, err := readItem(tx, key)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}

		item.Embedding = vector
		item.UpdatedAt = r.now()
		value, err := storage.MarshalItem(item)
		if err != nil {
			return err
		}
		return tx.Set(key, value)
	}, true)
}

// FindSimilar delegates to the backend.
func (r *ItemRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// readItem reads an item from the transaction.
// Returns nil, nil if the key doesn't exist.
func readItem(tx *badger.Txn, key []byte) (*core.EnrichedItem, error) {
	entry, err := tx.Get(key)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var item *core.EnrichedItem
	err = entry.Value(func(val []byte) error {
		var unmarshalErr error
		item, unmarshalErr = storage.UnmarshalItem(val)
		return unmarshalErr
	})
	return item, err
}
