package badger

import (
	"context"

	"github.com/poiesic/newsdigest/storage"
)

// Store implements storage.Store on a single Backend.
type Store struct {
	*ItemRepository
	*RunRepository
	backend *Backend
}

var _ storage.Store = (*Store)(nil)

// newStore is an internal constructor that returns the concrete type.
func newStore(backend *Backend) *Store {
	return &Store{
		ItemRepository: NewItemRepository(backend),
		RunRepository:  NewRunRepository(backend),
		backend:        backend,
	}
}

// NewStore opens (or creates) a database directory at path.
//
// Returns storage.Store interface to enforce abstraction.
func NewStore(path string) (storage.Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newStore(backend), nil
}

// WithTransaction delegates to the backend.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.backend.WithTransaction(ctx, fn)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.backend.Close()
}
