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


// Package storage provides the storage abstraction layer for newsdigest.
//
// This package defines repository interfaces that decouple the pipeline from
// the storage implementation. The BadgerDB backend lives in storage/badger.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces:
//
//	store, err := badger.NewStore(path)  // returns storage.Store
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Architecture
//
//   - ItemRepository: enriched items, idempotently upserted by ItemID
//   - RunRepository: pipeline run audit records
//   - TransactionManager: groups repository calls into one atomic write
//   - Store: all of the above behind one backend
//
// # Transactions
//
// WithTransaction hands fn a context that carries the open transaction.
// Repository calls made with that context join it:
//
//	err := store.WithTransaction(ctx, func(ctx context.Context) error {
//	    if err := store.StartRun(ctx, run); err != nil {
//	        return err
//	    }
//	    if _, err := store.UpsertItem(ctx, item); err != nil {
//	        log.Warn("skipping item", "err", err) // the batch continues
//	    }
//	    return store.FinishRun(ctx, run.RunID, counts)
//	})
//
// Nothing is visible to other readers until fn returns nil and the commit
// succeeds.
//
// # Serialization
//
// Records are encoded with msgpack using dedicated on-disk structs so the
// domain types in core stay free of storage tags.
//
// # Thread Safety
//
// All repository implementations must be thread-safe. A single transaction
// context must not be shared across goroutines.
package storage
