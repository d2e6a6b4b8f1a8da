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


package pipeline

import "errors"

var (
	// ErrGeneratorRequired is returned when an enricher has no generator.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrEmbedderRequired is returned when embeddings are requested without an embedder.
	ErrEmbedderRequired = errors.New("embedder required for embeddings")

	// ErrStoreRequired is returned when a persister has no store.
	ErrStoreRequired = errors.New("store required")

	// ErrInvalidConcurrency is returned when maxConcurrent is below 1.
	ErrInvalidConcurrency = errors.New("max concurrent must be at least 1")

	// ErrInvalidBackfill is returned for a negative backfill window.
	ErrInvalidBackfill = errors.New("backfill days must not be negative")

	// ErrGenerationUnavailable is returned when every item failed with a
	// non-validation error, meaning the generation service itself is down.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrEmbeddingUnavailable is returned when every item failed to embed,
	// meaning the embedding service itself is down.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingFailed marks an item whose summary succeeded but whose
	// embedding did not.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrSemanticDedupNotImplemented is returned by FindSemanticDuplicates.
	ErrSemanticDedupNotImplemented = errors.New("semantic deduplication not implemented")
)
