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


package search

import "errors"

var (
	// ErrItemRepositoryRequired is returned when an item repository is not provided.
	ErrItemRepositoryRequired = errors.New("item repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyQuery is returned for a blank search query.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrInvalidSimilarity is returned for a similarity floor outside [-1, 1].
	ErrInvalidSimilarity = errors.New("minimum similarity must be between -1 and 1")
)
