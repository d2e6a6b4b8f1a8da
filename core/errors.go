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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidRawItem indicates a RawItem failed validation.
	ErrInvalidRawItem = errors.New("invalid raw item")

	// ErrInvalidEnrichedItem indicates an EnrichedItem failed validation.
	ErrInvalidEnrichedItem = errors.New("invalid enriched item")

	// ErrInvalidRun indicates a PipelineRun failed validation.
	ErrInvalidRun = errors.New("invalid pipeline run")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyItemID indicates the identity key is missing.
	ErrEmptyItemID = errors.New("item id cannot be empty")

	// ErrInvalidSourceType indicates an unknown SourceType value.
	ErrInvalidSourceType = errors.New("invalid source type")

	// ErrInvalidArticleType indicates an unknown ArticleType value.
	ErrInvalidArticleType = errors.New("invalid article type")

	// ErrUnknownTopic indicates a topic outside the vocabulary.
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrInvalidRunStatus indicates an unknown RunStatus value.
	ErrInvalidRunStatus = errors.New("invalid run status")
)
