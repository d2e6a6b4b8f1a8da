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

import (
	"fmt"
	"slices"
)

// ValidateRawItem validates a RawItem according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - ItemID must not be empty
//   - SourceType must be known
//
// Title, Author and URL are optional.
func ValidateRawItem(item *RawItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidRawItem)
	}
	if item.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRawItem, ErrEmptyContent)
	}
	if item.ItemID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRawItem, ErrEmptyItemID)
	}
	if err := ValidateSourceType(item.SourceType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRawItem, err)
	}
	return nil
}

// ValidateEnrichedItem validates an EnrichedItem before it is stored.
//
// Embedding is optional. Timestamps maintained by storage are not checked.
func ValidateEnrichedItem(item *EnrichedItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidEnrichedItem)
	}
	if item.ItemID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEnrichedItem, ErrEmptyItemID)
	}
	if item.Title == "" || item.Summary == "" {
		return fmt.Errorf("%w: title and summary are required", ErrInvalidEnrichedItem)
	}
	if len(item.KeyPoints) < 3 || len(item.KeyPoints) > 5 {
		return fmt.Errorf("%w: expected 3-5 key points, got %d", ErrInvalidEnrichedItem, len(item.KeyPoints))
	}
	if len(item.Topics) < 1 || len(item.Topics) > 3 {
		return fmt.Errorf("%w: expected 1-3 topics, got %d", ErrInvalidEnrichedItem, len(item.Topics))
	}
	for _, topic := range item.Topics {
		if !IsKnownTopic(topic) {
			return fmt.Errorf("%w: %w: %q", ErrInvalidEnrichedItem, ErrUnknownTopic, topic)
		}
	}
	if !IsKnownArticleType(item.ArticleType) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidEnrichedItem, ErrInvalidArticleType, item.ArticleType)
	}
	return nil
}

// ValidateRun validates a PipelineRun record.
func ValidateRun(run *PipelineRun) error {
	if run == nil {
		return fmt.Errorf("%w: run is nil", ErrInvalidRun)
	}
	if run.RunID == "" {
		return fmt.Errorf("%w: run id is required", ErrInvalidRun)
	}
	switch run.Status {
	case RunStatusRunning, RunStatusCompleted, RunStatusFailed:
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidRun, ErrInvalidRunStatus, run.Status)
	}
	return nil
}

// ValidateSourceType validates that a SourceType has a known value.
func ValidateSourceType(st SourceType) error {
	if st != SourceTypeFeed && st != SourceTypeMailbox {
		return fmt.Errorf("%w: value %q", ErrInvalidSourceType, st)
	}
	return nil
}

// IsKnownTopic reports whether topic belongs to the vocabulary.
func IsKnownTopic(topic string) bool {
	return slices.Contains(Topics, topic)
}

// IsKnownArticleType reports whether at is one of ArticleTypes.
func IsKnownArticleType(at ArticleType) bool {
	return slices.Contains(ArticleTypes, at)
}
