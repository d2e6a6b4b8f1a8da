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


package storage

import (
	"fmt"
	"time"

	"github.com/poiesic/newsdigest/core"
	"github.com/vmihailenco/msgpack/v5"
)

// itemRecord is the on-disk shape of an EnrichedItem.
type itemRecord struct {
	ItemID       string    `msgpack:"id"`
	Title        string    `msgpack:"title"`
	Summary      string    `msgpack:"summary"`
	KeyPoints    []string  `msgpack:"key_points"`
	Topics       []string  `msgpack:"topics"`
	ArticleType  string    `msgpack:"article_type"`
	OriginalURLs []string  `msgpack:"urls"`
	SourceTypes  []string  `msgpack:"sources"`
	PublishedAt  time.Time `msgpack:"published_at"`
	ProcessedAt  time.Time `msgpack:"processed_at"`
	Embedding    []float32 `msgpack:"embedding,omitempty"`
	CreatedAt    time.Time `msgpack:"created_at"`
	UpdatedAt    time.Time `msgpack:"updated_at"`
}

// runRecord is the on-disk shape of a PipelineRun.
type runRecord struct {
	RunID            string    `msgpack:"id"`
	RunDate          time.Time `msgpack:"run_date"`
	StartedAt        time.Time `msgpack:"started_at"`
	CompletedAt      time.Time `msgpack:"completed_at"`
	Collected        int       `msgpack:"collected"`
	Processed        int       `msgpack:"processed"`
	Persisted        int       `msgpack:"persisted"`
	CollectionErrors int       `msgpack:"collection_errors"`
	Status           string    `msgpack:"status"`
	ErrorMessage     string    `msgpack:"error,omitempty"`
}

// MarshalItem serializes an EnrichedItem to bytes.
func MarshalItem(item *core.EnrichedItem) ([]byte, error) {
	rec := itemRecord{
		ItemID:       item.ItemID,
		Title:        item.Title,
		Summary:      item.Summary,
		KeyPoints:    item.KeyPoints,
		Topics:       item.Topics,
		ArticleType:  string(item.ArticleType),
		OriginalURLs: item.OriginalURLs,
		SourceTypes:  make([]string, len(item.SourceTypes)),
		PublishedAt:  item.PublishedAt.UTC(),
		ProcessedAt:  item.ProcessedAt.UTC(),
		Embedding:    item.Embedding,
		CreatedAt:    item.CreatedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
	}
	for i, st := range item.SourceTypes {
		rec.SourceTypes[i] = string(st)
	}
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("%w: item %s: %w", ErrSerializationFailed, item.ItemID, err)
	}
	return data, nil
}

// UnmarshalItem deserializes an EnrichedItem from bytes.
func UnmarshalItem(data []byte) (*core.EnrichedItem, error) {
	var rec itemRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	item := &core.EnrichedItem{
		ItemID:       rec.ItemID,
		Title:        rec.Title,
		Summary:      rec.Summary,
		KeyPoints:    rec.KeyPoints,
		Topics:       rec.Topics,
		ArticleType:  core.ArticleType(rec.ArticleType),
		OriginalURLs: rec.OriginalURLs,
		SourceTypes:  make([]core.SourceType, len(rec.SourceTypes)),
		PublishedAt:  rec.PublishedAt.UTC(),
		ProcessedAt:  rec.ProcessedAt.UTC(),
		Embedding:    rec.Embedding,
		CreatedAt:    rec.CreatedAt.UTC(),
		UpdatedAt:    rec.UpdatedAt.UTC(),
	}
	for i, st := range rec.SourceTypes {
		item.SourceTypes[i] = core.SourceType(st)
	}
	return item, nil
}

// MarshalRun serializes a PipelineRun to bytes.
func MarshalRun(run *core.PipelineRun) ([]byte, error) {
	rec := runRecord{
		RunID:            run.RunID,
		RunDate:          run.RunDate.UTC(),
		StartedAt:        run.StartedAt.UTC(),
		CompletedAt:      run.CompletedAt.UTC(),
		Collected:        run.Counts.Collected,
		Processed:        run.Counts.Processed,
		Persisted:        run.Counts.Persisted,
		CollectionErrors: run.Counts.CollectionErrors,
		Status:           string(run.Status),
		ErrorMessage:     run.ErrorMessage,
	}
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("%w: run %s: %w", ErrSerializationFailed, run.RunID, err)
	}
	return data, nil
}

// UnmarshalRun deserializes a PipelineRun from bytes.
func UnmarshalRun(data []byte) (*core.PipelineRun, error) {
	var rec runRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &core.PipelineRun{
		RunID:       rec.RunID,
		RunDate:     rec.RunDate.UTC(),
		StartedAt:   rec.StartedAt.UTC(),
		CompletedAt: rec.CompletedAt.UTC(),
		Counts: core.RunCounts{
			Collected:        rec.Collected,
			Processed:        rec.Processed,
			Persisted:        rec.Persisted,
			CollectionErrors: rec.CollectionErrors,
		},
		Status:       core.RunStatus(rec.Status),
		ErrorMessage: rec.ErrorMessage,
	}, nil
}
