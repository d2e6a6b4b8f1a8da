package pipeline

import (
	"testing"
	"time"

	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/storage"
	"github.com/poiesic/newsdigest/storage/badger"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func rawItem(sourceType core.SourceType, sourceID, url, title, content string, published time.Time) *core.RawItem {
	return &core.RawItem{
		SourceType:  sourceType,
		SourceID:    sourceID,
		ItemID:      core.ItemID(url, title, content),
		Title:       title,
		Content:     content,
		PublishedAt: published,
		URL:         url,
		RawMetadata: core.Metadata{"feed_name": sourceID},
	}
}

func enrichedItem(id string, published time.Time, topics ...string) *core.EnrichedItem {
	if len(topics) == 0 {
		topics = []string{"LLMs"}
	}
	return &core.EnrichedItem{
		ItemID:       id,
		Title:        "Title " + id,
		Summary:      "Summary " + id,
		KeyPoints:    []string{"one", "two", "three"},
		Topics:       topics,
		ArticleType:  core.ArticleTypeNews,
		OriginalURLs: []string{"https://example.com/" + id},
		SourceTypes:  []core.SourceType{core.SourceTypeFeed},
		PublishedAt:  published,
		ProcessedAt:  baseTime,
	}
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}
