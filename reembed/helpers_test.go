package reembed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/storage"
	"github.com/poiesic/newsdigest/storage/badger"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// seedItems stores n items with IDs item-000, item-001, ...
func seedItems(t *testing.T, store storage.Store, n int, embedding []float32) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range n {
		ids[i] = fmt.Sprintf("item-%03d", i)
		_, err := store.UpsertItem(context.Background(), &core.EnrichedItem{
			ItemID:       ids[i],
			Title:        "Title " + ids[i],
			Summary:      "Summary " + ids[i],
			KeyPoints:    []string{"a", "b", "c"},
			Topics:       []string{"Research"},
			ArticleType:  core.ArticleTypeNews,
			OriginalURLs: []string{"https://example.com/" + ids[i]},
			SourceTypes:  []core.SourceType{core.SourceTypeFeed},
			PublishedAt:  time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
			ProcessedAt:  time.Date(2025, 6, 15, 12, 5, 0, 0, time.UTC),
			Embedding:    embedding,
		})
		require.NoError(t, err)
	}
	return ids
}
