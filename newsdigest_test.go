package newsdigest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/newsdigest/ai/mock"
	"github.com/poiesic/newsdigest/collector/rss"
	"github.com/poiesic/newsdigest/config"
	"github.com/poiesic/newsdigest/core"
	"github.com/poiesic/newsdigest/pipeline"
	"github.com/poiesic/newsdigest/reembed"
	"github.com/poiesic/newsdigest/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticCollector(items ...*core.RawItem) pipeline.Collector {
	return pipeline.CollectorFunc{
		CollectorName: "static",
		Fn: func(context.Context, time.Time) ([]*core.RawItem, []core.CollectionError) {
			return items, nil
		},
	}
}

func feedItem(url, title string, published time.Time) *core.RawItem {
	content := "Body of " + title
	return &core.RawItem{
		SourceType:  core.SourceTypeFeed,
		SourceID:    "https://feeds.example.com/rss",
		ItemID:      core.ItemID(url, title, content),
		Title:       title,
		Content:     content,
		PublishedAt: published,
		URL:         url,
		RawMetadata: core.Metadata{"feed_name": "Example"},
	}
}

func openTestDigest(t *testing.T, settings *config.Settings, opts ...Option) *Digest {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)

	opts = append([]Option{WithStore(store), WithProvider(mock.NewMockProvider())}, opts...)
	d, err := Open(context.Background(), settings, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestOpen_Defaults(t *testing.T) {
	d := openTestDigest(t, nil)

	assert.NotNil(t, d.Store())
	assert.Equal(t, config.DefaultSources(), d.Sources())
	assert.Empty(t, d.Sinks())
}

func TestOpen_FileSinkFromSettings(t *testing.T) {
	settings := config.Defaults()
	settings.PublishDir = t.TempDir()

	d := openTestDigest(t, settings)
	require.Len(t, d.Sinks(), 1)
	assert.Equal(t, "file", d.Sinks()[0].Name())
}

func TestOpen_ProviderConfigError(t *testing.T) {
	// The anthropic backend without a key fails validation.
	settings := config.Defaults()
	settings.DatabasePath = filepath.Join(t.TempDir(), "db")

	d, err := Open(context.Background(), settings, WithSources(&config.Sources{}))
	assert.Error(t, err)
	assert.Nil(t, d)

	// The store was released, so the path can be opened again.
	store, err := badger.NewStore(settings.DatabasePath)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestOpen_BadSourcesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feeds: [{name: x}]\n"), 0644))

	settings := config.Defaults()
	settings.SourcesFile = path

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	_, err = Open(context.Background(), settings, WithStore(store), WithProvider(mock.NewMockProvider()))
	assert.Error(t, err)
}

func TestCollectors(t *testing.T) {
	t.Run("feeds only without gmail credentials", func(t *testing.T) {
		d := openTestDigest(t, nil)

		collectors, err := d.Collectors(context.Background())
		require.NoError(t, err)
		require.Len(t, collectors, 1)
		assert.Equal(t, "rss", collectors[0].Name())
	})

	t.Run("mailbox with credentials", func(t *testing.T) {
		settings := config.Defaults()
		settings.GmailClientID = "id"
		settings.GmailClientSecret = "secret"
		settings.GmailRefreshToken = "token"
		d := openTestDigest(t, settings)

		collectors, err := d.Collectors(context.Background())
		require.NoError(t, err)
		require.Len(t, collectors, 2)
		assert.Equal(t, "mailbox", collectors[1].Name())
	})

	t.Run("no sources", func(t *testing.T) {
		d := openTestDigest(t, nil, WithSources(&config.Sources{Feeds: []rss.FeedConfig{}}))

		collectors, err := d.Collectors(context.Background())
		require.NoError(t, err)
		assert.Empty(t, collectors)
	})

	t.Run("explicit collectors replace defaults", func(t *testing.T) {
		d := openTestDigest(t, nil, WithCollectors(staticCollector()))

		collectors, err := d.Collectors(context.Background())
		require.NoError(t, err)
		require.Len(t, collectors, 1)
		assert.Equal(t, "static", collectors[0].Name())
	})
}

func TestDigest_EndToEnd(t *testing.T) {
	settings := config.Defaults()
	settings.PublishDir = t.TempDir()
	now := time.Now().UTC()

	d := openTestDigest(t, settings, WithCollectors(staticCollector(
		feedItem("https://example.com/a", "Model A ships", now.Add(-time.Hour)),
		feedItem("https://example.com/b", "Agents get memory", now.Add(-2*time.Hour)),
	)))
	ctx := context.Background()

	orch, err := d.NewOrchestrator(ctx)
	require.NoError(t, err)

	result, err := orch.Run(ctx, pipeline.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, result.Status)
	assert.Equal(t, 2, result.State.PersistedCount)

	_, err = os.Stat(filepath.Join(settings.PublishDir, "latest.json"))
	assert.NoError(t, err, "file sink received the payload")

	count, err := d.Store().CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	searcher, err := d.NewSearcher()
	require.NoError(t, err)
	results, err := searcher.Search(ctx, "Model A ships", 5)
	require.NoError(t, err)
	assert.NotNil(t, results)

	cfg := reembed.DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	r, err := d.NewReembedder(cfg, nil)
	require.NoError(t, err)
	res, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Embedded)
}
