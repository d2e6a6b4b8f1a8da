package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/poiesic/newsdigest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublisher() *Publisher {
	p := NewPublisher(nil)
	p.now = func() time.Time { return baseTime.Add(time.Minute) }
	return p
}

func TestPublish_Empty(t *testing.T) {
	p := newTestPublisher()
	payload := p.Publish(nil, &State{RunID: "run_x", RunDate: baseTime})

	assert.Equal(t, "run_x", payload.Meta.RunID)
	assert.Equal(t, "2025-06-15T12:00:00Z", payload.Meta.RunDate)
	assert.Equal(t, "2025-06-15T12:01:00Z", payload.Meta.GeneratedAt)
	assert.Equal(t, PayloadVersion, payload.Meta.Version)
	assert.Zero(t, payload.Stats.TotalItems)
	assert.Empty(t, payload.ByTopic)
	assert.NotNil(t, payload.Items)
	assert.NotNil(t, payload.Errors)
}

func TestPublish_GroupsAndStats(t *testing.T) {
	p := newTestPublisher()

	older := enrichedItem("older", baseTime.Add(-time.Hour), "LLMs", "Research")
	newer := enrichedItem("newer", baseTime, "LLMs")
	newer.SourceTypes = []core.SourceType{core.SourceTypeFeed, core.SourceTypeMailbox}
	untagged := enrichedItem("untagged", baseTime)
	untagged.Topics = nil
	untagged.ArticleType = core.ArticleTypeTutorial

	state := &State{
		RunID:          "run_1",
		RunDate:        baseTime,
		PersistedCount: 3,
		FailedItems:    1,
		CollectionErrors: []core.CollectionError{{
			SourceType: core.SourceTypeFeed,
			SourceID:   "https://broken/feed",
			ErrorKind:  "http",
			Message:    "404 not found",
		}},
	}

	payload := p.Publish([]*core.EnrichedItem{older, newer, untagged}, state)

	assert.Equal(t, 3, payload.Stats.TotalItems)
	assert.Equal(t, 3, payload.Stats.PersistedCount)
	assert.Equal(t, 1, payload.Stats.CollectionErrors)
	assert.Equal(t, 1, payload.Stats.FailedItems)
	assert.Equal(t, map[string]int{"LLMs": 2, "Research": 1}, payload.Stats.TopicDistribution)
	assert.Equal(t, map[string]int{"feed": 3, "mailbox": 1}, payload.Stats.SourceDistribution)
	assert.Equal(t, map[string]int{"news": 2, "tutorial": 1}, payload.Stats.ArticleTypeDistribution)

	require.Len(t, payload.ByTopic["LLMs"], 2)
	assert.Equal(t, "newer", payload.ByTopic["LLMs"][0].ID)
	assert.Equal(t, "older", payload.ByTopic["LLMs"][1].ID)
	require.Len(t, payload.ByTopic[core.UncategorizedTopic], 1)
	assert.Equal(t, []string{}, payload.ByTopic[core.UncategorizedTopic][0].Topics)

	// Flat list keeps input order.
	require.Len(t, payload.Items, 3)
	assert.Equal(t, "older", payload.Items[0].ID)

	require.Len(t, payload.Errors, 1)
	assert.Equal(t, PublishedError{SourceType: "feed", SourceID: "https://broken/feed", Error: "404 not found"}, payload.Errors[0])
}

func TestPublish_JSONShape(t *testing.T) {
	p := newTestPublisher()
	item := enrichedItem("a", baseTime)
	item.Embedding = []float32{0.1, 0.2}

	data, err := json.Marshal(p.Publish([]*core.EnrichedItem{item}, &State{RunID: "run_1", RunDate: baseTime}))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"meta", "stats", "by_topic", "items", "errors"} {
		assert.Contains(t, decoded, key)
	}

	items := decoded["items"].([]any)
	first := items[0].(map[string]any)
	assert.Equal(t, "a", first["id"])
	assert.Equal(t, "2025-06-15T12:00:00Z", first["published_at"])
	assert.Equal(t, []any{"https://example.com/a"}, first["urls"])
	assert.Equal(t, []any{"feed"}, first["sources"])
	assert.NotContains(t, first, "embedding")
}
