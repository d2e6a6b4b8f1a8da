package pipeline

import (
	"log/slog"
	"sort"
	"time"

	"github.com/poiesic/newsdigest/core"
)

// PayloadVersion is the schema version written into Meta.
const PayloadVersion = "1.0"

// Payload is the structured publication document for one run.
type Payload struct {
	Meta    Meta                       `json:"meta"`
	Stats   Stats                      `json:"stats"`
	ByTopic map[string][]PublishedItem `json:"by_topic"`
	Items   []PublishedItem            `json:"items"`
	Errors  []PublishedError           `json:"errors"`
}

// Meta describes the run that produced a payload.
type Meta struct {
	RunID       string `json:"run_id"`
	RunDate     string `json:"run_date"`
	GeneratedAt string `json:"generated_at"`
	Version     string `json:"version"`
}

// Stats summarizes a run.
type Stats struct {
	TotalItems              int            `json:"total_items"`
	PersistedCount          int            `json:"persisted_count"`
	CollectionErrors        int            `json:"collection_errors"`
	FailedItems             int            `json:"failed_items"`
	TopicDistribution       map[string]int `json:"topic_distribution"`
	SourceDistribution      map[string]int `json:"source_distribution"`
	ArticleTypeDistribution map[string]int `json:"article_type_distribution"`
}

// PublishedItem is the external projection of an EnrichedItem.
// Embeddings are never published.
type PublishedItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	KeyPoints   []string `json:"key_points"`
	Topics      []string `json:"topics"`
	ArticleType string   `json:"article_type"`
	URLs        []string `json:"urls"`
	Sources     []string `json:"sources"`
	PublishedAt string   `json:"published_at"`
	ProcessedAt string   `json:"processed_at"`
}

// PublishedError is the external projection of a CollectionError.
type PublishedError struct {
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	Error      string `json:"error"`
}

// NewPublishedItem projects an enriched item for publication.
func NewPublishedItem(item *core.EnrichedItem) PublishedItem {
	sources := make([]string, len(item.SourceTypes))
	for i, st := range item.SourceTypes {
		sources[i] = string(st)
	}
	return PublishedItem{
		ID:          item.ItemID,
		Title:       item.Title,
		Summary:     item.Summary,
		KeyPoints:   nonNil(item.KeyPoints),
		Topics:      nonNil(item.Topics),
		ArticleType: string(item.ArticleType),
		URLs:        nonNil(item.OriginalURLs),
		Sources:     sources,
		PublishedAt: item.PublishedAt.UTC().Format(time.RFC3339),
		ProcessedAt: item.ProcessedAt.UTC().Format(time.RFC3339),
	}
}

// Publisher builds payloads. It performs no I/O.
type Publisher struct {
	now    func() time.Time
	logger *slog.Logger
}

// NewPublisher creates a publisher. A nil logger uses slog.Default().
func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With("stage", "publish"),
	}
}

// Publish formats items and the run state into a payload.
func (p *Publisher) Publish(items []*core.EnrichedItem, state *State) *Payload {
	payload := &Payload{
		Meta: Meta{
			RunID:       state.RunID,
			RunDate:     state.RunDate.UTC().Format(time.RFC3339),
			GeneratedAt: p.now().UTC().Format(time.RFC3339),
			Version:     PayloadVersion,
		},
		Stats: Stats{
			TotalItems:              len(items),
			PersistedCount:          state.PersistedCount,
			CollectionErrors:        len(state.CollectionErrors),
			FailedItems:             state.FailedItems,
			TopicDistribution:       map[string]int{},
			SourceDistribution:      map[string]int{},
			ArticleTypeDistribution: map[string]int{},
		},
		ByTopic: map[string][]PublishedItem{},
		Items:   make([]PublishedItem, 0, len(items)),
		Errors:  make([]PublishedError, 0, len(state.CollectionErrors)),
	}

	for _, item := range items {
		for _, topic := range item.Topics {
			payload.Stats.TopicDistribution[topic]++
		}
		for _, st := range item.SourceTypes {
			payload.Stats.SourceDistribution[string(st)]++
		}
		payload.Stats.ArticleTypeDistribution[string(item.ArticleType)]++

		published := NewPublishedItem(item)
		payload.Items = append(payload.Items, published)
		topic := item.PrimaryTopic()
		payload.ByTopic[topic] = append(payload.ByTopic[topic], published)
	}

	for _, group := range payload.ByTopic {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].PublishedAt > group[j].PublishedAt
		})
	}

	for _, ce := range state.CollectionErrors {
		payload.Errors = append(payload.Errors, PublishedError{
			SourceType: string(ce.SourceType),
			SourceID:   ce.SourceID,
			Error:      ce.Message,
		})
	}

	p.logger.Info("payload created",
		"items", len(payload.Items),
		"topics", len(payload.ByTopic),
		"errors", len(payload.Errors))
	return payload
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
