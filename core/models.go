package core

import (
	"encoding/hex"
	"time"
	"unicode/utf8"

	"github.com/go-crypt/x/blake2b"
)

// identityContentPrefix is how much content contributes to the identity
// key of items that have no URL.
const identityContentPrefix = 500

// ItemID derives the deterministic identity key for a collected item.
// Items with a URL are identified by the URL alone; otherwise the title and
// the first 500 characters of content are hashed together.
func ItemID(url, title, content string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 32 hex chars
	if url != "" {
		h.Write([]byte(url))
	} else {
		h.Write([]byte(title))
		h.Write([]byte(Truncate(content, identityContentPrefix)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Truncate returns the first n characters of s. It never splits a rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// SourceType identifies the kind of upstream a raw item was collected from.
type SourceType string

const (
	// SourceTypeFeed is an RSS or Atom syndication feed.
	SourceTypeFeed SourceType = "feed"
	// SourceTypeMailbox is a newsletter mailbox.
	SourceTypeMailbox SourceType = "mailbox"
)

// Provenance keys written by deduplication on merged items.
const (
	MetaMergedFromSources = "merged_from_sources"
	MetaMergedFromIDs     = "merged_from_ids"
	MetaAllURLs           = "all_urls"
	MetaSourceMetadata    = "source_metadata"
)

// Metadata is an open key-value container carried alongside each item.
type Metadata map[string]any

// Clone returns a shallow copy of m. A nil map clones to an empty one.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// String returns the value stored under key if it is a string.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Strings returns the value stored under key as a string slice.
// Both []string and []any holding strings are accepted so values survive a
// round trip through generic decoders.
func (m Metadata) Strings(key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// RawItem is an item as delivered by a collector, before deduplication.
type RawItem struct {
	SourceType  SourceType
	SourceID    string // feed name, sender address, ...
	ItemID      string // deterministic, see ItemID
	Title       string // optional
	Content     string
	Author      string // optional
	PublishedAt time.Time
	URL         string // optional
	RawMetadata Metadata
}

// ProvenanceKey returns the "sourceType:sourceId" key used for per-source
// metadata of merged items.
func (r *RawItem) ProvenanceKey() string {
	return string(r.SourceType) + ":" + r.SourceID
}

// ArticleType is the categorical classification assigned during enrichment.
type ArticleType string

const (
	ArticleTypeNews     ArticleType = "news"
	ArticleTypeTutorial ArticleType = "tutorial"
)

// ArticleTypes is the closed set of classifications.
var ArticleTypes = []ArticleType{ArticleTypeNews, ArticleTypeTutorial}

// Topics is the closed topic vocabulary used for enrichment.
var Topics = []string{
	"LLMs",
	"AI Agents",
	"AI Safety",
	"MLOps",
	"Computer Vision",
	"NLP",
	"Open Source",
	"Products",
	"Research",
	"Industry",
}

// UncategorizedTopic groups published items that carry no topic.
const UncategorizedTopic = "Uncategorized"

// EnrichedItem is a deduplicated item after summarization and classification.
type EnrichedItem struct {
	ItemID       string
	Title        string
	Summary      string
	KeyPoints    []string
	Topics       []string
	ArticleType  ArticleType
	OriginalURLs []string
	SourceTypes  []SourceType
	PublishedAt  time.Time
	ProcessedAt  time.Time
	Embedding    []float32 // optional
	CreatedAt    time.Time // set on first insert, never changed
	UpdatedAt    time.Time
}

// PrimaryTopic returns the first topic, or UncategorizedTopic.
func (e *EnrichedItem) PrimaryTopic() string {
	if len(e.Topics) == 0 {
		return UncategorizedTopic
	}
	return e.Topics[0]
}

// EmbeddingText is the text an item's embedding is computed from.
func (e *EnrichedItem) EmbeddingText() string {
	return e.Title + "\n\n" + e.Summary
}

// CollectionError records a single source that could not be collected.
// It never aborts a run.
type CollectionError struct {
	SourceType SourceType
	SourceID   string
	ErrorKind  string
	Message    string
	Timestamp  time.Time
}

// RunStatus is the lifecycle state of a PipelineRun.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunCounts holds the per-stage counters recorded on a run.
type RunCounts struct {
	Collected        int
	Processed        int
	Persisted        int
	CollectionErrors int
}

// PipelineRun is the persisted audit record of one pipeline execution.
type PipelineRun struct {
	RunID        string
	RunDate      time.Time
	StartedAt    time.Time
	CompletedAt  time.Time // zero while running
	Counts       RunCounts
	Status       RunStatus
	ErrorMessage string
}

// SearchResult is a stored item matched by vector similarity.
type SearchResult struct {
	Item  *EnrichedItem
	Score float32
}
