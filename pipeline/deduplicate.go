package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"unicode/utf8"

	"github.com/poiesic/newsdigest/core"
)

// Deduplicator collapses raw items that share an ItemID.
type Deduplicator struct {
	logger *slog.Logger
}

// NewDeduplicator creates a deduplicator. A nil logger uses slog.Default().
func NewDeduplicator(logger *slog.Logger) *Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{logger: logger}
}

// Deduplicate groups items by ItemID and merges each group into one item.
//
// The member with the longest content is the base (first seen wins ties).
// The merged item takes the earliest publication time in the group and the
// first non-empty URL. Groups of more than one item gain provenance metadata
// under the core.Meta* keys. Output is sorted newest first; items with equal
// timestamps keep their first-seen order.
func (d *Deduplicator) Deduplicate(items []*core.RawItem) []*core.RawItem {
	if len(items) == 0 {
		return []*core.RawItem{}
	}

	groups := make(map[string][]*core.RawItem, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		if _, seen := groups[item.ItemID]; !seen {
			order = append(order, item.ItemID)
		}
		groups[item.ItemID] = append(groups[item.ItemID], item)
	}

	out := make([]*core.RawItem, 0, len(order))
	for _, id := range order {
		group := groups[id]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		out = append(out, mergeGroup(group))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	d.logger.Info("deduplicated items", "input", len(items), "output", len(out))
	return out
}

// FindSemanticDuplicates is reserved for embedding-based near-duplicate
// detection across differently identified items.
func (d *Deduplicator) FindSemanticDuplicates(ctx context.Context, items []*core.RawItem, threshold float32) ([][]*core.RawItem, error) {
	return nil, ErrSemanticDedupNotImplemented
}

func mergeGroup(group []*core.RawItem) *core.RawItem {
	base := group[0]
	for _, item := range group[1:] {
		if utf8.RuneCountInString(item.Content) > utf8.RuneCountInString(base.Content) {
			base = item
		}
	}

	earliest := group[0].PublishedAt
	url := ""
	var (
		sources   = newOrderedSet()
		ids       = newOrderedSet()
		urls      = newOrderedSet()
		perSource = make(map[string]any, len(group))
	)
	for _, item := range group {
		if item.PublishedAt.Before(earliest) {
			earliest = item.PublishedAt
		}
		if url == "" && item.URL != "" {
			url = item.URL
		}
		sources.add(string(item.SourceType))
		ids.add(item.SourceID)
		if item.URL != "" {
			urls.add(item.URL)
		}
		key := item.ProvenanceKey()
		if _, ok := perSource[key]; !ok {
			perSource[key] = map[string]any(item.RawMetadata.Clone())
		}
	}

	meta := base.RawMetadata.Clone()
	meta[core.MetaMergedFromSources] = sources.values()
	meta[core.MetaMergedFromIDs] = ids.values()
	meta[core.MetaAllURLs] = urls.values()
	meta[core.MetaSourceMetadata] = perSource

	return &core.RawItem{
		SourceType:  base.SourceType,
		SourceID:    base.SourceID,
		ItemID:      base.ItemID,
		Title:       base.Title,
		Content:     base.Content,
		Author:      base.Author,
		PublishedAt: earliest,
		URL:         url,
		RawMetadata: meta,
	}
}

// orderedSet keeps insertion order and drops repeats.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) values() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}
