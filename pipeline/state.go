package pipeline

import (
	"time"

	"github.com/poiesic/newsdigest/core"
)

// State is the record threaded through one pipeline run.
// Each stage reads what earlier stages wrote and fills in its own fields.
type State struct {
	RunID        string
	RunDate      time.Time
	BackfillDays int

	// Set by collection.
	RawItems         []*core.RawItem
	CollectionErrors []core.CollectionError

	// Set by deduplication.
	DedupedItems []*core.RawItem

	// Set by enrichment.
	EnrichedItems []*core.EnrichedItem
	FailedItems   int

	// Set by persistence.
	PersistedCount int

	// Set by publication.
	Payload *Payload
}

// Counts summarizes the run counters recorded on the run record.
func (s *State) Counts() core.RunCounts {
	return core.RunCounts{
		Collected:        len(s.RawItems),
		Processed:        len(s.EnrichedItems),
		Persisted:        s.PersistedCount,
		CollectionErrors: len(s.CollectionErrors),
	}
}

// Cutoff is the earliest publication time collectors should return.
func (s *State) Cutoff() time.Time {
	return s.RunDate.AddDate(0, 0, -s.BackfillDays)
}

// Collected is the output of one collector.
type Collected struct {
	Items  []*core.RawItem
	Errors []core.CollectionError
}

// MergeCollected is the list-append combinator for collector outputs.
// Parts are concatenated in argument order; nothing is dropped or reordered.
func MergeCollected(parts ...Collected) Collected {
	var items, errs int
	for _, p := range parts {
		items += len(p.Items)
		errs += len(p.Errors)
	}
	out := Collected{
		Items:  make([]*core.RawItem, 0, items),
		Errors: make([]core.CollectionError, 0, errs),
	}
	for _, p := range parts {
		out.Items = append(out.Items, p.Items...)
		out.Errors = append(out.Errors, p.Errors...)
	}
	return out
}
