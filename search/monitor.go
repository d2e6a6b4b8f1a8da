package search

import "github.com/poiesic/newsdigest/core"

// SearchMonitor provides hooks to observe the search process.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(matches []*core.SearchResult)
	VerbatimHit(item *core.EnrichedItem)
	Finish(results []*core.SearchResult)
}

type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.SearchResult) {}
func (n *noopMonitor) VerbatimHit(_ *core.EnrichedItem)           {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)              {}
