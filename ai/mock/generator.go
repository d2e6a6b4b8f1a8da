package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/newsdigest/ai"
)

// MockGenerator is a test double for ai.Generator.
// It is safe for concurrent use.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, returns a schema-valid summary derived from the request.
	GenerateFunc func(ctx context.Context, req ai.GenerationRequest) (*ai.Summary, error)

	mu        sync.Mutex
	callCount int
	requests  []ai.GenerationRequest
	active    int
	maxActive int
}

// NewMockGenerator creates a mock generator with default behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records the request and returns the injected or default result.
func (m *MockGenerator) Generate(ctx context.Context, req ai.GenerationRequest) (*ai.Summary, error) {
	m.mu.Lock()
	m.callCount++
	m.requests = append(m.requests, req)
	m.active++
	if m.active > m.maxActive {
		m.maxActive = m.active
	}
	fn := m.GenerateFunc
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	if fn != nil {
		return fn(ctx, req)
	}
	return DefaultSummary(req), nil
}

// DefaultSummary builds a summary that always passes ai.ValidateSummary.
func DefaultSummary(req ai.GenerationRequest) *ai.Summary {
	title := req.Title
	if title == "" {
		title = "Untitled"
	}
	summary := req.Content
	if fields := strings.Fields(summary); len(fields) > 20 {
		summary = strings.Join(fields[:20], " ")
	}
	if summary == "" {
		summary = title
	}
	return &ai.Summary{
		Title:       title,
		Summary:     summary,
		KeyPoints:   []string{"first point", "second point", "third point"},
		Topics:      []string{"LLMs"},
		ArticleType: "news",
	}
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests returns a copy of every request received.
func (m *MockGenerator) Requests() []ai.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.GenerationRequest(nil), m.requests...)
}

// MaxConcurrent returns the highest number of overlapping Generate calls observed.
func (m *MockGenerator) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxActive
}

// Reset clears recorded calls and injected behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.requests = nil
	m.maxActive = 0
	m.GenerateFunc = nil
}
