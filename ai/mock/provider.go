// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import "github.com/poiesic/newsdigest/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock generator and embedder instances.
type MockProvider struct {
	generator *MockGenerator
	embedder  *MockEmbedder
	closed    bool
}

// NewMockProvider creates a new mock provider with default mock services.
// Use GetMockGenerator()/GetMockEmbedder() to access concrete types for test assertions.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		generator: NewMockGenerator(),
		embedder:  NewMockEmbedder(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
func NewMockProviderWithServices(generator *MockGenerator, embedder *MockEmbedder) *MockProvider {
	return &MockProvider{
		generator: generator,
		embedder:  embedder,
	}
}

// Generator returns the mock generator.
func (p *MockProvider) Generator() ai.Generator {
	return p.generator
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockGenerator returns the underlying mock generator for test assertions.
func (p *MockProvider) GetMockGenerator() *MockGenerator {
	return p.generator
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

var _ ai.AIProvider = (*MockProvider)(nil)
