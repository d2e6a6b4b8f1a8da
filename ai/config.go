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


package ai

import (
	"errors"
	"strings"
)

// Generation backends understood by the langchain provider.
const (
	BackendAnthropic = "anthropic"
	BackendOpenAI    = "openai"
)

// Config holds configuration for AI service providers.
type Config struct {
	// GenerationBackend selects the chat model family: "anthropic" or "openai".
	GenerationBackend string

	// GenerationHost overrides the base URL of the generation API.
	// For the openai backend this may point at any OpenAI-compatible server.
	GenerationHost string

	// GenerationModel is the model identifier used for summarization.
	// Example: "claude-sonnet-4-20250514", "gpt-4o-mini"
	GenerationModel string

	// GenerationAPIKey authenticates against the generation service.
	GenerationAPIKey string

	// MaxTokens caps the length of each generated summary.
	// Default: 1024
	MaxTokens int

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-3-small", "embeddinggemma"
	EmbeddingModel string

	// EmbeddingAPIKey authenticates against the embedding service.
	// Empty means a local server that ignores authentication.
	EmbeddingAPIKey string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithGenerationBackend sets the generation backend.
func WithGenerationBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.GenerationBackend = backend
	}
}

// WithGenerationHost sets the generation service host URL.
func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

// WithGenerationModel sets the generation model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithGenerationAPIKey sets the generation API key.
func WithGenerationAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.GenerationAPIKey = key
	}
}

// WithMaxTokens sets the generation token cap.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithEmbeddingAPIKey sets the embedding API key.
func WithEmbeddingAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingAPIKey = key
	}
}

// DefaultConfig returns a Config that summarizes with Claude and embeds with
// OpenAI's hosted embedding model. API keys are left empty.
func DefaultConfig() *Config {
	return &Config{
		GenerationBackend: BackendAnthropic,
		GenerationModel:   "claude-sonnet-4-20250514",
		MaxTokens:         1024,
		EmbeddingHost:     "https://api.openai.com/v1",
		EmbeddingModel:    "text-embedding-3-small",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithGenerationAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
//       WithEmbeddingAPIKey(os.Getenv("OPENAI_API_KEY")),
//   )
//
// Example with a local OpenAI-compatible server for both services:
//   cfg := NewConfig(
//       WithGenerationBackend(BackendOpenAI),
//       WithGenerationHost("http://localhost:11434"),
//       WithGenerationModel("qwen2.5:7b"),
//       WithEmbeddingHost("http://localhost:11434"),
//       WithEmbeddingModel("embeddinggemma"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// OpenAI-compatible hosts get a /v1 suffix if missing. The Anthropic host is
// left untouched since its client appends its own path.
func (c *Config) Normalize() {
	c.GenerationBackend = strings.ToLower(strings.TrimSpace(c.GenerationBackend))
	c.EmbeddingHost = withV1Suffix(c.EmbeddingHost)
	if c.GenerationBackend == BackendOpenAI {
		c.GenerationHost = withV1Suffix(c.GenerationHost)
	}
}

func withV1Suffix(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.GenerationBackend {
	case BackendAnthropic:
		if c.GenerationAPIKey == "" {
			return errors.New("ai config: GenerationAPIKey is required for the anthropic backend")
		}
	case BackendOpenAI:
		if c.GenerationHost == "" && c.GenerationAPIKey == "" {
			return errors.New("ai config: GenerationHost or GenerationAPIKey is required for the openai backend")
		}
	default:
		return errors.New("ai config: GenerationBackend must be anthropic or openai")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	return nil
}
