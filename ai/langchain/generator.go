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


package langchain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/newsdigest/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator on top of any langchaingo chat model.
type Generator struct {
	client    llms.Model
	maxTokens int
	system    string
	logger    *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := newChatModel(config)
	if err != nil {
		return nil, err
	}
	return newGeneratorWithModel(client, config.MaxTokens), nil
}

// newGeneratorWithModel wraps an already constructed model.
func newGeneratorWithModel(client llms.Model, maxTokens int) *Generator {
	return &Generator{
		client:    client,
		maxTokens: maxTokens,
		system:    buildSystemPrompt(),
		logger:    slog.Default().With("component", "langchain-generator"),
	}
}

// newChatModel builds the langchaingo model for the configured backend.
func newChatModel(config *ai.Config) (llms.Model, error) {
	switch config.GenerationBackend {
	case ai.BackendAnthropic:
		opts := []anthropic.Option{
			anthropic.WithToken(config.GenerationAPIKey),
			anthropic.WithModel(config.GenerationModel),
		}
		if config.GenerationHost != "" {
			opts = append(opts, anthropic.WithBaseURL(config.GenerationHost))
		}
		return anthropic.New(opts...)
	case ai.BackendOpenAI:
		opts := []openai.Option{
			openai.WithToken(tokenOrNone(config.GenerationAPIKey)),
			openai.WithModel(config.GenerationModel),
		}
		if config.GenerationHost != "" {
			opts = append(opts, openai.WithBaseURL(config.GenerationHost))
		}
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownBackend, config.GenerationBackend)
	}
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate performs a single summarization call.
// Unparseable or out-of-schema output is returned wrapped in ai.ErrValidation
// and is left to the caller to retry.
func (g *Generator) Generate(ctx context.Context, req ai.GenerationRequest) (*ai.Summary, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(g.system),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildArticlePrompt(req)),
			},
		},
	}

	response, err := g.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.0),
		llms.WithMaxTokens(g.maxTokens),
		llms.WithJSONMode())
	if err != nil {
		g.logger.Error("failed to generate content", "source", req.SourceID, "err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		return nil, fmt.Errorf("%w: no choices returned from model", ai.ErrValidation)
	}

	responseText := repairJSON(stripCodeFences(response.Choices[0].Content))

	var summary ai.Summary
	if err := json.Unmarshal([]byte(responseText), &summary); err != nil {
		g.logger.Warn("error parsing generator response", "response", responseText, "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrValidation, err)
	}
	if err := ai.ValidateSummary(&summary); err != nil {
		return nil, err
	}

	g.logger.Debug("generated summary", "title", summary.Title, "topics", summary.Topics)
	return &summary, nil
}

// tokenOrNone uses "none" as token for local OpenAI-compatible services that
// don't require authentication.
func tokenOrNone(key string) string {
	if key == "" {
		return "none"
	}
	return key
}
