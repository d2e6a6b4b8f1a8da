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


// Package ai provides abstractions for the AI services used by newsdigest.
//
// Two services are involved in enrichment:
//
//   - Generator: turns an article into a structured Summary
//   - Embedder: generates vector embeddings from text
//
// AIProvider aggregates both for convenient initialization.
//
// # Validation Errors
//
// A Generator reports output that does not satisfy the Summary schema
// (wrong number of key points, topics outside the vocabulary, unparseable
// JSON) as an error wrapping ErrValidation. Callers retry those errors and
// treat everything else as a hard failure of the call:
//
//	summary, err := gen.Generate(ctx, req)
//	if errors.Is(err, ai.ErrValidation) {
//	    // retry
//	}
//
// # Implementation Packages
//
//   - ai/langchain: Production implementation using langchaingo (Anthropic or
//     OpenAI-compatible chat models, OpenAI-compatible embeddings)
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/langchain return interface types. Mock
// constructors return concrete types so tests can inject behavior and
// inspect call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(
//	    ai.WithGenerationAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
//	    ai.WithEmbeddingAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
//	provider, err := langchain.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	summary, err := provider.Generator().Generate(ctx, ai.GenerationRequest{
//	    Title:   "New model released",
//	    Content: body,
//	})
package ai
