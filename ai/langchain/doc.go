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


// Package langchain provides AI service implementations using langchaingo.
//
// Summaries are generated with either Anthropic's Claude models or any
// OpenAI-compatible chat server (OpenAI, Ollama, vLLM, ...). Embeddings
// always go through an OpenAI-compatible embeddings endpoint.
//
// # Usage
//
//	cfg := ai.NewConfig(
//	    ai.WithGenerationAPIKey(anthropicKey),
//	    ai.WithEmbeddingAPIKey(openaiKey),
//	)
//
//	provider, err := langchain.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	summary, err := provider.Generator().Generate(ctx, req)
//	vector, err := provider.Embedder().EmbedText(ctx, summary.Title+"\n\n"+summary.Summary)
//
// Models sometimes wrap JSON in markdown fences or drop the opening quote of
// a key. Both are repaired before decoding; anything still unparseable is
// reported as ai.ErrValidation.
package langchain
