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


// Package search provides semantic search over stored digest items.
//
// A query is embedded with the same embedder used during enrichment and
// matched against item embeddings by cosine similarity. Items whose title,
// summary or key points contain every non-stop-word of the query get a
// small score boost, so exact keyword matches rank ahead of looser ones.
package search
