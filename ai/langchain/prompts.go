package langchain

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/newsdigest/ai"
	"github.com/poiesic/newsdigest/core"
)

const summaryResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "summary": {"type": "string"},
    "key_points": {
      "type": "array",
      "items": {"type": "string"},
      "minItems": 3,
      "maxItems": 5
    },
    "topics": {
      "type": "array",
      "items": {"type": "string", "enum": [%s]},
      "minItems": 1,
      "maxItems": 3
    },
    "article_type": {"type": "string", "enum": [%s]}
  },
  "required": ["title", "summary", "key_points", "topics", "article_type"],
  "additionalProperties": false
}`

const summaryPromptTemplate = `You are an AI news analyst helping ML practitioners stay informed.
Analyze the article you are given and return a structured summary as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Guidelines:
- Focus on practical implications for AI/ML practitioners.
- Highlight technical details, new capabilities, or industry impact.
- title: a concise, informative title. Use the original title if appropriate, or write one if it is missing.
- summary: 2-3 paragraphs covering the key information, findings, or announcements.
- key_points: exactly 3-5 distinct takeaways as separate strings in a JSON array.
- topics: 1-3 values taken only from this list: %s.
- article_type: "news" or "tutorial".
  - "news": announcements, industry updates, product launches, company news, events, research papers
  - "tutorial": how-to guides, step-by-step walkthroughs, educational content, code examples, best practices guides
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

const articleTemplate = `ARTICLE TITLE: %s
ARTICLE CONTENT:
%s

SOURCE: %s from %s
PUBLISHED: %s`

// buildSystemPrompt creates the system prompt with the vocabularies embedded.
func buildSystemPrompt() string {
	topics := quoteAll(core.Topics)
	types := make([]string, len(core.ArticleTypes))
	for i, at := range core.ArticleTypes {
		types[i] = string(at)
	}
	schema := fmt.Sprintf(summaryResponseSchema, strings.Join(topics, ", "), strings.Join(quoteAll(types), ", "))
	return fmt.Sprintf(summaryPromptTemplate, schema, strings.Join(core.Topics, ", "))
}

// buildArticlePrompt renders the human turn for a request.
func buildArticlePrompt(req ai.GenerationRequest) string {
	title := req.Title
	if title == "" {
		title = "No title"
	}
	published := "unknown"
	if !req.PublishedAt.IsZero() {
		published = req.PublishedAt.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf(articleTemplate, title, cleanContent(req.Content), req.SourceType, req.SourceID, published)
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = `"` + v + `"`
	}
	return out
}
