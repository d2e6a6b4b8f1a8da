package langchain

import (
	"encoding/json"
	"testing"

	"github.com/poiesic/newsdigest/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "valid input untouched",
			in:   `{"title":"x","topics":["LLMs"]}`,
			want: `{"title":"x","topics":["LLMs"]}`,
		},
		{
			name: "missing opening quote",
			in:   `{"title":"x", summary":"y"}`,
			want: `{"title":"x", "summary":"y"}`,
		},
		{
			name: "bare keys",
			in:   `{title: "x", key_points: ["a", "b", "c"]}`,
			want: `{"title": "x", "key_points": ["a", "b", "c"]}`,
		},
		{
			name: "trailing commas in arrays and object",
			in:   "{\"topics\": [\"LLMs\", \"AI Agents\",], \"article_type\": \"news\",\n}",
			want: "{\"topics\": [\"LLMs\", \"AI Agents\"], \"article_type\": \"news\"\n}",
		},
		{
			name: "string contents left alone",
			in:   `{"summary": "a, b } c: d,]", "title": "x"}`,
			want: `{"summary": "a, b } c: d,]", "title": "x"}`,
		},
		{
			name: "escaped quotes inside strings",
			in:   `{"summary": "he said \"hi\", then left", title: "x"}`,
			want: `{"summary": "he said \"hi\", then left", "title": "x"}`,
		},
		{
			name: "bare words in arrays are not keys",
			in:   `{"topics": [LLMs, AI]}`,
			want: `{"topics": [LLMs, AI]}`,
		},
		{
			name: "surrounding prose dropped",
			in:   "Here is the summary:\n{\"title\": \"x\"}\nLet me know!",
			want: `{"title": "x"}`,
		},
		{
			name: "no object at all",
			in:   "I cannot summarize this.",
			want: "I cannot summarize this.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}

func TestRepairJSON_MalformedSummaryDecodes(t *testing.T) {
	raw := `Sure! Here's the JSON:
{
  title: "Open weights model tops coding benchmark",
  summary": "A new open model, \"Coder-7\", beats larger rivals.",
  key_points: [
    "Released under Apache-2.0",
    "Beats rivals on HumanEval",
    "Runs on a single GPU",
  ],
  "topics": ["LLMs", "Open Source",],
  article_type: "news",
}`

	var summary ai.Summary
	require.NoError(t, json.Unmarshal([]byte(repairJSON(stripCodeFences(raw))), &summary))

	assert.Equal(t, "Open weights model tops coding benchmark", summary.Title)
	assert.Equal(t, `A new open model, "Coder-7", beats larger rivals.`, summary.Summary)
	assert.Len(t, summary.KeyPoints, 3)
	assert.Equal(t, []string{"LLMs", "Open Source"}, summary.Topics)
	assert.Equal(t, "news", summary.ArticleType)
}
