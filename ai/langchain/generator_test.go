package langchain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/newsdigest/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel is a scripted llms.Model.
type fakeModel struct {
	response string
	err      error
	noChoice bool
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	if f.noChoice {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

const validResponse = `{
  "title": "New model",
  "summary": "A lab released a model.",
  "key_points": ["fast", "cheap", "open"],
  "topics": ["LLMs", "Open Source"],
  "article_type": "news"
}`

func testRequest() ai.GenerationRequest {
	return ai.GenerationRequest{
		Title:       "Original title",
		Content:     "Body text",
		SourceType:  "feed",
		SourceID:    "https://example.com/feed",
		PublishedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestGenerate_Success(t *testing.T) {
	model := &fakeModel{response: validResponse}
	gen := newGeneratorWithModel(model, 1024)

	summary, err := gen.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "New model", summary.Title)
	assert.Equal(t, []string{"fast", "cheap", "open"}, summary.KeyPoints)
	assert.Equal(t, "news", summary.ArticleType)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	human, ok := model.messages[1].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, human.Text, "ARTICLE TITLE: Original title")
	assert.Contains(t, human.Text, "PUBLISHED: 2025-01-02T03:04:05Z")
}

func TestGenerate_StripsCodeFences(t *testing.T) {
	model := &fakeModel{response: "```json\n" + validResponse + "\n```"}

	summary, err := newGeneratorWithModel(model, 1024).Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "New model", summary.Title)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{name: "not json", model: &fakeModel{response: "I cannot help with that"}},
		{name: "no choices", model: &fakeModel{noChoice: true}},
		{name: "too few key points", model: &fakeModel{response: `{"title":"t","summary":"s","key_points":["a"],"topics":["LLMs"],"article_type":"news"}`}},
		{name: "unknown topic", model: &fakeModel{response: `{"title":"t","summary":"s","key_points":["a","b","c"],"topics":["Sports"],"article_type":"news"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newGeneratorWithModel(tt.model, 1024).Generate(context.Background(), testRequest())
			assert.ErrorIs(t, err, ai.ErrValidation)
		})
	}
}

func TestGenerate_TransportErrorIsNotValidation(t *testing.T) {
	boom := errors.New("connection refused")
	model := &fakeModel{err: boom}

	_, err := newGeneratorWithModel(model, 1024).Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ai.ErrValidation)
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := buildSystemPrompt()
	assert.Contains(t, prompt, `"AI Safety"`)
	assert.Contains(t, prompt, `"tutorial"`)
	assert.Contains(t, prompt, "key_points")
}

func TestBuildArticlePrompt_MissingTitle(t *testing.T) {
	req := testRequest()
	req.Title = ""
	req.PublishedAt = time.Time{}

	prompt := buildArticlePrompt(req)
	assert.Contains(t, prompt, "ARTICLE TITLE: No title")
	assert.Contains(t, prompt, "PUBLISHED: unknown")
}

func TestNewChatModel_UnknownBackend(t *testing.T) {
	_, err := newChatModel(&ai.Config{GenerationBackend: "bard"})
	assert.ErrorIs(t, err, ai.ErrUnknownBackend)
}
