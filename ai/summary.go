package ai

import (
	"fmt"
	"strings"

	"github.com/poiesic/newsdigest/core"
)

// Summary is the structured output expected from a Generator.
type Summary struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	KeyPoints   []string `json:"key_points"`
	Topics      []string `json:"topics"`
	ArticleType string   `json:"article_type"`
}

// ValidateSummary checks s against the output schema. Every violation is
// reported as an error wrapping ErrValidation.
func ValidateSummary(s *Summary) error {
	if s == nil {
		return fmt.Errorf("%w: empty response", ErrValidation)
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(s.Summary) == "" {
		return fmt.Errorf("%w: summary is required", ErrValidation)
	}
	if n := len(s.KeyPoints); n < 3 || n > 5 {
		return fmt.Errorf("%w: expected 3-5 key points, got %d", ErrValidation, n)
	}
	if n := len(s.Topics); n < 1 || n > 3 {
		return fmt.Errorf("%w: expected 1-3 topics, got %d", ErrValidation, n)
	}
	for _, topic := range s.Topics {
		if !core.IsKnownTopic(topic) {
			return fmt.Errorf("%w: unknown topic %q", ErrValidation, topic)
		}
	}
	if !core.IsKnownArticleType(core.ArticleType(s.ArticleType)) {
		return fmt.Errorf("%w: unknown article type %q", ErrValidation, s.ArticleType)
	}
	return nil
}
