package llm

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrNotImplemented is returned by placeholder operations that need a real
// provider.
var ErrNotImplemented = errors.New("LLM not implemented")

var questionSentence = regexp.MustCompile(`[^.!?\n]+\?`)

// PlaceholderClient is a keyless stand-in for development. Question
// extraction falls back to scanning the text for question sentences; answer
// generation is not implemented, so callers land on their local fallbacks.
type PlaceholderClient struct{}

func (PlaceholderClient) ExtractQAPairs(ctx context.Context, documentText string) ([]QAPair, error) {
	return nil, ErrNotImplemented
}

func (PlaceholderClient) ExtractQuestions(ctx context.Context, documentText string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	for _, match := range questionSentence.FindAllString(documentText, -1) {
		if q := strings.TrimSpace(match); q != "" {
			out = append(out, q)
		}
	}
	return out, nil
}

func (PlaceholderClient) GenerateQAPairs(ctx context.Context, documentText string) ([]QAPair, error) {
	return nil, nil
}

func (PlaceholderClient) GenerateAnswers(ctx context.Context, questions []string, documentText string) (map[string]string, error) {
	return nil, ErrNotImplemented
}

func (PlaceholderClient) GenerateAnswer(ctx context.Context, question string, documentText string) (string, error) {
	return "", ErrNotImplemented
}

var _ Client = PlaceholderClient{}
