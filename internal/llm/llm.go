package llm

import (
	"context"
	"errors"
	"strings"
)

// QAPair is one question with its answer. Answer may be empty or the
// sentinel when the provider found the question but no in-document answer.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// NoAnswerSentinel is the reserved marker the provider returns for a
// question with no answer present in the source text.
const NoAnswerSentinel = "NO_ANSWER_FOUND"

// HasAnswer reports whether the pair carries a usable answer.
func (p QAPair) HasAnswer() bool {
	answer := strings.TrimSpace(p.Answer)
	return answer != "" && answer != NoAnswerSentinel
}

// Client abstracts the AI text engine. Each operation carries its own model
// choice and timeout tuned to task complexity.
type Client interface {
	// ExtractQAPairs requests questions and their in-document answers in one call.
	ExtractQAPairs(ctx context.Context, documentText string) ([]QAPair, error)
	// ExtractQuestions requests only the questions present in the text.
	ExtractQuestions(ctx context.Context, documentText string) ([]string, error)
	// GenerateQAPairs generates study questions and answers from content alone.
	GenerateQAPairs(ctx context.Context, documentText string) ([]QAPair, error)
	// GenerateAnswers answers the given questions in one batched call,
	// keyed by question text.
	GenerateAnswers(ctx context.Context, questions []string, documentText string) (map[string]string, error)
	// GenerateAnswer answers a single question.
	GenerateAnswer(ctx context.Context, question string, documentText string) (string, error)
}

// ErrMalformedResponse marks provider output that could not be decoded into
// the expected structure. It is never retried at the call site; callers fall
// through to their next extraction tier instead.
var ErrMalformedResponse = errors.New("llm response not parseable")
