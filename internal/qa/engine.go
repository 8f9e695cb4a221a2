package qa

import (
	"context"
	"fmt"
	"strings"

	"docqa-backend/internal/llm"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/telemetry"
	"docqa-backend/internal/shared/util"
)

// NoAnswerFallback is the literal placeholder recorded when every answer
// source failed for a question.
const NoAnswerFallback = "No answer available."

// Engine extracts question/answer pairs from document text, memoizing
// finalized results by content hash and falling back through cheaper and
// more expensive strategies as earlier ones come up empty or error.
type Engine struct {
	llm   llm.Client
	cache *ResultCache
}

// NewEngine constructs an Engine over an AI client and an injected cache.
func NewEngine(client llm.Client, cache *ResultCache) *Engine {
	if cache == nil {
		cache = NewResultCache()
	}
	return &Engine{llm: client, cache: cache}
}

// ExtractQuestionsAndAnswers returns the QA pairs for documentText, serving
// repeat requests for identical content from the cache without any AI call.
func (e *Engine) ExtractQuestionsAndAnswers(ctx context.Context, documentText string) ([]llm.QAPair, error) {
	hash := util.ContentHash(documentText)
	if pairs, ok := e.cache.Get(hash); ok {
		metrics.IncQACacheHit()
		return pairs, nil
	}
	metrics.IncQACacheMiss()
	return e.cache.Do(hash, func() ([]llm.QAPair, error) {
		return e.extract(ctx, documentText)
	})
}

func (e *Engine) extract(ctx context.Context, documentText string) ([]llm.QAPair, error) {
	pairs, err := e.llm.ExtractQAPairs(ctx, documentText)
	if err != nil {
		telemetry.Warn("qa.combined_failed", map[string]any{"error": err.Error()})
		return e.extractTraditional(ctx, documentText)
	}

	if len(pairs) == 0 {
		generated, err := e.llm.GenerateQAPairs(ctx, documentText)
		if err != nil {
			return nil, fmt.Errorf("generate qa pairs: %w", err)
		}
		return generated, nil
	}

	unanswered := unansweredQuestions(pairs)
	if len(unanswered) == 0 {
		return pairs, nil
	}

	resolved := e.resolveAnswers(ctx, unanswered, documentText)
	mergeAnswers(pairs, resolved)
	return pairs, nil
}

// extractTraditional runs the questions-only call, answers locally where the
// document contains the answer, and resolves the rest via AI.
func (e *Engine) extractTraditional(ctx context.Context, documentText string) ([]llm.QAPair, error) {
	questions, err := e.llm.ExtractQuestions(ctx, documentText)
	if err != nil {
		return nil, fmt.Errorf("extract questions: %w", err)
	}

	if len(questions) == 0 {
		generated, err := e.llm.GenerateQAPairs(ctx, documentText)
		if err != nil {
			return nil, fmt.Errorf("generate qa pairs: %w", err)
		}
		return generated, nil
	}

	pairs := make([]llm.QAPair, len(questions))
	var unanswered []string
	for i, question := range questions {
		pairs[i].Question = question
		if answer, ok := LocateAnswer(question, documentText); ok {
			pairs[i].Answer = answer
		} else {
			unanswered = append(unanswered, question)
		}
	}

	if len(unanswered) > 0 {
		resolved := e.resolveAnswers(ctx, unanswered, documentText)
		mergeAnswers(pairs, resolved)
	}
	return pairs, nil
}

// resolveAnswers tries one batched call for all questions, then falls back
// to per-question generation. A question whose every source failed maps to
// the placeholder; resolution never fails as a whole.
func (e *Engine) resolveAnswers(ctx context.Context, questions []string, documentText string) map[string]string {
	answers, err := e.llm.GenerateAnswers(ctx, questions, documentText)
	if err == nil {
		return answers
	}
	telemetry.Warn("qa.batch_answers_failed", map[string]any{
		"error":     err.Error(),
		"questions": len(questions),
	})

	out := make(map[string]string, len(questions))
	for _, question := range questions {
		answer, err := e.llm.GenerateAnswer(ctx, question, documentText)
		if err != nil || strings.TrimSpace(answer) == "" {
			if err != nil {
				telemetry.Warn("qa.single_answer_failed", map[string]any{"error": err.Error()})
			}
			answer = NoAnswerFallback
		}
		out[question] = answer
	}
	return out
}

func unansweredQuestions(pairs []llm.QAPair) []string {
	var out []string
	for _, pair := range pairs {
		if !pair.HasAnswer() {
			out = append(out, pair.Question)
		}
	}
	return out
}

// mergeAnswers fills unanswered pairs from the resolved map, keyed by
// question text. Duplicate question strings collapse to one answer.
func mergeAnswers(pairs []llm.QAPair, resolved map[string]string) {
	for i := range pairs {
		if pairs[i].HasAnswer() {
			continue
		}
		answer, ok := resolved[pairs[i].Question]
		if !ok {
			continue
		}
		trimmed := strings.TrimSpace(answer)
		if trimmed == "" || trimmed == llm.NoAnswerSentinel {
			pairs[i].Answer = ""
			continue
		}
		pairs[i].Answer = trimmed
	}
}
