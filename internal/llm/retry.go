package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"docqa-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

type retryingClient struct {
	base Client
}

// WithRetry wraps a client with a single retry on transient provider
// failures (5xx, network timeouts). Malformed responses are never retried.
func WithRetry(base Client) Client {
	if base == nil {
		return nil
	}
	return retryingClient{base: base}
}

func (r retryingClient) ExtractQAPairs(ctx context.Context, text string) ([]QAPair, error) {
	return retry(ctx, "extract_qa_pairs", func() ([]QAPair, error) {
		return r.base.ExtractQAPairs(ctx, text)
	})
}

func (r retryingClient) ExtractQuestions(ctx context.Context, text string) ([]string, error) {
	return retry(ctx, "extract_questions", func() ([]string, error) {
		return r.base.ExtractQuestions(ctx, text)
	})
}

func (r retryingClient) GenerateQAPairs(ctx context.Context, text string) ([]QAPair, error) {
	return retry(ctx, "generate_qa_pairs", func() ([]QAPair, error) {
		return r.base.GenerateQAPairs(ctx, text)
	})
}

func (r retryingClient) GenerateAnswers(ctx context.Context, questions []string, text string) (map[string]string, error) {
	return retry(ctx, "generate_answers", func() (map[string]string, error) {
		return r.base.GenerateAnswers(ctx, questions, text)
	})
}

func (r retryingClient) GenerateAnswer(ctx context.Context, question, text string) (string, error) {
	return retry(ctx, "generate_answer", func() (string, error) {
		return r.base.GenerateAnswer(ctx, question, text)
	})
}

func retry[T any](ctx context.Context, op string, call func() (T, error)) (T, error) {
	resp, err := call()
	if err == nil || !ShouldRetry(err) {
		return resp, err
	}

	telemetry.Warn("llm.retry", map[string]any{
		"op":    op,
		"error": err.Error(),
	})
	select {
	case <-time.After(retryBaseDelay):
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	return call()
}

// ShouldRetry reports whether an error looks transient: server-side 5xx or a
// network timeout. Malformed output is structural and never retried.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
