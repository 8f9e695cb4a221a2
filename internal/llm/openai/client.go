package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docqa-backend/internal/llm"
	"docqa-backend/internal/shared/telemetry"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// operation selects the model and timeout for one call type. Extraction is
// cheap and fast; generation and batch answering get the stronger model and
// a larger budget.
type operation struct {
	name    string
	model   string
	timeout time.Duration
}

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey        string
	extractModel  string
	generateModel string
	apiURL        string
	httpClient    *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, extractModel, generateModel string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(extractModel) == "" || strings.TrimSpace(generateModel) == "" {
		return nil, fmt.Errorf("extract and generate models are required")
	}
	return &Client{
		apiKey:        apiKey,
		extractModel:  extractModel,
		generateModel: generateModel,
		apiURL:        defaultAPIURL,
		httpClient:    &http.Client{},
	}, nil
}

// NewClientWithURL constructs a client against a custom endpoint, used by tests.
func NewClientWithURL(apiKey, extractModel, generateModel, apiURL string) (*Client, error) {
	c, err := NewClient(apiKey, extractModel, generateModel)
	if err != nil {
		return nil, err
	}
	c.apiURL = apiURL
	return c, nil
}

func (c *Client) extractOp(name string, timeout time.Duration) operation {
	return operation{name: name, model: c.extractModel, timeout: timeout}
}

func (c *Client) generateOp(name string, timeout time.Duration) operation {
	return operation{name: name, model: c.generateModel, timeout: timeout}
}

// ExtractQAPairs requests questions with their in-document answers.
func (c *Client) ExtractQAPairs(ctx context.Context, documentText string) ([]llm.QAPair, error) {
	var out struct {
		Pairs []llm.QAPair `json:"pairs"`
	}
	op := c.extractOp("extract_qa_pairs", 60*time.Second)
	if err := c.complete(ctx, op, llm.BuildExtractQAPrompt(documentText), &out); err != nil {
		return nil, err
	}
	return out.Pairs, nil
}

// ExtractQuestions requests only the questions present in the text.
func (c *Client) ExtractQuestions(ctx context.Context, documentText string) ([]string, error) {
	var out struct {
		Questions []string `json:"questions"`
	}
	op := c.extractOp("extract_questions", 45*time.Second)
	if err := c.complete(ctx, op, llm.BuildExtractQuestionsPrompt(documentText), &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// GenerateQAPairs generates study questions and answers from content alone.
func (c *Client) GenerateQAPairs(ctx context.Context, documentText string) ([]llm.QAPair, error) {
	var out struct {
		Pairs []llm.QAPair `json:"pairs"`
	}
	op := c.generateOp("generate_qa_pairs", 90*time.Second)
	if err := c.complete(ctx, op, llm.BuildGenerateQAPrompt(documentText), &out); err != nil {
		return nil, err
	}
	return out.Pairs, nil
}

// GenerateAnswers answers the given questions in one batched call.
func (c *Client) GenerateAnswers(ctx context.Context, questions []string, documentText string) (map[string]string, error) {
	var out struct {
		Answers []llm.QAPair `json:"answers"`
	}
	op := c.generateOp("generate_answers", 90*time.Second)
	if err := c.complete(ctx, op, llm.BuildGenerateAnswersPrompt(questions, documentText), &out); err != nil {
		return nil, err
	}
	answers := make(map[string]string, len(out.Answers))
	for _, pair := range out.Answers {
		answers[pair.Question] = pair.Answer
	}
	return answers, nil
}

// GenerateAnswer answers a single question.
func (c *Client) GenerateAnswer(ctx context.Context, question, documentText string) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	op := c.generateOp("generate_answer", 30*time.Second)
	if err := c.complete(ctx, op, llm.BuildGenerateAnswerPrompt(question, documentText), &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []llm.Message  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// complete performs one chat call and decodes the JSON content into out.
func (c *Client) complete(ctx context.Context, op operation, messages []llm.Message, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, op.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model:          op.model,
		Messages:       messages,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return fmt.Errorf("openai encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("openai build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("openai request timeout op=%s after %s: %w", op.name, op.timeout, context.DeadlineExceeded)
		}
		return fmt.Errorf("openai request op=%s: %w", op.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("openai read response op=%s: %w", op.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai op=%s http status %d: %s", op.name, resp.StatusCode, truncate(string(body), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("openai op=%s: %w: %v", op.name, llm.ErrMalformedResponse, err)
	}
	if parsed.Error != nil {
		return fmt.Errorf("openai op=%s api error %s: %s", op.name, parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return fmt.Errorf("openai op=%s: %w: no choices", op.name, llm.ErrMalformedResponse)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("openai op=%s: %w: %v", op.name, llm.ErrMalformedResponse, err)
	}

	fields := map[string]any{
		"op":          op.name,
		"model":       op.model,
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
	}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.usage", fields)

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ llm.Client = (*Client)(nil)
