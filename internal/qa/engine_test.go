package qa

import (
	"context"
	"errors"
	"sync"
	"testing"

	"docqa-backend/internal/llm"
)

// scriptedClient counts calls per operation and returns whatever the test
// wired in.
type scriptedClient struct {
	mu sync.Mutex

	extractPairs    []llm.QAPair
	extractPairsErr error
	questions       []string
	questionsErr    error
	generatedPairs  []llm.QAPair
	generateErr     error
	batchAnswers    map[string]string
	batchErr        error
	singleAnswer    string
	singleErr       error

	extractPairsCalls int
	questionsCalls    int
	generateCalls     int
	batchCalls        int
	singleCalls       int
}

func (c *scriptedClient) ExtractQAPairs(ctx context.Context, text string) ([]llm.QAPair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extractPairsCalls++
	return append([]llm.QAPair(nil), c.extractPairs...), c.extractPairsErr
}

func (c *scriptedClient) ExtractQuestions(ctx context.Context, text string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.questionsCalls++
	return append([]string(nil), c.questions...), c.questionsErr
}

func (c *scriptedClient) GenerateQAPairs(ctx context.Context, text string) ([]llm.QAPair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generateCalls++
	return append([]llm.QAPair(nil), c.generatedPairs...), c.generateErr
}

func (c *scriptedClient) GenerateAnswers(ctx context.Context, questions []string, text string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchCalls++
	return c.batchAnswers, c.batchErr
}

func (c *scriptedClient) GenerateAnswer(ctx context.Context, question string, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.singleCalls++
	return c.singleAnswer, c.singleErr
}

func (c *scriptedClient) calls() (int, int, int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.extractPairsCalls, c.questionsCalls, c.generateCalls, c.batchCalls, c.singleCalls
}

func TestEngineCombinedCallAnswersEverything(t *testing.T) {
	client := &scriptedClient{
		extractPairs: []llm.QAPair{
			{Question: "What is the deadline?", Answer: "June 30."},
			{Question: "Who approves it?", Answer: "The registrar."},
		},
	}
	engine := NewEngine(client, NewResultCache())

	pairs, err := engine.ExtractQuestionsAndAnswers(context.Background(), "doc text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if _, _, _, batch, single := client.calls(); batch != 0 || single != 0 {
		t.Fatalf("fully answered pairs should need no answer calls, got batch=%d single=%d", batch, single)
	}
}

func TestEngineMemoizesByContent(t *testing.T) {
	client := &scriptedClient{
		extractPairs: []llm.QAPair{{Question: "Q?", Answer: "A."}},
	}
	engine := NewEngine(client, NewResultCache())

	first, err := engine.ExtractQuestionsAndAnswers(context.Background(), "same content")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := engine.ExtractQuestionsAndAnswers(context.Background(), "same content")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(first) != 1 || len(second) != 1 || second[0].Answer != "A." {
		t.Fatalf("unexpected pairs: first=%v second=%v", first, second)
	}
	if calls, _, _, _, _ := client.calls(); calls != 1 {
		t.Fatalf("expected a single provider call across repeats, got %d", calls)
	}
}

func TestEngineBatchesUnansweredQuestions(t *testing.T) {
	client := &scriptedClient{
		extractPairs: []llm.QAPair{
			{Question: "Answered?", Answer: "Yes."},
			{Question: "Missing?", Answer: llm.NoAnswerSentinel},
			{Question: "Blank?", Answer: "  "},
		},
		batchAnswers: map[string]string{
			"Missing?": "Resolved by batch.",
			"Blank?":   llm.NoAnswerSentinel,
		},
	}
	engine := NewEngine(client, NewResultCache())

	pairs, err := engine.ExtractQuestionsAndAnswers(context.Background(), "doc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pairs[0].Answer != "Yes." {
		t.Fatalf("answered pair must not be touched, got %q", pairs[0].Answer)
	}
	if pairs[1].Answer != "Resolved by batch." {
		t.Fatalf("expected batch answer, got %q", pairs[1].Answer)
	}
	if pairs[2].Answer != "" {
		t.Fatalf("sentinel batch answer should leave pair unanswered, got %q", pairs[2].Answer)
	}
	if _, _, _, batch, single := client.calls(); batch != 1 || single != 0 {
		t.Fatalf("expected one batch call and no singles, got batch=%d single=%d", batch, single)
	}
}

func TestEngineGeneratesWhenNoQuestionsFound(t *testing.T) {
	client := &scriptedClient{
		generatedPairs: []llm.QAPair{{Question: "Generated?", Answer: "Yes."}},
	}
	engine := NewEngine(client, NewResultCache())

	pairs, err := engine.ExtractQuestionsAndAnswers(context.Background(), "narrative text with no questions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Question != "Generated?" {
		t.Fatalf("expected generated pairs, got %v", pairs)
	}
	if _, _, generate, _, _ := client.calls(); generate != 1 {
		t.Fatalf("expected one generation call, got %d", generate)
	}
}

func TestEngineFallsBackToTraditionalWithLocator(t *testing.T) {
	doc := "What is the fee? The fee is ten dollars. What is the term?"
	client := &scriptedClient{
		extractPairsErr: errors.New("model overloaded"),
		questions:       []string{"What is the fee?", "What is the term?"},
		batchAnswers:    map[string]string{"What is the term?": "One year."},
	}
	engine := NewEngine(client, NewResultCache())

	pairs, err := engine.ExtractQuestionsAndAnswers(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].Answer != "The fee is ten dollars." {
		t.Fatalf("expected locally located answer, got %q", pairs[0].Answer)
	}
	if pairs[1].Answer != "One year." {
		t.Fatalf("expected batch answer for unlocated question, got %q", pairs[1].Answer)
	}
	if _, questions, _, batch, _ := client.calls(); questions != 1 || batch != 1 {
		t.Fatalf("expected traditional path calls, got questions=%d batch=%d", questions, batch)
	}
}

func TestEnginePerQuestionFallbackAfterBatchFailure(t *testing.T) {
	client := &scriptedClient{
		extractPairsErr: errors.New("combined failed"),
		questions:       []string{"Unlocatable question?"},
		batchErr:        errors.New("batch failed"),
		singleAnswer:    "Single-shot answer.",
	}
	engine := NewEngine(client, NewResultCache())

	pairs, err := engine.ExtractQuestionsAndAnswers(context.Background(), "no answers in here")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Answer != "Single-shot answer." {
		t.Fatalf("expected per-question answer, got %v", pairs)
	}
	if _, _, _, batch, single := client.calls(); batch != 1 || single != 1 {
		t.Fatalf("expected batch then single, got batch=%d single=%d", batch, single)
	}
}

func TestEnginePlaceholderWhenAllAnswerSourcesFail(t *testing.T) {
	client := &scriptedClient{
		extractPairsErr: errors.New("combined failed"),
		questions:       []string{"Hopeless question?"},
		batchErr:        errors.New("batch failed"),
		singleErr:       errors.New("single failed"),
	}
	engine := NewEngine(client, NewResultCache())

	pairs, err := engine.ExtractQuestionsAndAnswers(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Answer != NoAnswerFallback {
		t.Fatalf("expected placeholder answer, got %v", pairs)
	}
}

func TestEngineQuestionExtractionErrorPropagates(t *testing.T) {
	client := &scriptedClient{
		extractPairsErr: errors.New("combined failed"),
		questionsErr:    errors.New("questions failed"),
	}
	engine := NewEngine(client, NewResultCache())

	if _, err := engine.ExtractQuestionsAndAnswers(context.Background(), "text"); err == nil {
		t.Fatal("expected error when both extraction paths fail")
	}

	// A failed extraction must not be cached.
	client.mu.Lock()
	client.questionsErr = nil
	client.questions = []string{"Recovered?"}
	client.batchAnswers = map[string]string{"Recovered?": "Yes."}
	client.mu.Unlock()
	pairs, err := engine.ExtractQuestionsAndAnswers(context.Background(), "text")
	if err != nil {
		t.Fatalf("retry after transient failure: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Answer != "Yes." {
		t.Fatalf("unexpected pairs after retry: %v", pairs)
	}
}

func TestEngineConcurrentCallsShareOneExtraction(t *testing.T) {
	client := &scriptedClient{
		extractPairs: []llm.QAPair{{Question: "Q?", Answer: "A."}},
	}
	engine := NewEngine(client, NewResultCache())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.ExtractQuestionsAndAnswers(context.Background(), "shared content"); err != nil {
				t.Errorf("concurrent call: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls, _, _, _, _ := client.calls(); calls != 1 {
		t.Fatalf("expected concurrent callers to share one extraction, got %d", calls)
	}
}
