package llm

import (
	"fmt"
	"strings"
)

// Message is one chat turn sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const extractQASystem = `You extract question/answer pairs from documents.
Return JSON: {"pairs":[{"question":"...","answer":"..."}]}.
Only include questions that literally appear in the document. For each
question, quote the answer text that follows it in the document. If the
document contains a question with no answer, set "answer" to "` + NoAnswerSentinel + `".
If the document contains no questions, return {"pairs":[]}.`

const extractQuestionsSystem = `You find questions inside documents.
Return JSON: {"questions":["..."]}. Only include questions that literally
appear in the document text. If there are none, return {"questions":[]}.`

const generateQASystem = `You write study questions about a document.
Return JSON: {"pairs":[{"question":"...","answer":"..."}]}. Generate
concise questions that the document can answer, with answers grounded in
the document content.`

const generateAnswersSystem = `You answer a list of questions using a
document as context. Return JSON: {"answers":[{"question":"...","answer":"..."}]}.
Answer every question, copying each question string exactly as given.`

const generateAnswerSystem = `You answer one question using a document as
context. Return JSON: {"answer":"..."}.`

// BuildExtractQAPrompt returns messages for the combined extraction call.
func BuildExtractQAPrompt(documentText string) []Message {
	return []Message{
		{Role: "system", Content: extractQASystem},
		{Role: "user", Content: "Document:\n" + documentText},
	}
}

// BuildExtractQuestionsPrompt returns messages for the questions-only call.
func BuildExtractQuestionsPrompt(documentText string) []Message {
	return []Message{
		{Role: "system", Content: extractQuestionsSystem},
		{Role: "user", Content: "Document:\n" + documentText},
	}
}

// BuildGenerateQAPrompt returns messages for synthetic QA generation.
func BuildGenerateQAPrompt(documentText string) []Message {
	return []Message{
		{Role: "system", Content: generateQASystem},
		{Role: "user", Content: "Document:\n" + documentText},
	}
}

// BuildGenerateAnswersPrompt returns messages for the batched answer call.
func BuildGenerateAnswersPrompt(questions []string, documentText string) []Message {
	var sb strings.Builder
	sb.WriteString("Questions:\n")
	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, q)
	}
	sb.WriteString("\nDocument:\n")
	sb.WriteString(documentText)
	return []Message{
		{Role: "system", Content: generateAnswersSystem},
		{Role: "user", Content: sb.String()},
	}
}

// BuildGenerateAnswerPrompt returns messages for a single-answer call.
func BuildGenerateAnswerPrompt(question, documentText string) []Message {
	return []Message{
		{Role: "system", Content: generateAnswerSystem},
		{Role: "user", Content: "Question: " + question + "\n\nDocument:\n" + documentText},
	}
}
