package qa

import (
	"regexp"
	"strings"
)

// LocateAnswer finds the answer text immediately following a question inside
// documentText, without any AI cost. Two heuristics run in order: a
// sentence-anchored pattern match, then a literal split on the question with
// boundary trimming. Returns false when neither finds a non-empty answer.
func LocateAnswer(question, documentText string) (string, bool) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(documentText) == "" {
		return "", false
	}

	if answer, ok := locatePattern(question, documentText); ok {
		return answer, true
	}
	return locateSplit(question, documentText)
}

// locatePattern matches the literal question followed on the same line by a
// run of text up to a sentence terminator. This stops at the boundary of the
// next question rather than swallowing it.
func locatePattern(question, documentText string) (string, bool) {
	re, err := regexp.Compile(regexp.QuoteMeta(question) + `[ \t]*([^?\n]+?[.!])(?:\s|$)`)
	if err != nil {
		return "", false
	}
	match := re.FindStringSubmatch(documentText)
	if match == nil {
		return "", false
	}
	answer := strings.TrimSpace(match[1])
	if answer == "" {
		return "", false
	}
	return answer, true
}

// locateSplit takes everything after the first literal occurrence of the
// question, strips leading punctuation and whitespace, and truncates at the
// next question mark or newline.
func locateSplit(question, documentText string) (string, bool) {
	idx := strings.Index(documentText, question)
	if idx < 0 {
		return "", false
	}
	remainder := documentText[idx+len(question):]
	remainder = strings.TrimLeft(remainder, " \t\r\n?.:;,-")
	if cut := strings.IndexAny(remainder, "?\n"); cut >= 0 {
		remainder = remainder[:cut]
	}
	answer := strings.TrimSpace(remainder)
	if answer == "" {
		return "", false
	}
	return answer, true
}
