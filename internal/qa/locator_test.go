package qa

import "testing"

func TestLocateAnswerFollowingSentence(t *testing.T) {
	text := "What is this? It is a test. Who made it?"
	answer, ok := LocateAnswer("What is this?", text)
	if !ok {
		t.Fatal("expected an answer")
	}
	if answer != "It is a test." {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestLocateAnswerSplitFallback(t *testing.T) {
	text := "Background info. What is this\nIt is a test."
	answer, ok := LocateAnswer("What is this", text)
	if !ok {
		t.Fatal("expected an answer")
	}
	if answer != "It is a test." {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestLocateAnswerQuestionAbsent(t *testing.T) {
	if _, ok := LocateAnswer("Where is it?", "Nothing relevant here."); ok {
		t.Fatal("expected no answer for absent question")
	}
}

func TestLocateAnswerNoFollowingText(t *testing.T) {
	if _, ok := LocateAnswer("What is this?", "Intro. What is this?"); ok {
		t.Fatal("expected no answer when nothing follows the question")
	}
}

func TestLocateAnswerUnpunctuatedTail(t *testing.T) {
	answer, ok := LocateAnswer("What is this?", "What is this? It is a test")
	if !ok {
		t.Fatal("expected an answer")
	}
	if answer != "It is a test" {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestLocateAnswerStopsBeforeNextQuestion(t *testing.T) {
	text := "What is this? It is a test\nWho made it? Nobody."
	answer, ok := LocateAnswer("What is this?", text)
	if !ok {
		t.Fatal("expected an answer")
	}
	if answer != "It is a test" {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestLocateAnswerEmptyInputs(t *testing.T) {
	if _, ok := LocateAnswer("", "text"); ok {
		t.Fatal("expected no answer for empty question")
	}
	if _, ok := LocateAnswer("Q?", ""); ok {
		t.Fatal("expected no answer for empty document")
	}
}
