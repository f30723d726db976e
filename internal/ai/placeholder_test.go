package ai

import (
	"context"
	"strings"
	"testing"
)

func TestPlaceholderAnswersEveryQuestion(t *testing.T) {
	prompt := "Answer every question below.\n\n" +
		"Question 1: Explain your approach.\n" +
		"Question 2: Explain it again, faster.\n"

	out, err := Placeholder{}.Complete(context.Background(), "gpt-4o", "", prompt)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Answer 1:", "Answer 2:", "gpt-4o"} {
		if !strings.Contains(out, want) {
			t.Errorf("response missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Answer 3:") {
		t.Error("response answered a question that was never asked")
	}
}

func TestPlaceholderDefaultsModelName(t *testing.T) {
	out, err := Placeholder{}.Complete(context.Background(), "", "", "Question 1: Anything.\n")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "model local") {
		t.Errorf("expected the local model label, got:\n%s", out)
	}
}

func TestPlaceholderHandlesEmptyPrompt(t *testing.T) {
	out, err := Placeholder{}.Complete(context.Background(), "", "", "no questions here")
	if err != nil {
		t.Fatal(err)
	}
	if out == "" {
		t.Fatal("expected a non-empty response")
	}
}
