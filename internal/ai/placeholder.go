package ai

import (
	"context"
	"fmt"
	"strings"
)

// Placeholder answers challenges locally for agents that have no model or
// credential configured. It keeps a tournament runnable with no inference
// backend at all.
type Placeholder struct{}

func (Placeholder) Complete(_ context.Context, model, _ string, prompt string) (string, error) {
	if model == "" {
		model = "local"
	}
	var answers []string
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Question ") {
			continue
		}
		answers = append(answers, fmt.Sprintf("Answer %d: This is a simulated response to %q from model %s.",
			len(answers)+1, line, model))
	}
	if len(answers) == 0 {
		answers = []string{"I have no questions to answer, but I'm ready for the next challenge."}
	}
	return "As an AI agent, I've analyzed the questions and here are my responses:\n\n" +
		strings.Join(answers, "\n\n") +
		"\n\nI hope these answers demonstrate my capabilities. I'm ready for the next challenge!", nil
}
