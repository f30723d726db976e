package ai

import "context"

// Provider performs a single inference call on behalf of an agent. The model
// and credential travel with the agent rather than the client, so one
// provider serves the whole field.
type Provider interface {
	Complete(ctx context.Context, model, apiKey, prompt string) (string, error)
}
