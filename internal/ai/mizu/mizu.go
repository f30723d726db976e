package mizu

import (
	"github.com/mizupool/battleroyale/internal/ai/openai"
)

const defaultBaseURL = "https://node.mizuai.io/v1"

// Client talks to the MIZU inference gateway, which speaks the OpenAI chat
// completion wire format.
type Client struct {
	*openai.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{openai.New(baseURL)}
}
