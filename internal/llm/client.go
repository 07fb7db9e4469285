// Package llm wraps the chat-completion API that writes the poems.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	// temperature leaves room for the poems to vary between minutes.
	temperature = 0.8
	// maxTokens caps output well above the four-line budget the prompt asks for.
	maxTokens = 150

	requestTimeout = 30 * time.Second
)

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a client for the given key and model. baseURL overrides the
// endpoint for OpenAI-compatible gateways; empty means the public API.
func New(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

// Model reports the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Complete sends prompt as a single user message and returns the reply text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	slog.Debug("completion call",
		"model", c.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return resp.Choices[0].Message.Content, nil
}
