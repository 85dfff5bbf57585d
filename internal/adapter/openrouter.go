package adapter

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// openRouterAdapter implements Completer against the OpenRouter
// chat-completions API, which speaks the OpenAI wire protocol.
type openRouterAdapter struct {
	client *openai.Client
	model  string
}

// NewOpenRouter creates an OpenRouter adapter.
func NewOpenRouter(apiKey, model string) Completer {
	return newOpenRouter(apiKey, model, openRouterBaseURL)
}

func newOpenRouter(apiKey, model, baseURL string) Completer {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &openRouterAdapter{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (o *openRouterAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openrouter complete: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openrouter complete: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
