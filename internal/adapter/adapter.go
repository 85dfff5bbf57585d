// Package adapter provides a unified interface to language-model providers.
package adapter

import (
	"context"
	"fmt"
)

// Provider name constants.
const (
	ProviderOpenRouter = "openrouter"
	ProviderClaude     = "claude"
)

// Completer is the language-model collaborator: a prompt goes in, the model's
// free-text reply comes out. Implementations honor ctx deadlines; every
// failure is terminal for that call, there are no built-in retries.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// New constructs the Completer for the named provider.
//
//   - provider: "openrouter" or "claude"
//   - apiKey: provider API key
//   - model: model identifier, e.g. "openai/gpt-3.5-turbo"
func New(provider, apiKey, model string) (Completer, error) {
	switch provider {
	case ProviderOpenRouter:
		return NewOpenRouter(apiKey, model), nil
	case ProviderClaude:
		return NewClaude(apiKey, model), nil
	default:
		return nil, fmt.Errorf("adapter: unknown provider %q; valid providers: openrouter, claude", provider)
	}
}
