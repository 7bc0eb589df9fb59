// Package llm is the HTTP adapter for the language-model provider. It speaks
// the OpenAI-compatible chat-completions and embeddings endpoints.
package llm

import "context"

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage is the token accounting reported by the provider for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Client is the surface the services consume.
type Client interface {
	// Chat sends messages and returns the complete response text.
	Chat(ctx context.Context, messages []Message) (string, Usage, error)

	// StreamChat sends messages in streaming mode, invoking onDelta for each
	// incremental text fragment as the provider emits it. A non-nil error
	// from onDelta abandons the stream. Returns the assembled full text.
	StreamChat(ctx context.Context, messages []Message, onDelta func(string) error) (string, Usage, error)

	// Embed returns the embedding vector for one input text.
	Embed(ctx context.Context, input string) ([]float64, error)
}

const defaultMaxTokens = 2048

func resolveMaxTokens(value int) int {
	if value > 0 {
		return value
	}
	return defaultMaxTokens
}
