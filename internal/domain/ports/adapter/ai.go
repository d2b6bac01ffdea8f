package adapter

import "context"

// Message represents a chat message on the wire to the provider.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatOptions carries the sampling parameters for one call.
// Zero values mean "provider default".
type ChatOptions struct {
	Temperature float64
	MaxTokens   int
}

// AIServiceAdapter is the port for LLM chat completion.
type AIServiceAdapter interface {
	// Chat returns the assistant text for the given conversation.
	Chat(ctx context.Context, model string, messages []Message, opts ChatOptions) (string, error)

	// CountTokens returns prompt tokens for the provided messages
	// (provider-specific counting; best-effort when exact isn't available).
	CountTokens(model string, messages []Message) (int, error)

	// Provider names the backing service for logs and metrics.
	Provider() string
}
