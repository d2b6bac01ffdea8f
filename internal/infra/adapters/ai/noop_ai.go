package ai

import (
	"context"

	"ai-coding-tutor/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAdapter)(nil)

// NoopAdapter echoes a canned reply; used in dev mode when no provider
// key is configured.
type NoopAdapter struct{}

func NewNoopAdapter() *NoopAdapter { return &NoopAdapter{} }

func (n *NoopAdapter) Provider() string { return "noop" }

func (n *NoopAdapter) Chat(ctx context.Context, model string, messages []adapter.Message, opts adapter.ChatOptions) (string, error) {
	return "This is a placeholder tutor response (no AI provider configured).", nil
}

func (n *NoopAdapter) CountTokens(model string, messages []adapter.Message) (int, error) {
	return EstimateTokens(messages), nil
}

// EstimateTokens approximates prompt size at four characters per token,
// for providers without an exact tokenizer.
func EstimateTokens(messages []adapter.Message) int {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	return chars / 4
}
