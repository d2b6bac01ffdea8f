package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ai-coding-tutor/internal/domain"
	"ai-coding-tutor/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*WorkersAIAdapter)(nil)

// WorkersAIAdapter implements adapter.AIServiceAdapter against the
// Cloudflare Workers AI REST endpoint:
// POST /client/v4/accounts/{account}/ai/run/{model}
type WorkersAIAdapter struct {
	accountID string
	apiToken  string
	base      string
	model     string
	client    *http.Client
}

func NewWorkersAIAdapter(accountID, apiToken, model string) (*WorkersAIAdapter, error) {
	if accountID == "" || apiToken == "" {
		return nil, errors.New("cloudflare account id and api token required")
	}
	if model == "" {
		model = "@cf/meta/llama-3-8b-instruct"
	}
	return &WorkersAIAdapter{
		accountID: accountID,
		apiToken:  apiToken,
		base:      "https://api.cloudflare.com/client/v4",
		model:     model,
		client:    &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (w *WorkersAIAdapter) Provider() string { return "workers-ai" }

func (w *WorkersAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message, opts adapter.ChatOptions) (string, error) {
	if model == "" {
		model = w.model
	}

	reqBody := struct {
		Messages    []adapter.Message `json:"messages"`
		Temperature float64           `json:"temperature,omitempty"`
		MaxTokens   int               `json:"max_tokens,omitempty"`
	}{Messages: messages, Temperature: opts.Temperature, MaxTokens: opts.MaxTokens}

	b, _ := json.Marshal(reqBody)
	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", w.base, w.accountID, model)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.apiToken)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAIUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: workers-ai http %d", domain.ErrAIUnavailable, resp.StatusCode)
	}

	var payload struct {
		Result struct {
			Response string `json:"response"`
		} `json:"result"`
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode: %v", domain.ErrAIUnavailable, err)
	}
	if !payload.Success || payload.Result.Response == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrAIUnavailable)
	}
	return payload.Result.Response, nil
}

func (w *WorkersAIAdapter) CountTokens(model string, messages []adapter.Message) (int, error) {
	return EstimateTokens(messages), nil
}
