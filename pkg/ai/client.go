package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrQuotaExceeded signals that the model provider rejected the call
// because the account's rate or volume limit was hit. Callers must check
// for it with errors.Is; it is the only model-call failure that is not
// absorbed by a fallback.
var ErrQuotaExceeded = errors.New("model provider quota exceeded")

// Usage holds the token counters reported for one model invocation.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is a successful model response.
type Completion struct {
	Text  string
	Usage Usage
}

// QuotaRecorder persists the fact that a quota-exceeded event was observed.
type QuotaRecorder interface {
	RecordQuotaExceeded(ctx context.Context)
}

// Client calls a chat-completion style model provider. It performs no
// retries; retry policy belongs to the caller.
type Client struct {
	client   *http.Client
	provider string // "openai" or "anthropic"
	model    string
	apiKey   string
	baseURL  string
	quota    QuotaRecorder // optional, nil = no quota event logging
}

// NewClient creates a model client. The quota recorder may be nil.
func NewClient(provider, model, apiKey, baseURL string, quota QuotaRecorder) *Client {
	if model == "" {
		switch provider {
		case "anthropic":
			model = "claude-sonnet-4-20250514"
		default:
			model = "gpt-4o-mini"
		}
	}
	return &Client{
		client:   &http.Client{Timeout: 60 * time.Second},
		provider: provider,
		model:    model,
		apiKey:   apiKey,
		baseURL:  baseURL,
		quota:    quota,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Invoke sends one prompt to the provider at the given temperature.
// A quota rejection is recorded through the QuotaRecorder and returned as
// ErrQuotaExceeded; every other failure is returned as a plain error with
// no side effects.
func (c *Client) Invoke(ctx context.Context, prompt string, temperature float64) (*Completion, error) {
	var comp *Completion
	var err error

	switch c.provider {
	case "anthropic":
		comp, err = c.callAnthropic(ctx, prompt, temperature)
	default:
		comp, err = c.callOpenAI(ctx, prompt, temperature)
	}

	if errors.Is(err, ErrQuotaExceeded) && c.quota != nil {
		c.quota.RecordQuotaExceeded(ctx)
	}
	return comp, err
}

func (c *Client) callOpenAI(ctx context.Context, prompt string, temperature float64) (*Completion, error) {
	baseURL := c.baseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": temperature,
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrQuotaExceeded
	}
	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("openai status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}
	return &Completion{
		Text: result.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
	}, nil
}

func (c *Client) callAnthropic(ctx context.Context, prompt string, temperature float64) (*Completion, error) {
	baseURL := c.baseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	payload := map[string]any{
		"model":       c.model,
		"max_tokens":  4096,
		"temperature": temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrQuotaExceeded
	}
	if resp.StatusCode != http.StatusOK {
		var errResp map[string]any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("anthropic status %d: %v", resp.StatusCode, errResp)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode anthropic response: %w", err)
	}

	if len(result.Content) == 0 {
		return nil, fmt.Errorf("anthropic: no content returned")
	}
	return &Completion{
		Text: result.Content[0].Text,
		Usage: Usage{
			PromptTokens:     result.Usage.InputTokens,
			CompletionTokens: result.Usage.OutputTokens,
			TotalTokens:      result.Usage.InputTokens + result.Usage.OutputTokens,
		},
	}, nil
}
