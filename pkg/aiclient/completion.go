package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Endpoint holds the connection details for one provider.
type Endpoint struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// Completion is a provider completion with its metered usage.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// CompletionClient issues chat-completion calls through the retrying
// client. Anthropic uses its native message API shape; every other
// provider is assumed OpenAI-compatible.
type CompletionClient struct {
	client    *Client
	endpoints map[string]Endpoint
}

// NewCompletionClient creates a completion client with per-provider endpoints.
func NewCompletionClient(client *Client, endpoints map[string]Endpoint) *CompletionClient {
	return &CompletionClient{client: client, endpoints: endpoints}
}

// Complete sends a single-prompt completion request to the provider and
// returns the response text plus actual token usage.
func (cc *CompletionClient) Complete(ctx context.Context, provider, model, prompt string, maxTokens int) (*Completion, error) {
	endpoint, ok := cc.endpoints[provider]
	if !ok {
		return nil, fmt.Errorf("no endpoint configured for provider %q", provider)
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	body, err := requestBody(provider, model, prompt, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", provider, err)
	}

	resp, err := cc.client.Do(ctx, provider, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		setAuth(req, provider, endpoint.APIKey)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return parseCompletion(resp.Body, provider)
}

func requestBody(provider, model, prompt string, maxTokens int) ([]byte, error) {
	if provider == "anthropic" {
		return json.Marshal(anthropicRequest{
			Model:     model,
			MaxTokens: maxTokens,
			Messages:  []chatMessage{{Role: "user", Content: prompt}},
		})
	}
	return json.Marshal(openAIRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	})
}

func setAuth(req *http.Request, provider, apiKey string) {
	if provider == "anthropic" {
		req.Header.Set("x-api-key", apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
		return
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}
