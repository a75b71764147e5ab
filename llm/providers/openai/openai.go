// Package openai provides the OpenAI model client for the Chorus runtime.
// It implements llm.Client using the chat completions API with JSON-object
// response format, which also covers OpenAI-compatible endpoints (Azure,
// proxies) via a custom base URL.
//
// Usage:
//
//	import _ "github.com/murmurlabs/chorus/llm/providers/openai"
//
//	client, err := llm.New("openai", config.ProviderConfig{
//	    APIKey: "sk-...",
//	    Model:  "gpt-4o-mini",
//	})
package openai

import (
	"context"
	"encoding/json"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/murmurlabs/chorus/config"
	"github.com/murmurlabs/chorus/core"
	"github.com/murmurlabs/chorus/llm"
)

func init() {
	llm.Register("openai", func(cfg config.ProviderConfig) (llm.Client, error) {
		return New(cfg)
	})
}

// Client implements llm.Client against the OpenAI chat completions API.
type Client struct {
	api          *openai.Client
	defaultModel string
}

// Compile-time interface check.
var _ llm.Client = (*Client)(nil)

// New creates an OpenAI client from the provider config.
func New(cfg config.ProviderConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, core.NewError("llm.openai", core.ErrInvalidInput, "api key is required", nil)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		api:          openai.NewClientWithConfig(clientCfg),
		defaultModel: cfg.Model,
	}, nil
}

// GenerateJSON sends the messages with JSON-object response format and
// decodes the reply. An empty model falls back to the configured default.
func (c *Client) GenerateJSON(ctx context.Context, model string, msgs []llm.Message) (map[string]any, error) {
	if model == "" {
		model = c.defaultModel
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: convertMessages(msgs),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, core.NewError("llm.openai", core.ErrProviderDown, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, core.NewError("llm.openai", core.ErrProviderDown, "empty completion response", nil)
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return nil, core.NewError("llm.openai", core.ErrInvalidInput, "decoding model reply", err)
	}
	return out, nil
}

func convertMessages(msgs []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}
	return out
}
