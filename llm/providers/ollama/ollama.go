// Package ollama provides a local-model client for the Chorus runtime using
// the Ollama native API with JSON-format constrained output.
//
// Usage:
//
//	import _ "github.com/murmurlabs/chorus/llm/providers/ollama"
//
//	client, err := llm.New("ollama", config.ProviderConfig{
//	    Model: "llama3.2",
//	})
package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/murmurlabs/chorus/config"
	"github.com/murmurlabs/chorus/core"
	"github.com/murmurlabs/chorus/llm"
)

const defaultBaseURL = "http://localhost:11434"

func init() {
	llm.Register("ollama", func(cfg config.ProviderConfig) (llm.Client, error) {
		return New(cfg)
	})
}

// Client implements llm.Client against a local Ollama server.
type Client struct {
	api          *api.Client
	defaultModel string
}

// Compile-time interface check.
var _ llm.Client = (*Client)(nil)

// New creates an Ollama client from the provider config. No API key is
// required; BaseURL defaults to the local server.
func New(cfg config.ProviderConfig) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, core.NewError("llm.ollama", core.ErrInvalidInput, "invalid base url", err)
	}

	httpClient := http.DefaultClient
	if cfg.Timeout > 0 {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		api:          api.NewClient(u, httpClient),
		defaultModel: cfg.Model,
	}, nil
}

// GenerateJSON sends the messages with JSON-constrained output and decodes
// the reply. An empty model falls back to the configured default.
func (c *Client) GenerateJSON(ctx context.Context, model string, msgs []llm.Message) (map[string]any, error) {
	if model == "" {
		model = c.defaultModel
	}

	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: convertMessages(msgs),
		Stream:   &stream,
		Format:   json.RawMessage(`"json"`),
	}

	var reply strings.Builder
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, core.NewError("llm.ollama", core.ErrProviderDown, "chat request failed", err)
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(reply.String()), &out); err != nil {
		return nil, core.NewError("llm.ollama", core.ErrInvalidInput, "decoding model reply", err)
	}
	return out, nil
}

func convertMessages(msgs []llm.Message) []api.Message {
	out := make([]api.Message, len(msgs))
	for i, m := range msgs {
		out[i] = api.Message{
			Role:    m.Role,
			Content: m.Content,
		}
	}
	return out
}
