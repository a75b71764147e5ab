// Package anthropic provides the Anthropic (Claude) model client for the
// Chorus runtime. It implements llm.Client using the Messages API; the JSON
// object is extracted from the first text block of the reply.
//
// Usage:
//
//	import _ "github.com/murmurlabs/chorus/llm/providers/anthropic"
//
//	client, err := llm.New("anthropic", config.ProviderConfig{
//	    APIKey: "sk-ant-...",
//	    Model:  "claude-3-5-haiku-latest",
//	})
package anthropic

import (
	"context"
	"encoding/json"
	"strings"

	anthropicSDK "github.com/anthropics/anthropic-sdk-go"
	anthropicOption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/murmurlabs/chorus/config"
	"github.com/murmurlabs/chorus/core"
	"github.com/murmurlabs/chorus/llm"
)

const defaultMaxTokens = 4096

func init() {
	llm.Register("anthropic", func(cfg config.ProviderConfig) (llm.Client, error) {
		return New(cfg)
	})
}

// Client implements llm.Client against the Anthropic Messages API.
type Client struct {
	api          anthropicSDK.Client
	defaultModel string
}

// Compile-time interface check.
var _ llm.Client = (*Client)(nil)

// New creates an Anthropic client from the provider config.
func New(cfg config.ProviderConfig) (*Client, error) {
	opts := []anthropicOption.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, anthropicOption.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropicOption.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, anthropicOption.WithRequestTimeout(cfg.Timeout))
	}
	opts = append(opts, anthropicOption.WithMaxRetries(0))

	return &Client{
		api:          anthropicSDK.NewClient(opts...),
		defaultModel: cfg.Model,
	}, nil
}

// GenerateJSON sends the messages and decodes the JSON object from the
// reply's first text block. An empty model falls back to the configured
// default.
func (c *Client) GenerateJSON(ctx context.Context, model string, msgs []llm.Message) (map[string]any, error) {
	if model == "" {
		model = c.defaultModel
	}

	converted, system := convertMessages(msgs)
	params := anthropicSDK.MessageNewParams{
		Model:     anthropicSDK.Model(model),
		MaxTokens: defaultMaxTokens,
		Messages:  converted,
	}
	if len(system) > 0 {
		params.System = system
	}

	resp, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return nil, core.NewError("llm.anthropic", core.ErrProviderDown, "message request failed", err)
	}

	text := firstText(resp)
	if text == "" {
		return nil, core.NewError("llm.anthropic", core.ErrProviderDown, "empty message response", nil)
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(extractJSON(text)), &out); err != nil {
		return nil, core.NewError("llm.anthropic", core.ErrInvalidInput, "decoding model reply", err)
	}
	return out, nil
}

func convertMessages(msgs []llm.Message) ([]anthropicSDK.MessageParam, []anthropicSDK.TextBlockParam) {
	var system []anthropicSDK.TextBlockParam
	out := make([]anthropicSDK.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, anthropicSDK.TextBlockParam{Text: m.Content})
		case llm.RoleAssistant:
			out = append(out, anthropicSDK.NewAssistantMessage(anthropicSDK.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropicSDK.NewUserMessage(anthropicSDK.NewTextBlock(m.Content)))
		}
	}
	return out, system
}

func firstText(resp *anthropicSDK.Message) string {
	if resp == nil {
		return ""
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}

// extractJSON trims any prose surrounding the outermost JSON object. Claude
// has no JSON response format toggle, so replies occasionally carry a
// leading sentence or a code fence.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
