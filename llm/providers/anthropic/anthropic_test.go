package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurlabs/chorus/config"
	"github.com/murmurlabs/chorus/llm"
)

func TestConvertMessages(t *testing.T) {
	msgs := []llm.Message{
		llm.SystemMessage("be brief"),
		llm.UserMessage("hello"),
		{Role: llm.RoleAssistant, Content: "hi"},
		llm.UserMessage("continue"),
	}

	converted, system := convertMessages(msgs)

	require.Len(t, system, 1)
	assert.Equal(t, "be brief", system[0].Text)
	assert.Len(t, converted, 3, "system messages move out of the turn list")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"leading prose", `Sure, here you go: {"a": 1}`, `{"a": 1}`},
		{"code fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no object", "no json here", "no json here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestNewUsesConfig(t *testing.T) {
	client, err := New(config.ProviderConfig{APIKey: "sk-ant-test", Model: "claude-3-5-haiku-latest"})
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku-latest", client.defaultModel)
}

func TestRegisteredInRegistry(t *testing.T) {
	assert.Contains(t, llm.List(), "anthropic")
}
