package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurlabs/chorus/agent"
	"github.com/murmurlabs/chorus/blackboard"
	"github.com/murmurlabs/chorus/config"
	"github.com/murmurlabs/chorus/engine"
	"github.com/murmurlabs/chorus/llm"
	"github.com/murmurlabs/chorus/schema"
)

// scriptedClient replies per agent model so one client can drive a roster.
type scriptedClient struct {
	replies map[string]map[string]any
}

func (s *scriptedClient) GenerateJSON(_ context.Context, model string, _ []llm.Message) (map[string]any, error) {
	if reply, ok := s.replies[model]; ok {
		return reply, nil
	}
	return map[string]any{}, nil
}

// TestRosterFromConfigEndToEnd loads a YAML roster, builds the agents
// through the factory registry, and drives a two-phase turn through the
// engine.
func TestRosterFromConfigEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chorus.yaml")
	doc := `
llm:
  provider: openai
  model: gpt-4o-mini
agents:
  - name: Question Detector
    text: "Detect unanswered questions."
    model: detector-model
    trigger_config:
      mode: [turn_based]
      cooldown: 1
      priority: 1
  - name: Question Responder
    text: "Suggest answers to detected questions."
    model: responder-model
    trigger_config:
      cooldown: 1
      priority: 5
      subscribed_events: [question_detected]
    trigger_conditions:
      mode: all
      rules:
        - meta: phase
          op: eq
          value: 2
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	agents, err := agent.Build(cfg.Agents)
	require.NoError(t, err)
	require.Len(t, agents, 2)

	client := &scriptedClient{replies: map[string]map[string]any{
		"detector-model": {
			"has_insight": false,
			"events": []any{
				map[string]any{"name": "question_detected", "payload": map[string]any{"text": "pricing?"}},
			},
			"variable_updates": map[string]any{"open_questions": 1},
		},
		"responder-model": {
			"has_insight": true,
			"message":     "Answer the pricing question with the value framing.",
			"type":        "suggestion",
		},
	}}

	e := engine.New(engine.WithClient(client))
	for _, ag := range agents {
		e.RegisterAgent(ag)
	}

	tc := &agent.Context{
		SessionID: "integration",
		RecentSegments: []schema.TranscriptSegment{
			{Speaker: "USER", Text: "What does it cost?", Timestamp: 1},
		},
		Blackboard: blackboard.New(),
		TurnCount:  1,
	}

	resp := e.ProcessTurn(context.Background(), tc)

	// The detector ran in phase 1, the responder in phase 2.
	require.Len(t, resp.Insights, 1)
	assert.Equal(t, "question_responder", resp.Insights[0].AgentID)
	assert.Equal(t, 1, tc.Blackboard.VarOr("open_questions", nil))
	assert.Empty(t, tc.Blackboard.Events(), "events cleared at turn end")
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "question_detected", resp.Events[0].Name)
}
