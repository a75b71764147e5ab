package library

import (
	"context"
	"strings"
	"time"

	"github.com/murmurlabs/chorus/agent"
	"github.com/murmurlabs/chorus/schema"
)

// MockCoach is a deterministic keyword-scanning agent that needs no model
// client. It exists for demos and integration testing of the scheduling
// path.
type MockCoach struct {
	cfg *agent.Config
}

// NewMockCoach creates a MockCoach.
func NewMockCoach() *MockCoach {
	return &MockCoach{
		cfg: &agent.Config{
			ID:           "sales_coach",
			Name:         "Sales Coach",
			TriggerTypes: []schema.TriggerType{schema.TriggerTurnBased},
			Cooldown:     5 * time.Second,
		},
	}
}

// Config returns the agent's registration configuration.
func (m *MockCoach) Config() *agent.Config {
	return m.cfg
}

// Evaluate scans the last three segments for pricing and feature talk.
func (m *MockCoach) Evaluate(_ context.Context, tc *agent.Context) (*schema.Response, error) {
	segments := tc.RecentSegments
	if len(segments) > 3 {
		segments = segments[len(segments)-3:]
	}
	var buffer strings.Builder
	for _, seg := range segments {
		buffer.WriteString(strings.ToLower(seg.Text))
		buffer.WriteByte(' ')
	}
	text := buffer.String()

	resp := schema.NewResponse()
	switch {
	case strings.Contains(text, "price") || strings.Contains(text, "cost") || strings.Contains(text, "expensive"):
		resp.Insights = append(resp.Insights, schema.NewInsight(
			m.cfg.ID, m.cfg.Name, schema.InsightWarning,
			"Price objection detected. Focus on value, not cost.", 1.0,
		))
		resp.VariableUpdates["topic"] = "pricing"
	case strings.Contains(text, "feature"):
		resp.Insights = append(resp.Insights, schema.NewInsight(
			m.cfg.ID, m.cfg.Name, schema.InsightSuggestion,
			"Mention the new AI capabilities.", 1.0,
		))
	}
	return resp, nil
}
