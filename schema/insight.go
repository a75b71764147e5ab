package schema

import (
	"github.com/go-playground/validator/v10"

	"github.com/murmurlabs/chorus/core"
)

// validate is the package-level validator instance. It is safe for
// concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultInsightExpiry is how long an insight should stay visible, in
// seconds, when the producing agent does not specify an expiry.
const DefaultInsightExpiry = 15

// Insight is a single piece of advice or feedback surfaced to the user.
type Insight struct {
	// AgentID is the stable identifier of the producing agent.
	AgentID string `json:"agent_id" validate:"required"`

	// AgentName is the display name of the producing agent.
	AgentName string `json:"agent_name" validate:"required"`

	// Type categorizes the insight.
	Type InsightType `json:"type" validate:"oneof=suggestion warning opportunity fact praise error"`

	// Content is the advice text.
	Content string `json:"content" validate:"required,min=2"`

	// Confidence scores the insight in [0, 1].
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`

	// Expiry is how long the insight should stay visible, in seconds.
	Expiry int `json:"expiry"`

	// ActionLabel is optional button text for actionable insights.
	ActionLabel string `json:"action_label,omitempty"`

	// Metadata is a generic extension point for UI-specific rendering
	// options (zone, color, voice style, and so on).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewInsight creates an Insight with the default expiry.
func NewInsight(agentID, agentName string, typ InsightType, content string, confidence float64) Insight {
	return Insight{
		AgentID:    agentID,
		AgentName:  agentName,
		Type:       typ,
		Content:    content,
		Confidence: confidence,
		Expiry:     DefaultInsightExpiry,
	}
}

// Validate checks the insight against its field constraints.
func (i Insight) Validate() error {
	if err := validate.Struct(i); err != nil {
		return core.NewError("schema.insight", core.ErrInvalidInput, "invalid insight", err)
	}
	return nil
}
