package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriggerTypeValid(t *testing.T) {
	for _, tt := range []TriggerType{
		TriggerTurnBased, TriggerKeyword, TriggerSilence,
		TriggerInterval, TriggerEvent, TriggerForce,
	} {
		assert.True(t, tt.Valid(), string(tt))
	}
	assert.False(t, TriggerType("bogus").Valid())
}

func TestInsightTypeValid(t *testing.T) {
	for _, it := range []InsightType{
		InsightSuggestion, InsightWarning, InsightOpportunity,
		InsightFact, InsightPraise, InsightError,
	} {
		assert.True(t, it.Valid(), string(it))
	}
	assert.False(t, InsightType("prophecy").Valid())
}

func TestParseInsightType(t *testing.T) {
	assert.Equal(t, InsightWarning, ParseInsightType("warning"))
	assert.Equal(t, InsightSuggestion, ParseInsightType("prophecy"))
	assert.Equal(t, InsightSuggestion, ParseInsightType(""))
}

func TestFactMatches(t *testing.T) {
	keyless := Fact{Type: "budget"}
	assert.True(t, keyless.Matches(Fact{Type: "budget", Key: "q1"}), "keyless matches any fact of the type")
	assert.False(t, keyless.Matches(Fact{Type: "timeline"}))

	keyed := Fact{Type: "stakeholder", Key: "alice"}
	assert.True(t, keyed.Matches(Fact{Type: "stakeholder", Key: "alice"}))
	assert.False(t, keyed.Matches(Fact{Type: "stakeholder", Key: "bob"}))
	assert.False(t, keyed.Matches(Fact{Type: "stakeholder"}))
}
