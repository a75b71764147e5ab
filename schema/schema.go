// Package schema defines the shared data model for the Chorus runtime: the
// trigger and insight taxonomies, transcript segments, transient events,
// deduplicated facts, agent insights, and the agent response envelope.
//
// Everything in this package is plain data with JSON-representable fields so
// that hosts can persist and replay session state without adapters.
package schema

// TriggerType identifies what caused an agent run to be considered.
type TriggerType string

const (
	// TriggerTurnBased fires after a conversation turn completes.
	TriggerTurnBased TriggerType = "turn_based"

	// TriggerKeyword fires immediately when a configured keyword is detected.
	TriggerKeyword TriggerType = "keyword"

	// TriggerSilence fires when the host detects prolonged dead air.
	TriggerSilence TriggerType = "silence"

	// TriggerInterval fires on a periodic schedule.
	TriggerInterval TriggerType = "interval"

	// TriggerEvent fires when an agent subscribes to an event emitted
	// earlier in the same turn.
	TriggerEvent TriggerType = "event"

	// TriggerForce runs an agent regardless of trigger type, cooldown, and
	// trigger conditions. It does not bypass the host's allow-list.
	TriggerForce TriggerType = "force"
)

// Valid reports whether t is a known trigger type.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerTurnBased, TriggerKeyword, TriggerSilence, TriggerInterval, TriggerEvent, TriggerForce:
		return true
	}
	return false
}

// InsightType categorizes an agent's user-visible output.
type InsightType string

const (
	// InsightSuggestion is actionable advice.
	InsightSuggestion InsightType = "suggestion"

	// InsightWarning flags a risk or problem.
	InsightWarning InsightType = "warning"

	// InsightOpportunity flags an urgent positive signal.
	InsightOpportunity InsightType = "opportunity"

	// InsightFact surfaces extracted knowledge.
	InsightFact InsightType = "fact"

	// InsightPraise is positive reinforcement.
	InsightPraise InsightType = "praise"

	// InsightError reports a system-level failure to the host UI.
	InsightError InsightType = "error"
)

// Valid reports whether t is a known insight type.
func (t InsightType) Valid() bool {
	switch t {
	case InsightSuggestion, InsightWarning, InsightOpportunity, InsightFact, InsightPraise, InsightError:
		return true
	}
	return false
}

// ParseInsightType maps a string to an InsightType, defaulting to
// InsightSuggestion for unknown values. Model output is untrusted, so the
// mapping is lenient rather than failing the whole response.
func ParseInsightType(s string) InsightType {
	t := InsightType(s)
	if t.Valid() {
		return t
	}
	return InsightSuggestion
}

// TranscriptSegment is a single piece of speech from the conversation.
// Segments are immutable once appended to a context window.
type TranscriptSegment struct {
	// Speaker identifies who spoke, e.g. "USER" or "SPEAKER".
	Speaker string `json:"speaker"`

	// Text is the transcribed content.
	Text string `json:"text"`

	// Timestamp is when the segment occurred, in seconds.
	Timestamp float64 `json:"timestamp"`

	// IsFinal reports whether the transcription is final or interim.
	IsFinal bool `json:"is_final"`
}
