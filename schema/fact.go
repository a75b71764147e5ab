package schema

// Fact is an extracted datum with a confidence score. Facts are deduplicated
// when added to the blackboard:
//
//   - Key == "": any existing fact with the same Type is the replacement
//     candidate.
//   - Key != "": the candidate is the fact matching (Type, Key) exactly.
//
// A new fact replaces its candidate iff its confidence is greater than or
// equal to the candidate's, so later higher-confidence facts win and
// equal-confidence ties go to the newer arrival.
type Fact struct {
	// Type is the fact category, e.g. "budget" or "stakeholder".
	Type string `json:"type" validate:"required"`

	// Key discriminates instances within a type. Empty means the type is a
	// singleton.
	Key string `json:"key,omitempty"`

	// Value is the extracted datum.
	Value any `json:"value"`

	// Confidence scores the extraction in [0, 1].
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`

	// SourceAgent is the ID of the agent that produced the fact.
	SourceAgent string `json:"source_agent"`

	// Timestamp is when the fact was extracted, in seconds.
	Timestamp float64 `json:"timestamp"`
}

// Matches reports whether other is this fact's deduplication candidate.
func (f Fact) Matches(other Fact) bool {
	if f.Type != other.Type {
		return false
	}
	if f.Key == "" {
		return true
	}
	return f.Key == other.Key
}
