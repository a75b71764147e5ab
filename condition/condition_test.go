package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/murmurlabs/chorus/blackboard"
	"github.com/murmurlabs/chorus/schema"
)

func board() *blackboard.Blackboard {
	bb := blackboard.New()
	bb.SetVar("phase", "discovery")
	bb.SetVar("score", 7)
	bb.SetVar("flag", false)
	bb.SetVar("empty_list", []any{})
	bb.PushQueueItems("questions", []any{"a", "b"})
	bb.AddFact(schema.Fact{Type: "budget", Value: 50000.0, Confidence: 0.9})
	bb.AddFact(schema.Fact{Type: "stakeholder", Key: "alice", Value: "CTO", Confidence: 0.8})
	bb.UpdateMemory("self_agent", map[string]any{"warned": true, "count": 3})
	bb.UpdateMemory("other_agent", map[string]any{"topic": "pricing"})
	return bb
}

func eval(t *testing.T, expr *Expression) bool {
	t.Helper()
	ev := New(nil)
	meta := map[string]any{
		"turn_count":   10,
		"phase":        1,
		"trigger_type": "turn_based",
		"session_id":   "s1",
	}
	return ev.Evaluate(expr, board(), meta, "self_agent")
}

func TestVacuouslyTrue(t *testing.T) {
	assert.True(t, eval(t, nil))
	assert.True(t, eval(t, &Expression{}))
	assert.True(t, eval(t, &Expression{Mode: ModeAll}))
}

func TestOperators(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{"eq match", Rule{Var: "phase", Op: "eq", Value: "discovery"}, true},
		{"eq mismatch", Rule{Var: "phase", Op: "eq", Value: "closing"}, false},
		{"eq numeric cross-type", Rule{Var: "score", Op: "eq", Value: 7.0}, true},
		{"default op is eq", Rule{Var: "phase", Value: "discovery"}, true},
		{"neq", Rule{Var: "phase", Op: "neq", Value: "closing"}, true},
		{"gt pass", Rule{Var: "score", Op: "gt", Value: 5}, true},
		{"gt fail", Rule{Var: "score", Op: "gt", Value: 9}, false},
		{"gt missing actual", Rule{Var: "missing", Op: "gt", Value: 1}, false},
		{"gte boundary", Rule{Var: "score", Op: "gte", Value: 7}, true},
		{"lt", Rule{Var: "score", Op: "lt", Value: 9}, true},
		{"lte boundary", Rule{Var: "score", Op: "lte", Value: 7}, true},
		{"in list", Rule{Var: "phase", Op: "in", Value: []any{"discovery", "demo"}}, true},
		{"in empty list", Rule{Var: "phase", Op: "in", Value: []any{}}, false},
		{"not_in list", Rule{Var: "phase", Op: "not_in", Value: []any{"closing"}}, true},
		{"not_in empty list", Rule{Var: "phase", Op: "not_in", Value: []any{}}, true},
		{"contains substring", Rule{Var: "phase", Op: "contains", Value: "disc"}, true},
		{"contains list member", Rule{Queue: "questions", Op: "contains", Value: "a"}, true},
		{"contains on missing", Rule{Var: "missing", Op: "contains", Value: "x"}, false},
		{"exists truthy", Rule{Var: "phase", Op: "exists"}, true},
		{"exists false value", Rule{Var: "flag", Op: "exists"}, false},
		{"exists empty collection", Rule{Var: "empty_list", Op: "exists"}, false},
		{"exists missing", Rule{Var: "missing", Op: "exists"}, false},
		{"present false value", Rule{Var: "flag", Op: "present"}, true},
		{"present missing", Rule{Var: "missing", Op: "present"}, false},
		{"not_exists missing", Rule{Var: "missing", Op: "not_exists"}, true},
		{"not_exists false value", Rule{Var: "flag", Op: "not_exists"}, true},
		{"not_exists truthy", Rule{Var: "phase", Op: "not_exists"}, false},
		{"empty on empty", Rule{Var: "empty_list", Op: "empty"}, true},
		{"empty on missing", Rule{Var: "missing", Op: "empty"}, true},
		{"not_empty queue", Rule{Queue: "questions", Op: "not_empty"}, true},
		{"not_empty missing queue", Rule{Queue: "nothing", Op: "not_empty"}, false},
		{"mod zero remainder", Rule{Meta: "turn_count", Op: "mod", Value: 5}, true},
		{"mod explicit result", Rule{Meta: "turn_count", Op: "mod", Value: 3, Result: 1}, true},
		{"mod wrong remainder", Rule{Meta: "turn_count", Op: "mod", Value: 3}, false},
		{"mod missing actual", Rule{Var: "missing", Op: "mod", Value: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eval(t, &Expression{Rules: []Rule{tt.rule}})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSources(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{"fact value", Rule{Fact: "budget", Op: "gte", Value: 50000}, true},
		{"fact missing", Rule{Fact: "timeline", Op: "exists"}, false},
		{"fact keyed", Rule{Fact: "stakeholder", FactKey: "alice", Op: "eq", Value: "CTO"}, true},
		{"fact keyed missing", Rule{Fact: "stakeholder", FactKey: "bob", Op: "present"}, false},
		{"queue resolves to list", Rule{Queue: "questions", Op: "contains", Value: "b"}, true},
		{"own memory", Rule{Memory: "warned", Op: "exists"}, true},
		{"own memory numeric", Rule{Memory: "count", Op: "gte", Value: 3}, true},
		{"cross-agent memory", Rule{Memory: "other_agent.topic", Op: "eq", Value: "pricing"}, true},
		{"cross-agent memory missing", Rule{Memory: "other_agent.missing", Op: "present"}, false},
		{"meta turn count", Rule{Meta: "turn_count", Op: "gte", Value: 10}, true},
		{"meta trigger type", Rule{Meta: "trigger_type", Op: "eq", Value: "turn_based"}, true},
		{"meta missing", Rule{Meta: "nope", Op: "present"}, false},
		{"no source", Rule{Op: "exists"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eval(t, &Expression{Rules: []Rule{tt.rule}})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModes(t *testing.T) {
	pass := Rule{Var: "phase", Op: "eq", Value: "discovery"}
	fail := Rule{Var: "phase", Op: "eq", Value: "closing"}

	assert.False(t, eval(t, &Expression{Mode: ModeAll, Rules: []Rule{pass, fail}}))
	assert.True(t, eval(t, &Expression{Mode: ModeAll, Rules: []Rule{pass, pass}}))
	assert.True(t, eval(t, &Expression{Mode: ModeAny, Rules: []Rule{fail, pass}}))
	assert.False(t, eval(t, &Expression{Mode: ModeAny, Rules: []Rule{fail, fail}}))
	assert.True(t, eval(t, &Expression{Mode: "bogus", Rules: []Rule{fail}}), "unknown mode is lenient")
}

func TestTotality(t *testing.T) {
	// Type-mismatched comparisons return false, never panic.
	tests := []Rule{
		{Var: "phase", Op: "gt", Value: 5},
		{Var: "score", Op: "gt", Value: "high"},
		{Var: "score", Op: "contains", Value: "x"},
		{Var: "phase", Op: "in", Value: 42},
		{Var: "empty_list", Op: "mod", Value: 2},
		{Var: "phase", Op: "mod", Value: 0},
	}
	for _, rule := range tests {
		assert.False(t, eval(t, &Expression{Rules: []Rule{rule}}))
	}
}

func TestUnknownOperatorIsLenient(t *testing.T) {
	got := eval(t, &Expression{Rules: []Rule{{Var: "phase", Op: "fuzzy_match", Value: "x"}}})
	assert.True(t, got)
}

func TestNilBlackboard(t *testing.T) {
	ev := New(nil)
	expr := &Expression{Rules: []Rule{{Var: "anything", Op: "exists"}}}
	assert.False(t, ev.Evaluate(expr, nil, nil, "agent"))
}
