package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurlabs/chorus/config"
	"github.com/murmurlabs/chorus/llm"
	"github.com/murmurlabs/chorus/schema"
)

// fakeClient is a canned llm.Client.
type fakeClient struct {
	key string
}

func (f *fakeClient) GenerateJSON(context.Context, string, []llm.Message) (map[string]any, error) {
	return map[string]any{}, nil
}

// receivingAgent records client injection.
type receivingAgent struct {
	*stubAgent
	client llm.Client
}

func (r *receivingAgent) SetClient(c llm.Client) { r.client = c }

func init() {
	llm.Register("fake", func(cfg config.ProviderConfig) (llm.Client, error) {
		return &fakeClient{key: cfg.APIKey}, nil
	})
}

func TestRegisterAgentInjectsClient(t *testing.T) {
	client := &fakeClient{}
	e := New(WithClient(client))

	ag := &receivingAgent{stubAgent: newStub("a", 0, nil)}
	e.RegisterAgent(ag)

	assert.Same(t, client, ag.client)
	require.Len(t, e.Agents(), 1)
}

func TestNewBuildsClientFromProvider(t *testing.T) {
	e := New(WithProvider(config.ProviderConfig{Provider: "fake", APIKey: "k1"}))

	ag := &receivingAgent{stubAgent: newStub("a", 0, nil)}
	e.RegisterAgent(ag)

	require.NotNil(t, ag.client)
	assert.Equal(t, "k1", ag.client.(*fakeClient).key)
}

func TestUpdateAPIKey(t *testing.T) {
	e := New(WithProvider(config.ProviderConfig{Provider: "fake", APIKey: "old"}))

	ag := &receivingAgent{stubAgent: newStub("a", 0, nil)}
	e.RegisterAgent(ag)

	require.NoError(t, e.UpdateAPIKey("new"))
	assert.Equal(t, "new", ag.client.(*fakeClient).key)
}

func TestUpdateAPIKeyWithoutProvider(t *testing.T) {
	e := New()
	assert.Error(t, e.UpdateAPIKey("key"))
}

func TestAgentsByTriggerType(t *testing.T) {
	e := New()

	turnAgent := newStub("turn", 0, nil)
	keywordAgent := newStub("kw", 0, nil)
	keywordAgent.cfg.TriggerTypes = []schema.TriggerType{schema.TriggerKeyword}

	e.RegisterAgent(turnAgent)
	e.RegisterAgent(keywordAgent)

	assert.Len(t, e.AgentsByTriggerType(schema.TriggerTurnBased), 1)
	assert.Len(t, e.AgentsByTriggerType(schema.TriggerKeyword), 1)
	assert.Empty(t, e.AgentsByTriggerType(schema.TriggerSilence))
}

func TestEventSubscribers(t *testing.T) {
	e := New()

	a1 := newStub("a1", 0, nil)
	a1.cfg.SubscribedEvents = []string{"question_detected"}
	a2 := newStub("a2", 0, nil)
	a2.cfg.SubscribedEvents = []string{"objection_raised"}
	a3 := newStub("a3", 0, nil)

	e.RegisterAgent(a1)
	e.RegisterAgent(a2)
	e.RegisterAgent(a3)

	subs := e.EventSubscribers([]string{"question_detected"})
	require.Len(t, subs, 1)
	assert.Equal(t, "a1", subs[0].Config().ID)

	subs = e.EventSubscribers([]string{"question_detected", "objection_raised"})
	assert.Len(t, subs, 2)
}

func TestAgentsWithKeywordsAndSilence(t *testing.T) {
	e := New()

	kw := newStub("kw", 0, nil)
	kw.cfg.Keywords = []string{"pricing"}
	silent := newStub("silent", 0, nil)
	silent.cfg.SilenceThreshold = 30
	plain := newStub("plain", 0, nil)

	e.RegisterAgent(kw)
	e.RegisterAgent(silent)
	e.RegisterAgent(plain)

	assert.Len(t, e.AgentsWithKeywords(), 1)
	assert.Len(t, e.AgentsWithSilenceThreshold(), 1)
}

func TestCheckKeywordTriggers(t *testing.T) {
	e := New()

	pricing := newStub("pricing_agent", 0, nil)
	pricing.cfg.Keywords = []string{"price", "cost"}
	competitor := newStub("competitor_agent", 0, nil)
	competitor.cfg.Keywords = []string{"competitor"}

	e.RegisterAgent(pricing)
	e.RegisterAgent(competitor)

	// Case-insensitive substring match; one match per agent even when both
	// keywords appear.
	matches := e.CheckKeywordTriggers("The PRICE and the cost look high", nil)
	require.Len(t, matches, 1)
	assert.Equal(t, "pricing_agent", matches[0].Agent.Config().ID)
	assert.Equal(t, "price", matches[0].Keyword)

	matches = e.CheckKeywordTriggers("they mentioned a Competitor product", nil)
	require.Len(t, matches, 1)
	assert.Equal(t, "competitor", matches[0].Keyword)

	assert.Empty(t, e.CheckKeywordTriggers("nothing relevant here", nil))

	// The allow-list filters matches; an empty list admits none.
	matches = e.CheckKeywordTriggers("price talk", []string{"competitor_agent"})
	assert.Empty(t, matches)
	matches = e.CheckKeywordTriggers("price talk", []string{})
	assert.Empty(t, matches)
}
