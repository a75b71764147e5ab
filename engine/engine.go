// Package engine implements the turn-driven scheduler at the heart of the
// Chorus runtime. The engine owns the agent roster and the live blackboard
// write path: each turn it selects eligible agents, fans them out in
// parallel against an immutable blackboard snapshot, merges their responses
// under deterministic priority ordering, and dispatches emitted events to a
// bounded second phase.
//
// ProcessTurn never returns an error; severe issues surface as error-typed
// insights in the aggregate response.
package engine

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/murmurlabs/chorus/agent"
	"github.com/murmurlabs/chorus/condition"
	"github.com/murmurlabs/chorus/config"
	"github.com/murmurlabs/chorus/core"
	"github.com/murmurlabs/chorus/llm"
	"github.com/murmurlabs/chorus/schema"
)

// DefaultMaxPhases bounds event-dispatch recursion within a turn. Events
// emitted in the final phase are recorded but not dispatched.
const DefaultMaxPhases = 2

// registration pairs an agent with its registration index (the stable
// tie-breaker within equal priority) and its runtime state.
type registration struct {
	agent agent.Agent
	index int
	state agent.State
}

// Engine schedules agents against a shared blackboard. Create one per
// session roster with New; the host serializes ProcessTurn calls for a
// given session.
type Engine struct {
	mu     sync.RWMutex
	agents []*registration

	client      llm.Client
	providerCfg config.ProviderConfig

	hookList  []agent.Hooks
	hooks     agent.Hooks
	runner    *agent.Runner
	evaluator *condition.Evaluator
	logger    *slog.Logger
	maxPhases int
	now       func() time.Time
}

// Option configures an Engine created by New.
type Option func(*Engine)

// WithHooks adds observer hooks. Multiple calls accumulate; callbacks fire
// in registration order.
func WithHooks(hooks ...agent.Hooks) Option {
	return func(e *Engine) {
		e.hookList = append(e.hookList, hooks...)
	}
}

// WithClient sets the model client injected into agents.
func WithClient(client llm.Client) Option {
	return func(e *Engine) {
		e.client = client
	}
}

// WithProvider sets the provider config used to build the model client and
// to rebuild it on UpdateAPIKey. New does not build a client from it when
// WithClient supplied one; UpdateAPIKey still rebuilds from it.
func WithProvider(cfg config.ProviderConfig) Option {
	return func(e *Engine) {
		e.providerCfg = cfg
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxPhases overrides the phase bound. Values below 1 are ignored.
func WithMaxPhases(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxPhases = n
		}
	}
}

// WithClock overrides the engine clock. Tests use this to control cooldown
// arithmetic.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:    slog.Default(),
		maxPhases: DefaultMaxPhases,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.evaluator = condition.New(e.logger)
	e.hooks = agent.ComposeHooks(e.hookList...)
	e.runner = agent.NewRunner(e.hooks, e.logger, e.now)

	if e.client == nil && e.providerCfg.Provider != "" {
		client, err := llm.New(e.providerCfg.Provider, e.providerCfg)
		if err != nil {
			e.logger.Error("building model client failed", "provider", e.providerCfg.Provider, "error", err)
		} else {
			e.client = client
		}
	}
	return e
}

// RegisterAgent adds an agent to the roster, recording its registration
// index and injecting the model client when the agent accepts one.
func (e *Engine) RegisterAgent(ag agent.Agent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		if receiver, ok := ag.(llm.ClientReceiver); ok {
			receiver.SetClient(e.client)
		}
	}

	cfg := ag.Config()
	e.agents = append(e.agents, &registration{agent: ag, index: len(e.agents)})
	e.logger.Info("registered agent",
		"name", cfg.Name, "id", cfg.ID, "model", cfg.Model,
		"triggers", cfg.TriggerTypes, "priority", cfg.Priority)
}

// UpdateAPIKey rebuilds the model client with the new key and re-injects it
// into every agent that accepts one.
func (e *Engine) UpdateAPIKey(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg := e.providerCfg
	if cfg.Provider == "" {
		return core.NewError("engine.update_api_key", core.ErrInvalidInput,
			"no provider configured", nil)
	}
	cfg.APIKey = key

	client, err := llm.New(cfg.Provider, cfg)
	if err != nil {
		return err
	}
	e.client = client
	e.providerCfg = cfg

	for _, reg := range e.agents {
		if receiver, ok := reg.agent.(llm.ClientReceiver); ok {
			receiver.SetClient(client)
		}
	}
	e.logger.Info("updated model client for all agents", "provider", cfg.Provider)
	return nil
}

// Agents returns the registered agents in registration order.
func (e *Engine) Agents() []agent.Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]agent.Agent, len(e.agents))
	for i, reg := range e.agents {
		out[i] = reg.agent
	}
	return out
}

// AgentsByTriggerType returns all agents that respond to the trigger type.
func (e *Engine) AgentsByTriggerType(t schema.TriggerType) []agent.Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []agent.Agent
	for _, reg := range e.agents {
		if reg.agent.Config().HandlesTrigger(t) {
			out = append(out, reg.agent)
		}
	}
	return out
}

// EventSubscribers returns all agents subscribed to at least one of the
// given event names.
func (e *Engine) EventSubscribers(names []string) []agent.Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []agent.Agent
	for _, reg := range e.agents {
		for _, name := range names {
			if reg.agent.Config().SubscribesTo(name) {
				out = append(out, reg.agent)
				break
			}
		}
	}
	return out
}

// AgentsWithKeywords returns all agents that declare trigger keywords.
func (e *Engine) AgentsWithKeywords() []agent.Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []agent.Agent
	for _, reg := range e.agents {
		if len(reg.agent.Config().Keywords) > 0 {
			out = append(out, reg.agent)
		}
	}
	return out
}

// AgentsWithSilenceThreshold returns all agents that declare a silence
// threshold.
func (e *Engine) AgentsWithSilenceThreshold() []agent.Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []agent.Agent
	for _, reg := range e.agents {
		if reg.agent.Config().SilenceThreshold > 0 {
			out = append(out, reg.agent)
		}
	}
	return out
}

// KeywordMatch pairs an agent with the keyword that triggered it.
type KeywordMatch struct {
	Agent   agent.Agent
	Keyword string
}

// CheckKeywordTriggers returns the agents whose keywords appear in text
// (case-insensitive substring match), at most one match per agent. A nil
// allowed list admits all agents; an empty one admits none.
func (e *Engine) CheckKeywordTriggers(text string, allowed []string) []KeywordMatch {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lower := strings.ToLower(text)
	var matches []KeywordMatch
	for _, reg := range e.agents {
		cfg := reg.agent.Config()
		if allowed != nil && !containsID(allowed, cfg.ID) {
			continue
		}
		for _, keyword := range cfg.Keywords {
			if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
				matches = append(matches, KeywordMatch{Agent: reg.agent, Keyword: keyword})
				break
			}
		}
	}
	return matches
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
