// Package library ships the concrete agents bundled with the Chorus
// runtime. The centerpiece is DynamicAgent, an agent whose persona, model,
// trigger configuration, and output format all come from a declarative
// config.AgentSpec, so hosts can define a roster in YAML or a database
// without writing Go.
//
// Importing the package registers the "dynamic" factory with the agent
// registry:
//
//	import _ "github.com/murmurlabs/chorus/library"
//
//	agents, err := agent.Build(cfg.Agents)
package library

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/murmurlabs/chorus/agent"
	"github.com/murmurlabs/chorus/config"
	"github.com/murmurlabs/chorus/llm"
	"github.com/murmurlabs/chorus/schema"
)

// defaultCooldown applies when a spec omits the trigger cooldown.
const defaultCooldown = 15 * time.Second

func init() {
	agent.Register("dynamic", func(spec config.AgentSpec) (agent.Agent, error) {
		return NewDynamicAgent(spec)
	})
}

// DynamicAgent loads its persona and configuration from an AgentSpec. The
// system prompt is rendered as a text/template with access to blackboard
// state and agent memory, the transcript window is configurable, and the
// model reply is parsed through an explicit output-format variant.
type DynamicAgent struct {
	cfg            *agent.Config
	prompt         string
	format         Format
	contextTurns   int
	includeContext bool
	logger         *slog.Logger

	mu     sync.RWMutex
	client llm.Client
}

// Compile-time interface checks.
var (
	_ agent.Agent        = (*DynamicAgent)(nil)
	_ llm.ClientReceiver = (*DynamicAgent)(nil)
)

// NewDynamicAgent creates a DynamicAgent from its spec.
func NewDynamicAgent(spec config.AgentSpec) (*DynamicAgent, error) {
	cfg := configFromSpec(spec)
	return &DynamicAgent{
		cfg:            cfg,
		prompt:         spec.Text,
		format:         ParseFormat(spec.OutputFormat),
		contextTurns:   spec.ContextTurns,
		includeContext: spec.WantsContext(),
		logger:         slog.Default().With("agent", cfg.Name),
	}, nil
}

// configFromSpec maps the declarative spec onto the engine-facing config.
func configFromSpec(spec config.AgentSpec) *agent.Config {
	triggers := parseTriggerModes(spec.Trigger.Mode)

	cooldown := defaultCooldown
	if spec.Trigger.Cooldown > 0 {
		cooldown = time.Duration(spec.Trigger.Cooldown) * time.Second
	}

	return &agent.Config{
		ID:               spec.EffectiveID(),
		Name:             spec.Name,
		TriggerTypes:     triggers,
		Keywords:         spec.Trigger.Keywords,
		SilenceThreshold: spec.Trigger.SilenceThreshold,
		Interval:         spec.Trigger.Interval,
		Cooldown:         cooldown,
		Priority:         spec.Trigger.Priority,
		Model:            spec.Model,
		OutputFormat:     string(ParseFormat(spec.OutputFormat)),
		SubscribedEvents: spec.Trigger.SubscribedEvents,
		Conditions:       spec.Conditions,
	}
}

// parseTriggerModes maps mode strings onto trigger types, ignoring unknown
// modes and defaulting to turn_based when nothing valid remains.
func parseTriggerModes(modes []string) []schema.TriggerType {
	var out []schema.TriggerType
	for _, mode := range modes {
		t := schema.TriggerType(mode)
		if t.Valid() && t != schema.TriggerForce {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = []schema.TriggerType{schema.TriggerTurnBased}
	}
	return out
}

// Config returns the agent's registration configuration.
func (a *DynamicAgent) Config() *agent.Config {
	return a.cfg
}

// SetClient injects the model client. The engine calls this at registration
// and on API-key rotation.
func (a *DynamicAgent) SetClient(client llm.Client) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.client = client
}

// Evaluate renders the persona prompt against the blackboard snapshot,
// calls the model, and parses the reply into a response.
func (a *DynamicAgent) Evaluate(ctx context.Context, tc *agent.Context) (*schema.Response, error) {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	if client == nil {
		return nil, fmt.Errorf("no model client injected")
	}

	messages := a.buildMessages(tc)

	result, err := client.GenerateJSON(ctx, a.cfg.Model, messages)
	if err != nil {
		return nil, err
	}

	timestamp := float64(time.Now().UnixNano()) / float64(time.Second)
	resp := a.format.Parse(result, a.cfg, timestamp)
	resp.DebugInfo = map[string]any{
		"prompt_messages": messages,
		"model":           a.cfg.Model,
		"llm_output":      result,
	}
	return resp, nil
}

// buildMessages assembles the system and user messages: user context,
// language directive, rendered persona, serialized memory, RAG docs,
// trigger context, and the format's JSON instruction, followed by the
// transcript window.
func (a *DynamicAgent) buildMessages(tc *agent.Context) []llm.Message {
	var sections []string

	if a.includeContext && tc.UserContext != "" {
		sections = append(sections, tc.UserContext)
	}
	if tc.LanguageDirective != "" {
		sections = append(sections, tc.LanguageDirective)
	}
	sections = append(sections, a.renderPrompt(tc))
	sections = append(sections, "[YOUR MEMORY / SCRATCHPAD]\n"+a.serializeMemory(tc))

	if a.includeContext && len(tc.RAGDocs) > 0 {
		sections = append(sections, "[RELEVANT KNOWLEDGE/DOCS]\n"+strings.Join(tc.RAGDocs, "\n---\n"))
	}
	if trigger := triggerContext(tc); trigger != "" {
		sections = append(sections, trigger)
	}
	sections = append(sections, a.format.Instruction())

	return []llm.Message{
		llm.SystemMessage(strings.Join(sections, "\n\n")),
		llm.UserMessage("### TRANSCRIPT:\n" + a.transcriptWindow(tc)),
	}
}

// renderPrompt renders the persona prompt as a template with state, memory,
// blackboard, user context, and agent ID bindings. Rendering failures fall
// back to the raw prompt so a bad template never kills the agent.
func (a *DynamicAgent) renderPrompt(tc *agent.Context) string {
	tmpl, err := template.New("prompt").Option("missingkey=zero").Parse(a.prompt)
	if err != nil {
		a.logger.Warn("prompt template parse failed, using raw prompt", "error", err)
		return a.prompt
	}

	var memory map[string]any
	var variables map[string]any
	if tc.Blackboard != nil {
		memory = tc.Blackboard.Memory(a.cfg.ID)
		variables = tc.Blackboard.Variables()
	}

	data := map[string]any{
		"State":       tc.SharedState,
		"Memory":      memory,
		"Blackboard":  variables,
		"UserContext": tc.UserContext,
		"AgentID":     a.cfg.ID,
	}

	var rendered strings.Builder
	if err := tmpl.Execute(&rendered, data); err != nil {
		a.logger.Warn("prompt template render failed, using raw prompt", "error", err)
		return a.prompt
	}
	return rendered.String()
}

// serializeMemory renders the agent's private memory as indented JSON.
func (a *DynamicAgent) serializeMemory(tc *agent.Context) string {
	var memory map[string]any
	if tc.Blackboard != nil {
		memory = tc.Blackboard.Memory(a.cfg.ID)
	}
	if len(memory) == 0 {
		return "{}"
	}
	encoded, err := json.MarshalIndent(memory, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

// transcriptWindow formats the trailing contextTurns segments as
// "SPEAKER: text" lines. Zero or negative means all available.
func (a *DynamicAgent) transcriptWindow(tc *agent.Context) string {
	segments := tc.RecentSegments
	if a.contextTurns > 0 && len(segments) > a.contextTurns {
		segments = segments[len(segments)-a.contextTurns:]
	}

	lines := make([]string, len(segments))
	for i, seg := range segments {
		lines[i] = seg.Speaker + ": " + seg.Text
	}
	return strings.Join(lines, "\n")
}

// triggerContext describes keyword and silence activations so the persona
// knows why it woke up.
func triggerContext(tc *agent.Context) string {
	switch tc.TriggerType {
	case schema.TriggerKeyword:
		if keyword, ok := tc.TriggerMetadata["keyword"].(string); ok && keyword != "" {
			return fmt.Sprintf("[TRIGGER] You were activated by keyword: %q", keyword)
		}
	case schema.TriggerSilence:
		if duration, ok := tc.TriggerMetadata["silence_duration"].(float64); ok {
			return fmt.Sprintf("[TRIGGER] You were activated after %.1f seconds of silence.", duration)
		}
	}
	return ""
}
