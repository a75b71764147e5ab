package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurlabs/chorus/core"
	"github.com/murmurlabs/chorus/schema"
)

// stubAgent is a configurable test double.
type stubAgent struct {
	cfg      *Config
	evaluate func(ctx context.Context, tc *Context) (*schema.Response, error)
	calls    int
}

func (s *stubAgent) Config() *Config { return s.cfg }

func (s *stubAgent) Evaluate(ctx context.Context, tc *Context) (*schema.Response, error) {
	s.calls++
	if s.evaluate != nil {
		return s.evaluate(ctx, tc)
	}
	return schema.NewResponse(), nil
}

func newStub(id string) *stubAgent {
	return &stubAgent{cfg: &Config{
		ID:           id,
		Name:         id,
		TriggerTypes: []schema.TriggerType{schema.TriggerTurnBased},
		Cooldown:     10 * time.Second,
	}}
}

// fixedClock returns a clock pinned to a mutable instant.
func fixedClock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

func TestRunnerHappyPath(t *testing.T) {
	now := time.Unix(1000, 0)
	var started, finished []string
	hooks := Hooks{
		OnAgentStart: func(_ context.Context, name string, _ *Context) {
			started = append(started, name)
		},
		OnAgentFinish: func(_ context.Context, name string, _ *schema.Response, _ time.Duration) {
			finished = append(finished, name)
		},
	}
	r := NewRunner(hooks, nil, fixedClock(&now))

	ag := newStub("coach")
	st := &State{}
	tc := &Context{TriggerType: schema.TriggerTurnBased, Phase: 1}

	result := r.Run(context.Background(), ag, st, tc)
	require.True(t, result.Merged())
	assert.Equal(t, 1, ag.calls)
	assert.Equal(t, now, st.LastRun)
	assert.Equal(t, []string{"coach"}, started)
	assert.Equal(t, []string{"coach"}, finished)
}

func TestRunnerTriggerTypeMismatch(t *testing.T) {
	now := time.Unix(1000, 0)
	r := NewRunner(Hooks{}, nil, fixedClock(&now))

	ag := newStub("coach")
	st := &State{}
	tc := &Context{TriggerType: schema.TriggerKeyword, Phase: 1}

	result := r.Run(context.Background(), ag, st, tc)
	assert.Equal(t, SkipTriggerTypeMismatch, result.SkipReason)
	assert.False(t, result.Ran())
	assert.Zero(t, ag.calls)
}

func TestRunnerSecondPhaseSkipsTriggerCheck(t *testing.T) {
	now := time.Unix(1000, 0)
	r := NewRunner(Hooks{}, nil, fixedClock(&now))

	// Subscriber only handles keyword, but phase-2 delivery runs it anyway.
	ag := newStub("subscriber")
	ag.cfg.TriggerTypes = []schema.TriggerType{schema.TriggerKeyword}
	tc := &Context{TriggerType: schema.TriggerTurnBased, Phase: 2}

	result := r.Run(context.Background(), ag, &State{}, tc)
	assert.True(t, result.Merged())
	assert.Equal(t, 1, ag.calls)
}

func TestRunnerCooldown(t *testing.T) {
	now := time.Unix(1000, 0)
	var skipped []string
	hooks := Hooks{
		OnAgentSkipped: func(_ context.Context, name, reason string) {
			skipped = append(skipped, name+":"+reason)
		},
	}
	r := NewRunner(hooks, nil, fixedClock(&now))

	ag := newStub("coach")
	st := &State{}
	tc := &Context{TriggerType: schema.TriggerTurnBased, Phase: 1}

	require.True(t, r.Run(context.Background(), ag, st, tc).Merged())

	// Within cooldown: skipped, observers notified.
	now = now.Add(3 * time.Second)
	result := r.Run(context.Background(), ag, st, tc)
	assert.Equal(t, SkipCooldownActive, result.SkipReason)
	assert.Equal(t, 1, ag.calls)
	assert.Equal(t, []string{"coach:cooldown_active"}, skipped)

	// Past cooldown: runs again.
	now = now.Add(8 * time.Second)
	assert.True(t, r.Run(context.Background(), ag, st, tc).Merged())
	assert.Equal(t, 2, ag.calls)
}

func TestRunnerForceBypassesCooldown(t *testing.T) {
	now := time.Unix(1000, 0)
	r := NewRunner(Hooks{}, nil, fixedClock(&now))

	ag := newStub("coach")
	ag.cfg.Cooldown = 9999 * time.Second
	ag.cfg.TriggerTypes = []schema.TriggerType{schema.TriggerKeyword}
	st := &State{}
	tc := &Context{TriggerType: schema.TriggerForce, Phase: 1}

	require.True(t, r.Run(context.Background(), ag, st, tc).Merged())

	now = now.Add(time.Second)
	assert.True(t, r.Run(context.Background(), ag, st, tc).Merged())
	assert.Equal(t, 2, ag.calls)
}

func TestRunnerErrorCapture(t *testing.T) {
	now := time.Unix(1000, 0)
	var errored, finished int
	hooks := Hooks{
		OnAgentError:  func(_ context.Context, _ string, _ error) { errored++ },
		OnAgentFinish: func(_ context.Context, _ string, _ *schema.Response, _ time.Duration) { finished++ },
	}
	r := NewRunner(hooks, nil, fixedClock(&now))

	boom := errors.New("model unavailable")
	ag := newStub("fragile")
	ag.evaluate = func(context.Context, *Context) (*schema.Response, error) {
		return nil, boom
	}
	st := &State{}
	tc := &Context{TriggerType: schema.TriggerTurnBased, Phase: 1}

	result := r.Run(context.Background(), ag, st, tc)
	require.Error(t, result.Err)
	assert.True(t, errors.Is(result.Err, &core.Error{Code: core.ErrAgentFailed}))
	assert.False(t, result.Merged())
	assert.Equal(t, 1, errored)
	assert.Equal(t, 1, finished)

	// The error response carries exactly one error insight naming the agent.
	require.NotNil(t, result.Response)
	require.Len(t, result.Response.Insights, 1)
	insight := result.Response.Insights[0]
	assert.Equal(t, schema.InsightError, insight.Type)
	assert.Contains(t, insight.Content, "fragile")
	assert.Contains(t, insight.Content, "model unavailable")

	// A failed run does not refresh the cooldown clock.
	assert.True(t, st.LastRun.IsZero())
}

func TestRunnerPanicCapture(t *testing.T) {
	now := time.Unix(1000, 0)
	r := NewRunner(Hooks{}, nil, fixedClock(&now))

	ag := newStub("panicky")
	ag.evaluate = func(context.Context, *Context) (*schema.Response, error) {
		panic("boom")
	}
	tc := &Context{TriggerType: schema.TriggerTurnBased, Phase: 1}

	result := r.Run(context.Background(), ag, &State{}, tc)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "boom")
}

func TestRunnerDeclinedTurn(t *testing.T) {
	now := time.Unix(1000, 0)
	r := NewRunner(Hooks{}, nil, fixedClock(&now))

	ag := newStub("quiet")
	ag.evaluate = func(context.Context, *Context) (*schema.Response, error) {
		return nil, nil
	}
	tc := &Context{TriggerType: schema.TriggerTurnBased, Phase: 1}
	st := &State{}

	result := r.Run(context.Background(), ag, st, tc)
	require.NoError(t, result.Err)
	assert.True(t, result.Ran())
	assert.False(t, result.Merged())
	assert.Equal(t, now, st.LastRun, "a clean decline still refreshes the cooldown")
}

func TestEffectiveCooldown(t *testing.T) {
	cfg := &Config{Cooldown: 30 * time.Second}

	assert.Equal(t, 30*time.Second, cfg.EffectiveCooldown(nil))
	assert.Equal(t, 40*time.Second, cfg.EffectiveCooldown(&ConfigOverride{CooldownModifier: 10 * time.Second}))
	assert.Equal(t, 20*time.Second, cfg.EffectiveCooldown(&ConfigOverride{CooldownModifier: -10 * time.Second}))

	// The override floor holds no matter how negative the modifier is.
	assert.Equal(t, MinOverriddenCooldown, cfg.EffectiveCooldown(&ConfigOverride{CooldownModifier: -30 * time.Second}))
	assert.Equal(t, MinOverriddenCooldown, cfg.EffectiveCooldown(&ConfigOverride{CooldownModifier: -9999 * time.Second}))

	// No override: the configured cooldown stands, even below the floor.
	short := &Config{Cooldown: 2 * time.Second}
	assert.Equal(t, 2*time.Second, short.EffectiveCooldown(nil))

	// Zero cooldown falls back to the default.
	assert.Equal(t, DefaultCooldown, (&Config{}).EffectiveCooldown(nil))
}

func TestRunnerCooldownOverride(t *testing.T) {
	now := time.Unix(1000, 0)
	r := NewRunner(Hooks{}, nil, fixedClock(&now))

	ag := newStub("coach")
	ag.cfg.Cooldown = 60 * time.Second
	st := &State{}
	tc := &Context{
		TriggerType: schema.TriggerTurnBased,
		Phase:       1,
		Overrides: map[string]ConfigOverride{
			"coach": {CooldownModifier: -60 * time.Second},
		},
	}

	require.True(t, r.Run(context.Background(), ag, st, tc).Merged())

	// 6s later: past the 5s floored cooldown.
	now = now.Add(6 * time.Second)
	assert.True(t, r.Run(context.Background(), ag, st, tc).Merged())
	assert.Equal(t, 2, ag.calls)
}
