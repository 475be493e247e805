package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjw296/carthorse/internal/config"
	"github.com/cjw296/carthorse/internal/registry"
	"github.com/cjw296/carthorse/internal/runenv"
	"github.com/cjw296/carthorse/internal/step"
	"github.com/cjw296/carthorse/internal/tagformat"
)

// call records one capability invocation and the TAG it observed.
type call struct {
	Name string
	Arg  string
	Tag  string
}

// recorder builds a registry of stub capabilities that record their calls.
type recorder struct {
	env   *runenv.Map
	calls []call
}

func newRecorder() *recorder {
	return &recorder{env: runenv.NewMap(nil)}
}

func (r *recorder) stub(name string, result step.Value, err error) registry.Capability {
	return registry.Capability{
		Name:   name,
		Params: []registry.Param{registry.Optional("arg", step.None())},
		Fn: func(_ context.Context, args registry.Args) (step.Value, error) {
			tag, _ := r.env.Lookup(runenv.TagVar)
			r.calls = append(r.calls, call{Name: name, Arg: args.String("arg"), Tag: tag})
			return result, err
		},
	}
}

func (r *recorder) registry() *registry.Registry {
	reg := registry.New()
	reg.Register(registry.VersionFrom, r.stub("dummy", step.String("1.2.3"), nil))
	reg.Register(registry.VersionFrom, r.stub("none", step.None(), nil))
	reg.Register(registry.When, r.stub("dummy", step.Bool(true), nil))
	reg.Register(registry.When, r.stub("never", step.None(), nil))
	reg.Register(registry.When, r.stub("empty-string", step.String(""), nil))
	reg.Register(registry.When, r.stub("text", step.String("yes"), nil))
	reg.Register(registry.Actions, r.stub("dummy", step.None(), nil))
	return reg
}

func stepWithArg(name, arg string) step.Step {
	return step.Step{Name: name, Args: []step.Value{step.String(arg)}, Kwargs: map[string]step.Value{}}
}

func baseConfig() *config.Config {
	return &config.Config{
		VersionFrom: step.New("dummy"),
		When:        []step.Step{},
		Actions:     []step.Step{},
		TagFormat:   tagformat.Default,
	}
}

func TestEngine_Run_FullSequence(t *testing.T) {
	rec := newRecorder()
	cfg := baseConfig()
	cfg.When = []step.Step{step.New("dummy")}
	cfg.Actions = []step.Step{stepWithArg("dummy", "action 1"), stepWithArg("dummy", "action 2")}

	e := New(rec.registry(), rec.env)
	outcome, err := e.Run(context.Background(), cfg)

	require.NoError(t, err)
	assert.Equal(t, []call{
		{Name: "dummy", Tag: ""},
		{Name: "dummy", Tag: "v1.2.3"},
		{Name: "dummy", Arg: "action 1", Tag: "v1.2.3"},
		{Name: "dummy", Arg: "action 2", Tag: "v1.2.3"},
	}, rec.calls)
	assert.Equal(t, &Outcome{Version: "1.2.3", Tag: "v1.2.3", ActionsRun: 2}, outcome)
	assert.Equal(t, StateDone, e.State())
}

func TestEngine_Run_NoGuardsRunsAllActions(t *testing.T) {
	rec := newRecorder()
	cfg := baseConfig()
	cfg.VersionFrom = step.New("none")
	cfg.Actions = []step.Step{stepWithArg("dummy", "a"), stepWithArg("dummy", "b"), stepWithArg("dummy", "c")}

	outcome, err := New(rec.registry(), rec.env).Run(context.Background(), cfg)

	require.NoError(t, err)
	require.Len(t, rec.calls, 4)
	assert.Equal(t, "a", rec.calls[1].Arg)
	assert.Equal(t, "b", rec.calls[2].Arg)
	assert.Equal(t, "c", rec.calls[3].Arg)
	assert.Equal(t, "v", outcome.Tag)
	assert.Equal(t, 3, outcome.ActionsRun)
}

func TestEngine_Run_FalsyGuardShortCircuits(t *testing.T) {
	tests := []struct {
		name  string
		guard string
	}{
		{name: "no value", guard: "never"},
		{name: "empty string", guard: "empty-string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			cfg := baseConfig()
			cfg.When = []step.Step{step.New(tt.guard), step.New("dummy")}
			cfg.Actions = []step.Step{stepWithArg("dummy", "action")}

			e := New(rec.registry(), rec.env)
			outcome, err := e.Run(context.Background(), cfg)

			require.NoError(t, err)
			assert.Equal(t, []call{
				{Name: "dummy", Tag: ""},
				{Name: tt.guard, Tag: "v1.2.3"},
			}, rec.calls)
			require.NotNil(t, outcome.StoppedBy)
			assert.Equal(t, tt.guard, outcome.StoppedBy.Name)
			assert.Zero(t, outcome.ActionsRun)
			assert.Equal(t, StateDone, e.State())
		})
	}
}

func TestEngine_Run_TruthyStringGuardPasses(t *testing.T) {
	rec := newRecorder()
	cfg := baseConfig()
	cfg.When = []step.Step{step.New("text")}
	cfg.Actions = []step.Step{step.New("dummy")}

	outcome, err := New(rec.registry(), rec.env).Run(context.Background(), cfg)

	require.NoError(t, err)
	assert.Nil(t, outcome.StoppedBy)
	assert.Equal(t, 1, outcome.ActionsRun)
}

func TestEngine_Run_TagPublishedWithoutGuards(t *testing.T) {
	rec := newRecorder()

	_, err := New(rec.registry(), rec.env).Run(context.Background(), baseConfig())

	require.NoError(t, err)
	tag, ok := rec.env.Lookup(runenv.TagVar)
	assert.True(t, ok)
	assert.Equal(t, "v1.2.3", tag)
}

func TestEngine_Run_TagFormatWithClock(t *testing.T) {
	rec := newRecorder()
	cfg := baseConfig()
	cfg.TagFormat = "{version}-{now:%Y%m%d}"
	cfg.Actions = []step.Step{step.New("dummy")}
	clock := func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	outcome, err := New(rec.registry(), rec.env, WithClock(clock)).Run(context.Background(), cfg)

	require.NoError(t, err)
	assert.Equal(t, "1.2.3-20240301", outcome.Tag)
	assert.Equal(t, "1.2.3-20240301", rec.calls[1].Tag)
}

func TestEngine_Run_VersionErrorPropagatesUnwrapped(t *testing.T) {
	rec := newRecorder()
	boom := errors.New("no version")
	reg := rec.registry()
	reg.Register(registry.VersionFrom, rec.stub("broken", step.None(), boom))
	cfg := baseConfig()
	cfg.VersionFrom = step.New("broken")
	cfg.Actions = []step.Step{step.New("dummy")}

	e := New(reg, rec.env)
	_, err := e.Run(context.Background(), cfg)

	assert.Equal(t, boom, err)
	assert.Equal(t, StateFailed, e.State())
	assert.Len(t, rec.calls, 1)
	_, published := rec.env.Lookup(runenv.TagVar)
	assert.False(t, published)
}

func TestEngine_Run_GuardErrorPropagates(t *testing.T) {
	rec := newRecorder()
	boom := errors.New("git exploded")
	reg := rec.registry()
	reg.Register(registry.When, rec.stub("broken", step.None(), boom))
	cfg := baseConfig()
	cfg.When = []step.Step{step.New("broken"), step.New("dummy")}
	cfg.Actions = []step.Step{step.New("dummy")}

	e := New(reg, rec.env)
	_, err := e.Run(context.Background(), cfg)

	assert.Equal(t, boom, err)
	assert.Equal(t, StateFailed, e.State())
	assert.Len(t, rec.calls, 2)
}

func TestEngine_Run_ActionErrorAbortsRemaining(t *testing.T) {
	rec := newRecorder()
	boom := errors.New("push rejected")
	reg := rec.registry()
	reg.Register(registry.Actions, rec.stub("broken", step.None(), boom))
	cfg := baseConfig()
	cfg.Actions = []step.Step{
		stepWithArg("dummy", "first"),
		stepWithArg("dummy", "second"),
		step.New("broken"),
		stepWithArg("dummy", "never reached"),
	}

	e := New(reg, rec.env)
	outcome, err := e.Run(context.Background(), cfg)

	assert.Equal(t, boom, err)
	assert.Equal(t, StateFailed, e.State())
	assert.Equal(t, 2, outcome.ActionsRun)
	require.Len(t, rec.calls, 4)
	assert.Equal(t, "broken", rec.calls[3].Name)
}

func TestEngine_Run_UnknownCapabilityFailsBeforeInvoking(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantMsg string
	}{
		{
			name:    "version source",
			mutate:  func(cfg *config.Config) { cfg.VersionFrom = step.New("missing") },
			wantMsg: `version-from: unknown capability "missing" in version-from`,
		},
		{
			name:    "guard",
			mutate:  func(cfg *config.Config) { cfg.When = []step.Step{step.New("dummy"), step.New("missing")} },
			wantMsg: `when[1]: unknown capability "missing" in when`,
		},
		{
			name:    "action",
			mutate:  func(cfg *config.Config) { cfg.Actions = []step.Step{step.New("missing")} },
			wantMsg: `actions[0]: unknown capability "missing" in actions`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			cfg := baseConfig()
			tt.mutate(cfg)

			e := New(rec.registry(), rec.env)
			_, err := e.Run(context.Background(), cfg)

			require.Error(t, err)
			assert.ErrorIs(t, err, registry.ErrUnknownCapability)
			assert.EqualError(t, err, tt.wantMsg)
			assert.Empty(t, rec.calls)
			assert.Equal(t, StateFailed, e.State())
		})
	}
}

func TestEngine_Run_BadArgumentsFailBeforeInvoking(t *testing.T) {
	rec := newRecorder()
	cfg := baseConfig()
	cfg.Actions = []step.Step{{Name: "dummy", Kwargs: map[string]step.Value{"bogus": step.Int(1)}}}

	_, err := New(rec.registry(), rec.env).Run(context.Background(), cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrBadArguments)
	assert.Empty(t, rec.calls)
}

func TestEngine_Run_InvalidTagFormatFailsBeforeInvoking(t *testing.T) {
	rec := newRecorder()
	cfg := baseConfig()
	cfg.TagFormat = "v{release}"

	_, err := New(rec.registry(), rec.env).Run(context.Background(), cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, tagformat.ErrInvalidTemplate)
	assert.Contains(t, err.Error(), "tag-format")
	assert.Empty(t, rec.calls)
}

func TestEngine_Run_Progress(t *testing.T) {
	rec := newRecorder()
	cfg := baseConfig()
	cfg.When = []step.Step{step.New("dummy")}
	cfg.Actions = []step.Step{stepWithArg("dummy", "a"), stepWithArg("dummy", "b")}

	var events []Event
	e := New(rec.registry(), rec.env, WithProgress(func(ev Event) { events = append(events, ev) }))
	_, err := e.Run(context.Background(), cfg)

	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, StateResolvingVersion, events[0].State)
	assert.Equal(t, StateEvaluatingGuards, events[1].State)
	assert.Equal(t, Event{State: StateRunningActions, Step: cfg.Actions[1], Index: 2, Total: 2}, events[3])
}

func TestEngine_RegistrySharedAcrossRuns(t *testing.T) {
	rec := newRecorder()
	reg := rec.registry()
	cfg := baseConfig()
	cfg.Actions = []step.Step{step.New("dummy")}

	for i := 0; i < 2; i++ {
		_, err := New(reg, rec.env).Run(context.Background(), cfg)
		require.NoError(t, err)
	}
	assert.Len(t, rec.calls, 4)
}

func TestEngine_Plan(t *testing.T) {
	rec := newRecorder()
	cfg := baseConfig()
	cfg.When = []step.Step{step.New("never")}
	cfg.Actions = []step.Step{stepWithArg("dummy", "x")}

	plan, err := New(rec.registry(), rec.env).Plan(cfg)

	require.NoError(t, err)
	assert.Equal(t, registry.VersionFrom, plan.Version.Group)
	require.Len(t, plan.Guards, 1)
	assert.Equal(t, "never", plan.Guards[0].Capability.Name)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, "x", plan.Actions[0].Args.String("arg"))
	assert.Empty(t, rec.calls)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "resolving-version", StateResolvingVersion.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(42)", State(42).String())
}
