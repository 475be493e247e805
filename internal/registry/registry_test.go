package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjw296/carthorse/internal/step"
)

func echoArgs(_ context.Context, args Args) (step.Value, error) {
	entries := make(map[string]step.Value, len(args))
	for k, v := range args {
		entries[k] = v
	}
	return step.Table(entries), nil
}

func newTestRegistry() *Registry {
	r := New()
	r.Register(VersionFrom, Capability{
		Name:   "a-func",
		Params: []Param{Required("a"), Required("b"), Optional("c", step.Int(3))},
		Fn:     echoArgs,
	})
	r.Register(VersionFrom, Capability{Name: "setup.py", Params: []Param{Optional("python", step.String("python"))}, Fn: echoArgs})
	r.Register(When, Capability{Name: "always", Fn: func(context.Context, Args) (step.Value, error) {
		return step.Bool(true), nil
	}})
	r.Register(Actions, Capability{Name: "run", Params: []Param{Required("command")}, Fn: echoArgs})
	return r
}

func TestRegistry_Resolve(t *testing.T) {
	r := newTestRegistry()

	tests := []struct {
		name     string
		group    Group
		stepName string
		want     string
	}{
		{name: "hyphenated", group: VersionFrom, stepName: "a-func", want: "a-func"},
		{name: "underscored", group: VersionFrom, stepName: "a_func", want: "a-func"},
		{name: "dotted", group: VersionFrom, stepName: "setup.py", want: "setup.py"},
		{name: "guard", group: When, stepName: "always", want: "always"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := r.Resolve(tt.group, step.New(tt.stepName))
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Name)
		})
	}
}

func TestRegistry_Resolve_Unknown(t *testing.T) {
	r := newTestRegistry()

	// Groups are independent: "always" is a guard, not an action.
	_, err := r.Resolve(Actions, step.New("always"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCapability)

	var unknown *UnknownCapabilityError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, Actions, unknown.Group)
	assert.Equal(t, "always", unknown.Name)
	assert.Equal(t, `unknown capability "always" in actions`, err.Error())
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := newTestRegistry()

	assert.Panics(t, func() {
		r.Register(VersionFrom, Capability{Name: "a_func", Fn: echoArgs})
	})
	assert.Panics(t, func() {
		r.Register(Group("bogus"), Capability{Name: "x", Fn: echoArgs})
	})
}

func TestRegistry_Names(t *testing.T) {
	r := newTestRegistry()

	assert.Equal(t, []string{"a-func", "setup.py"}, r.Names(VersionFrom))
	assert.Equal(t, []string{"always"}, r.Names(When))
	assert.Equal(t, []string{"run"}, r.Names(Actions))
}

func TestInvoke_BindsKeywords(t *testing.T) {
	r := newTestRegistry()
	s := step.Step{Name: "a-func", Kwargs: map[string]step.Value{
		"a": step.Int(1), "b": step.Int(2), "c": step.Int(3),
	}}

	c, err := r.Resolve(VersionFrom, s)
	require.NoError(t, err)
	result, err := Invoke(context.Background(), c, s)
	require.NoError(t, err)

	table, ok := result.AsTable()
	require.True(t, ok)
	assert.True(t, table["a"].Equal(step.Int(1)))
	assert.True(t, table["b"].Equal(step.Int(2)))
	assert.True(t, table["c"].Equal(step.Int(3)))
}

func TestCapability_Bind(t *testing.T) {
	c := &Capability{
		Name:   "create-tag",
		Params: []Param{Optional("tag", step.String("$TAG")), Optional("remote", step.String("origin")), Optional("update", step.Bool(false))},
		Fn:     echoArgs,
	}

	t.Run("defaults", func(t *testing.T) {
		args, err := c.Bind(step.New("create-tag"))
		require.NoError(t, err)
		assert.Equal(t, "$TAG", args.String("tag"))
		assert.Equal(t, "origin", args.String("remote"))
		assert.False(t, args.Bool("update"))
	})

	t.Run("positional binds first parameter", func(t *testing.T) {
		args, err := c.Bind(step.Step{Name: "create-tag", Args: []step.Value{step.String("v1")}})
		require.NoError(t, err)
		assert.Equal(t, "v1", args.String("tag"))
	})

	t.Run("keyword overrides default", func(t *testing.T) {
		args, err := c.Bind(step.Step{Name: "create-tag", Kwargs: map[string]step.Value{"update": step.Bool(true)}})
		require.NoError(t, err)
		assert.True(t, args.Bool("update"))
	})
}

func TestCapability_Bind_Errors(t *testing.T) {
	c := &Capability{Name: "run", Params: []Param{Required("command")}, Fn: echoArgs}
	none := &Capability{Name: "never", Fn: echoArgs}

	tests := []struct {
		name    string
		cap     *Capability
		step    step.Step
		wantMsg string
	}{
		{
			name:    "missing required",
			cap:     c,
			step:    step.New("run"),
			wantMsg: `run: missing required argument "command"`,
		},
		{
			name:    "unknown keyword",
			cap:     c,
			step:    step.Step{Name: "run", Kwargs: map[string]step.Value{"command": step.String("x"), "shell": step.Bool(true)}},
			wantMsg: "unexpected keyword argument(s): shell",
		},
		{
			name:    "too many positionals",
			cap:     none,
			step:    step.Step{Name: "never", Args: []step.Value{step.String("x")}},
			wantMsg: "takes 0 positional argument(s) but 1 given",
		},
		{
			name: "duplicate value",
			cap:  c,
			step: step.Step{
				Name:   "run",
				Args:   []step.Value{step.String("x")},
				Kwargs: map[string]step.Value{"command": step.String("y")},
			},
			wantMsg: `got multiple values for argument "command"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cap.Bind(tt.step)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBadArguments)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestInvoke_PropagatesCapabilityError(t *testing.T) {
	boom := errors.New("boom")
	c := &Capability{Name: "explode", Fn: func(context.Context, Args) (step.Value, error) {
		return step.None(), boom
	}}

	_, err := Invoke(context.Background(), c, step.New("explode"))
	assert.Equal(t, boom, err)
}
