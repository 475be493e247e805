package builtin

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjw296/carthorse/internal/output"
	"github.com/cjw296/carthorse/internal/process"
	"github.com/cjw296/carthorse/internal/registry"
	"github.com/cjw296/carthorse/internal/runenv"
	"github.com/cjw296/carthorse/internal/step"
)

// fixture bundles the collaborators a built-in test inspects.
type fixture struct {
	deps    Deps
	env     *runenv.Map
	runner  *process.MockRunner
	actions *process.MockRunner
	out     *bytes.Buffer
	reg     *registry.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	out := &bytes.Buffer{}
	printer := output.NewPrinterWithWriter(out)
	f := &fixture{
		env:     runenv.NewMap(nil),
		runner:  &process.MockRunner{Printer: printer},
		actions: &process.MockRunner{Printer: printer},
		out:     out,
	}
	f.deps = Deps{
		Env:          f.env,
		Runner:       f.runner,
		ActionRunner: f.actions,
		Printer:      printer,
		Dir:          t.TempDir(),
	}
	f.reg = NewRegistry(f.deps)
	return f
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(f.deps.Dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func (f *fixture) invoke(t *testing.T, g registry.Group, s step.Step) (step.Value, error) {
	t.Helper()
	c, err := f.reg.Resolve(g, s)
	require.NoError(t, err)
	return registry.Invoke(context.Background(), c, s)
}

func named(name string, kwargs map[string]step.Value) step.Step {
	if kwargs == nil {
		kwargs = map[string]step.Value{}
	}
	return step.Step{Name: name, Kwargs: kwargs}
}

func positional(name, arg string) step.Step {
	return step.Step{Name: name, Args: []step.Value{step.String(arg)}, Kwargs: map[string]step.Value{}}
}

func TestNewRegistry_Names(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, []string{"env", "file", "flit", "none", "poetry", "pyproject", "setup.py"}, f.reg.Names(registry.VersionFrom))
	assert.Equal(t, []string{"always", "never", "version-not-tagged"}, f.reg.Names(registry.When))
	assert.Equal(t, []string{"create-tag", "run", "update-major-tag"}, f.reg.Names(registry.Actions))
}

func TestNewRegistry_UnderscoreNames(t *testing.T) {
	f := newFixture(t)

	_, err := f.reg.Resolve(registry.When, step.New("version_not_tagged"))
	assert.NoError(t, err)
	_, err = f.reg.Resolve(registry.Actions, step.New("create_tag"))
	assert.NoError(t, err)
}
