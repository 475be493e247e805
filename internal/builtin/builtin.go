// Package builtin provides the capabilities carthorse ships with.
//
// Version sources: poetry, pyproject, setup.py, file, flit, none, env.
// Guards: never, always, version-not-tagged.
// Actions: run, create-tag, update-major-tag.
//
// Version sources and guards run commands with [Deps.Runner]. Actions use
// [Deps.ActionRunner], which is a [process.DryRunner] in dry runs, so a dry
// run still resolves the real version and checks the real tags.
package builtin

import (
	"path/filepath"

	"github.com/cjw296/carthorse/internal/output"
	"github.com/cjw296/carthorse/internal/process"
	"github.com/cjw296/carthorse/internal/registry"
	"github.com/cjw296/carthorse/internal/runenv"
	"github.com/cjw296/carthorse/internal/step"
)

// Deps are the collaborators built-in capabilities use.
type Deps struct {
	// Env is the run environment. TAG is read from here.
	Env runenv.Env

	// Runner runs commands for version sources and guards.
	Runner process.Runner

	// ActionRunner runs commands for actions.
	ActionRunner process.Runner

	// Printer receives capability messages.
	Printer *output.Printer

	// Dir is the project directory relative file paths resolve against.
	// Empty means the working directory.
	Dir string
}

func (d Deps) path(p string) string {
	if d.Dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.Dir, p)
}

// NewRegistry returns a registry holding every built-in capability.
func NewRegistry(deps Deps) *registry.Registry {
	reg := registry.New()
	Register(reg, deps)
	return reg
}

// Register adds every built-in capability to reg.
func Register(reg *registry.Registry, deps Deps) {
	v := versionSources{deps: deps}
	reg.Register(registry.VersionFrom, registry.Capability{Name: "poetry", Fn: v.poetry})
	reg.Register(registry.VersionFrom, registry.Capability{Name: "pyproject", Fn: v.pyproject})
	reg.Register(registry.VersionFrom, registry.Capability{
		Name:   "setup.py",
		Params: []registry.Param{registry.Optional("python", step.String("python"))},
		Fn:     v.setupPy,
	})
	reg.Register(registry.VersionFrom, registry.Capability{
		Name: "file",
		Params: []registry.Param{
			registry.Required("path"),
			registry.Optional("pattern", step.String(DefaultFilePattern)),
		},
		Fn: v.file,
	})
	reg.Register(registry.VersionFrom, registry.Capability{
		Name:   "flit",
		Params: []registry.Param{registry.Required("module")},
		Fn:     v.flit,
	})
	reg.Register(registry.VersionFrom, registry.Capability{Name: "none", Fn: v.none})
	reg.Register(registry.VersionFrom, registry.Capability{
		Name:   "env",
		Params: []registry.Param{registry.Optional("variable", step.String(runenv.VersionVar))},
		Fn:     v.env,
	})

	g := guards{deps: deps}
	reg.Register(registry.When, registry.Capability{Name: "never", Fn: g.never})
	reg.Register(registry.When, registry.Capability{Name: "always", Fn: g.always})
	reg.Register(registry.When, registry.Capability{
		Name:   "version-not-tagged",
		Params: []registry.Param{registry.Optional("remote", step.String(DefaultRemote))},
		Fn:     g.versionNotTagged,
	})

	a := actions{deps: deps}
	reg.Register(registry.Actions, registry.Capability{
		Name:   "run",
		Params: []registry.Param{registry.Required("command")},
		Fn:     a.run,
	})
	reg.Register(registry.Actions, registry.Capability{
		Name: "create-tag",
		Params: []registry.Param{
			registry.Optional("tag", step.String("$"+runenv.TagVar)),
			registry.Optional("remote", step.String(DefaultRemote)),
			registry.Optional("update", step.Bool(false)),
		},
		Fn: a.createTag,
	})
	reg.Register(registry.Actions, registry.Capability{
		Name: "update-major-tag",
		Params: []registry.Param{
			registry.Optional("prefix", step.String("v")),
			registry.Optional("remote", step.String(DefaultRemote)),
		},
		Fn: a.updateMajorTag,
	})
}
