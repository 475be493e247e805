package builtin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/cjw296/carthorse/internal/registry"
	"github.com/cjw296/carthorse/internal/step"
)

// DefaultFilePattern is the pattern the file version source uses when none
// is configured.
const DefaultFilePattern = `(?P<version>[\d.]+)`

// pyprojectFile is the file the poetry and pyproject sources read.
const pyprojectFile = "pyproject.toml"

// versionGroup is the capture group the file source extracts.
const versionGroup = "version"

var dunderVersion = regexp.MustCompile(`(?m)^__version__\s*=\s*['"]([^'"]+)['"]`)

type versionSources struct {
	deps Deps
}

type pyprojectDoc struct {
	Tool struct {
		Poetry struct {
			Version string `toml:"version"`
		} `toml:"poetry"`
	} `toml:"tool"`
	Project struct {
		Version string `toml:"version"`
	} `toml:"project"`
}

func (v versionSources) readPyproject() (*pyprojectDoc, error) {
	path := v.deps.path(pyprojectFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc pyprojectDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &doc, nil
}

// poetry reads [tool.poetry].version from pyproject.toml.
func (v versionSources) poetry(context.Context, registry.Args) (step.Value, error) {
	doc, err := v.readPyproject()
	if err != nil {
		return step.None(), err
	}
	if doc.Tool.Poetry.Version == "" {
		return step.None(), fmt.Errorf("no version in [tool.poetry] of %s", pyprojectFile)
	}
	return step.String(doc.Tool.Poetry.Version), nil
}

// pyproject reads [project].version from pyproject.toml.
func (v versionSources) pyproject(context.Context, registry.Args) (step.Value, error) {
	doc, err := v.readPyproject()
	if err != nil {
		return step.None(), err
	}
	if doc.Project.Version == "" {
		return step.None(), fmt.Errorf("no version in [project] of %s", pyprojectFile)
	}
	return step.String(doc.Project.Version), nil
}

func (v versionSources) setupPy(ctx context.Context, args registry.Args) (step.Value, error) {
	out, err := v.deps.Runner.Output(ctx, args.String("python")+" setup.py --version")
	if err != nil {
		return step.None(), err
	}
	return step.String(strings.TrimSpace(out)), nil
}

// file returns the "version" group of the first match of pattern in path.
func (v versionSources) file(_ context.Context, args registry.Args) (step.Value, error) {
	path := args.String("path")
	pattern := args.String("pattern")

	re, err := regexp.Compile(pattern)
	if err != nil {
		return step.None(), fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}
	group := re.SubexpIndex(versionGroup)
	if group < 0 {
		return step.None(), fmt.Errorf("pattern %s has no group named '%s'", pattern, versionGroup)
	}

	data, err := os.ReadFile(v.deps.path(path))
	if err != nil {
		return step.None(), fmt.Errorf("failed to read %s: %w", path, err)
	}

	match := re.FindSubmatch(data)
	if match == nil {
		return step.None(), fmt.Errorf("%s not found in %s", pattern, path)
	}
	return step.String(string(match[group])), nil
}

// flit reads __version__ from <module>.py or <module>/__init__.py.
func (v versionSources) flit(_ context.Context, args registry.Args) (step.Value, error) {
	module := args.String("module")
	candidates := []string{
		module + ".py",
		filepath.Join(module, "__init__.py"),
	}
	for _, candidate := range candidates {
		data, err := os.ReadFile(v.deps.path(candidate))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return step.None(), fmt.Errorf("failed to read %s: %w", candidate, err)
		}
		match := dunderVersion.FindSubmatch(data)
		if match == nil {
			return step.None(), fmt.Errorf("__version__ not found in %s", candidate)
		}
		return step.String(string(match[1])), nil
	}
	return step.None(), fmt.Errorf("module %s not found: tried %s", module, strings.Join(candidates, ", "))
}

func (v versionSources) none(context.Context, registry.Args) (step.Value, error) {
	return step.String(""), nil
}

func (v versionSources) env(_ context.Context, args registry.Args) (step.Value, error) {
	name := args.String("variable")
	value, ok := v.deps.Env.Lookup(name)
	if !ok {
		return step.None(), fmt.Errorf("environment variable %s is not set", name)
	}
	return step.String(value), nil
}
