// Package registry holds the pluggable capabilities a run dispatches to.
//
// Capabilities live in three independent groups: version sources
// ([VersionFrom]), guard predicates ([When]) and actions ([Actions]). Each
// is keyed by its user-facing name. The registry is populated once at start
// up and is read-only while a run is in progress, so one registry can serve
// several sequential runs.
//
// Lookup replaces every "-" in a step name with "_", so "version-not-tagged"
// and "version_not_tagged" select the same capability. Dots are kept as is,
// which lets names such as "setup.py" work unchanged.
//
// Key types:
//   - [Registry] - the three name-keyed groups
//   - [Capability] - a named function with declared parameters
//   - [Args] - arguments bound by [Capability.Bind]
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cjw296/carthorse/internal/step"
)

// Group names one of the three capability groups. The value is the
// configuration key the group is read from.
type Group string

const (
	// VersionFrom holds version sources.
	VersionFrom Group = "version-from"

	// When holds guard predicates.
	When Group = "when"

	// Actions holds actions.
	Actions Group = "actions"
)

// Groups lists every group in execution order.
var Groups = []Group{VersionFrom, When, Actions}

// Sentinel errors for capability lookup and invocation. Both are
// configuration errors: fatal, and never retried.
var (
	// ErrUnknownCapability indicates no capability is registered under a
	// step's name in the requested group.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrBadArguments indicates a step's arguments do not match the
	// capability's declared parameters.
	ErrBadArguments = errors.New("bad arguments")
)

// UnknownCapabilityError reports a failed lookup. It matches
// [ErrUnknownCapability] with errors.Is.
type UnknownCapabilityError struct {
	Group Group
	Name  string
}

func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("unknown capability %q in %s", e.Name, e.Group)
}

func (e *UnknownCapabilityError) Unwrap() error { return ErrUnknownCapability }

// Func is the body of a capability. It receives arguments already bound to
// the declared parameters, with defaults filled in.
type Func func(ctx context.Context, args Args) (step.Value, error)

// Param declares one parameter of a capability.
type Param struct {
	// Name is the keyword the parameter is bound to.
	Name string

	// Required parameters have no default.
	Required bool

	// Default is used when an optional parameter is not supplied.
	Default step.Value
}

// Required declares a parameter that must be supplied.
func Required(name string) Param {
	return Param{Name: name, Required: true}
}

// Optional declares a parameter with a default value.
func Optional(name string, def step.Value) Param {
	return Param{Name: name, Default: def}
}

// Capability is a named, callable unit registered in one group.
type Capability struct {
	// Name is the user-facing name, e.g. "create-tag".
	Name string

	// Params are the declared parameters in positional order.
	Params []Param

	// Fn is invoked with the bound arguments.
	Fn Func
}

// Registry maps names to capabilities within each [Group].
//
// Create with [New] and populate with [Registry.Register] before the first
// run. A Registry must not be mutated while a run is using it.
type Registry struct {
	groups map[Group]map[string]*Capability
}

// New creates an empty [Registry] with all three groups.
func New() *Registry {
	r := &Registry{groups: make(map[Group]map[string]*Capability, len(Groups))}
	for _, g := range Groups {
		r.groups[g] = make(map[string]*Capability)
	}
	return r
}

// Key returns the lookup key for a user-facing name.
func Key(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// Register adds c to group g.
//
// It panics if the group is unknown or the key is already taken: both are
// programming errors in whatever populates the registry at start up.
func (r *Registry) Register(g Group, c Capability) {
	caps, ok := r.groups[g]
	if !ok {
		panic(fmt.Sprintf("registry: unknown group %q", g))
	}
	if c.Fn == nil {
		panic(fmt.Sprintf("registry: capability %q in %s has no function", c.Name, g))
	}
	key := Key(c.Name)
	if _, exists := caps[key]; exists {
		panic(fmt.Sprintf("registry: capability %q already registered in %s", c.Name, g))
	}
	caps[key] = &c
}

// Resolve returns the capability that s names within group g.
//
// Returns an [*UnknownCapabilityError] when nothing is registered under the
// step's name.
func (r *Registry) Resolve(g Group, s step.Step) (*Capability, error) {
	c, ok := r.groups[g][Key(s.Name)]
	if !ok {
		return nil, &UnknownCapabilityError{Group: g, Name: s.Name}
	}
	return c, nil
}

// Names returns the user-facing names registered in g, sorted.
func (r *Registry) Names(g Group) []string {
	names := make([]string, 0, len(r.groups[g]))
	for _, c := range r.groups[g] {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// Invoke binds s's arguments to c's parameters and calls it.
//
// Binding failures are returned as [*ArgumentError]. Errors from the
// capability itself are returned unchanged.
func Invoke(ctx context.Context, c *Capability, s step.Step) (step.Value, error) {
	args, err := c.Bind(s)
	if err != nil {
		return step.None(), err
	}
	return c.Fn(ctx, args)
}
