package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cjw296/carthorse/internal/step"
)

// ArgumentError reports a calling-convention mismatch between a step and the
// capability it names. It matches [ErrBadArguments] with errors.Is.
type ArgumentError struct {
	Capability string
	Reason     string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Capability, e.Reason)
}

func (e *ArgumentError) Unwrap() error { return ErrBadArguments }

// Args are a step's arguments bound to a capability's parameters. Every
// declared parameter is present after [Capability.Bind].
type Args map[string]step.Value

// Get returns the named argument, or none if it was not declared.
func (a Args) Get(name string) step.Value {
	return a[name]
}

// String returns the named argument as text.
func (a Args) String(name string) string {
	return a[name].String()
}

// Bool returns the named argument's truthiness.
func (a Args) Bool(name string) bool {
	return step.IsTruthy(a[name])
}

// Bind maps s's arguments onto the declared parameters.
//
// The positional argument, if any, binds to the first parameter. Keyword
// arguments bind by exact name. Too many positionals, an undeclared keyword,
// a keyword that repeats the positional, or a missing required parameter is
// an [*ArgumentError].
func (c *Capability) Bind(s step.Step) (Args, error) {
	if len(s.Args) > len(c.Params) {
		return nil, &ArgumentError{
			Capability: c.Name,
			Reason:     fmt.Sprintf("takes %d positional argument(s) but %d given", len(c.Params), len(s.Args)),
		}
	}

	args := make(Args, len(c.Params))
	for i, v := range s.Args {
		args[c.Params[i].Name] = v
	}

	declared := make(map[string]bool, len(c.Params))
	for _, p := range c.Params {
		declared[p.Name] = true
	}

	keys := make([]string, 0, len(s.Kwargs))
	for k := range s.Kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var unknown []string
	for _, k := range keys {
		if !declared[k] {
			unknown = append(unknown, k)
			continue
		}
		if _, dup := args[k]; dup {
			return nil, &ArgumentError{
				Capability: c.Name,
				Reason:     fmt.Sprintf("got multiple values for argument %q", k),
			}
		}
		args[k] = s.Kwargs[k]
	}
	if len(unknown) > 0 {
		return nil, &ArgumentError{
			Capability: c.Name,
			Reason:     fmt.Sprintf("unexpected keyword argument(s): %s", strings.Join(unknown, ", ")),
		}
	}

	for _, p := range c.Params {
		if _, ok := args[p.Name]; ok {
			continue
		}
		if p.Required {
			return nil, &ArgumentError{
				Capability: c.Name,
				Reason:     fmt.Sprintf("missing required argument %q", p.Name),
			}
		}
		args[p.Name] = p.Default
	}

	return args, nil
}
