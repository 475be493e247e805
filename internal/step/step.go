// Package step defines the canonical unit of configured work and the
// normalizer that produces it from user-authored configuration entries.
//
// A configuration entry may be written three ways:
//
//	"version-not-tagged"                      # bare name
//	{ run = "echo $TAG" }                     # name with one argument
//	{ name = "create-tag", update = true }    # explicit name with keywords
//
// [Normalize] turns each of these into the same [Step] record. Arguments are
// carried as [Value], a small tagged union, so capabilities receive typed
// values rather than whatever the file decoder produced.
//
// Key types:
//   - [Step] is the normalized record: a name, at most one positional
//     argument, and keyword arguments
//   - [Value] is the argument and result type shared with the registry
//   - [IsTruthy] is the truthiness contract used to interpret guard results
package step

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NameKey is the table key that names a step explicitly.
const NameKey = "name"

// ErrInvalidStep is the sentinel wrapped by every normalization failure.
// It is a configuration error: the run must not start.
var ErrInvalidStep = errors.New("invalid step")

// Step is a single configured unit of work.
//
// Name selects a capability within a registry group. Args holds the optional
// single positional argument of the shorthand form; Kwargs holds keyword
// arguments. A Step is immutable once normalized.
type Step struct {
	// Name is the user-facing capability name, e.g. "create-tag" or "setup.py".
	Name string

	// Args is empty or holds exactly one value.
	Args []Value

	// Kwargs maps keyword names to values. Never nil after [Normalize].
	Kwargs map[string]Value
}

// New builds a Step with no arguments.
func New(name string) Step {
	return Step{Name: name, Kwargs: map[string]Value{}}
}

// String renders the step the way it appears in announcements,
// e.g. `run("echo hi")` or `create-tag(update=true)`.
func (s Step) String() string {
	parts := make([]string, 0, len(s.Args)+len(s.Kwargs))
	for _, a := range s.Args {
		parts = append(parts, fmt.Sprintf("%q", a.String()))
	}
	keys := make([]string, 0, len(s.Kwargs))
	for k := range s.Kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+s.Kwargs[k].String())
	}
	return s.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Normalize converts one raw configuration entry into a [Step].
//
// Forms, in order of precedence:
//  1. a string is the name, with no arguments
//  2. a table containing "name": that value is the name and every other
//     entry becomes a keyword argument
//  3. a table with exactly one key: the key is the name; a table value
//     supplies keyword arguments, any other value is the single positional
//     argument
//
// A table with several keys and no "name" is ambiguous and rejected. The raw
// table is never modified.
func Normalize(raw any) (Step, error) {
	switch entry := raw.(type) {
	case string:
		if entry == "" {
			return Step{}, fmt.Errorf("%w: empty name", ErrInvalidStep)
		}
		return New(entry), nil

	case map[string]any:
		return normalizeTable(entry)

	case map[any]any:
		table := make(map[string]any, len(entry))
		for k, v := range entry {
			key, ok := k.(string)
			if !ok {
				return Step{}, fmt.Errorf("%w: non-string key %v", ErrInvalidStep, k)
			}
			table[key] = v
		}
		return normalizeTable(table)

	default:
		return Step{}, fmt.Errorf("%w: expected a name or a table, got %T", ErrInvalidStep, raw)
	}
}

func normalizeTable(entry map[string]any) (Step, error) {
	if rawName, ok := entry[NameKey]; ok {
		name, ok := rawName.(string)
		if !ok || name == "" {
			return Step{}, fmt.Errorf("%w: %q must be a non-empty string", ErrInvalidStep, NameKey)
		}
		kwargs := make(map[string]Value, len(entry)-1)
		for k, raw := range entry {
			if k == NameKey {
				continue
			}
			v, err := FromAny(raw)
			if err != nil {
				return Step{}, fmt.Errorf("%w: %s: %s: %v", ErrInvalidStep, name, k, err)
			}
			kwargs[k] = v
		}
		return Step{Name: name, Kwargs: kwargs}, nil
	}

	switch len(entry) {
	case 0:
		return Step{}, fmt.Errorf("%w: empty table", ErrInvalidStep)
	case 1:
	default:
		keys := make([]string, 0, len(entry))
		for k := range entry {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return Step{}, fmt.Errorf("%w: table has keys %s but no %q", ErrInvalidStep, strings.Join(keys, ", "), NameKey)
	}

	var name string
	var raw any
	for k, v := range entry {
		name, raw = k, v
	}
	if name == "" {
		return Step{}, fmt.Errorf("%w: empty name", ErrInvalidStep)
	}

	arg, err := FromAny(raw)
	if err != nil {
		return Step{}, fmt.Errorf("%w: %s: %v", ErrInvalidStep, name, err)
	}
	if table, ok := arg.AsTable(); ok {
		return Step{Name: name, Kwargs: table}, nil
	}
	return Step{Name: name, Args: []Value{arg}, Kwargs: map[string]Value{}}, nil
}

// NormalizeList normalizes every entry of a configured step list, reporting
// the index of the first failing entry.
func NormalizeList(raw []any) ([]Step, error) {
	steps := make([]Step, 0, len(raw))
	for i, entry := range raw {
		s, err := Normalize(entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		steps = append(steps, s)
	}
	return steps, nil
}
