// Package runenv provides the run context shared by every step: an
// environment-style variable map.
//
// The engine writes [TagVar] once, after the version is resolved and before
// any guard or action runs. Capabilities, and any process they spawn, read
// it from here. Only one goroutine drives a run, so no locking is done.
package runenv

import (
	"os"
	"sort"
)

// TagVar is the variable the formatted tag is published under.
const TagVar = "TAG"

// VersionVar is the variable the "env" version source reads by default.
const VersionVar = "VERSION"

// Env is a mutable variable map.
type Env interface {
	// Lookup returns the value of key and whether it is set.
	Lookup(key string) (string, bool)

	// Set assigns value to key.
	Set(key, value string) error

	// Environ returns the map as "KEY=value" pairs, suitable for a child
	// process.
	Environ() []string
}

// Expand replaces ${var} and $var in s using env. Unset variables expand to
// the empty string.
func Expand(env Env, s string) string {
	return os.Expand(s, func(key string) string {
		v, _ := env.Lookup(key)
		return v
	})
}

type processEnv struct{}

// OS returns an [Env] backed by the process environment.
func OS() Env { return processEnv{} }

func (processEnv) Lookup(key string) (string, bool) { return os.LookupEnv(key) }

func (processEnv) Set(key, value string) error { return os.Setenv(key, value) }

func (processEnv) Environ() []string { return os.Environ() }

// Map is an in-memory [Env]. It isolates tests from the process environment.
type Map struct {
	vars map[string]string
}

// NewMap creates a [Map] holding a copy of vars.
func NewMap(vars map[string]string) *Map {
	m := &Map{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		m.vars[k] = v
	}
	return m
}

func (m *Map) Lookup(key string) (string, bool) {
	v, ok := m.vars[key]
	return v, ok
}

func (m *Map) Set(key, value string) error {
	m.vars[key] = value
	return nil
}

// Environ returns the pairs sorted by key.
func (m *Map) Environ() []string {
	keys := make([]string, 0, len(m.vars))
	for k := range m.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + m.vars[k]
	}
	return pairs
}
