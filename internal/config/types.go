// Package config provides the release configuration model, the readers that
// load it from TOML and YAML files, and the tool's own settings.
//
// A release configuration names one version source, an ordered list of
// guards and an ordered list of actions:
//
//	[tool.carthorse]
//	version-from = "poetry"
//	tag-format = "v{version}"
//	when = ["version-not-tagged"]
//	actions = [
//	  { run = "poetry publish --build" },
//	  { name = "create-tag", update = true },
//	]
//
// The file format is chosen by extension: ".toml" files are read from the
// tool.carthorse table, ".yml" and ".yaml" files from the carthorse key.
// The raw table is checked against an embedded CUE schema before its steps
// are normalized.
//
// Key types:
//   - [Config] is the normalized, immutable configuration for one run
//   - [Format] identifies a file format and where its root table lives
//   - [Settings] and [Loader] hold the tool's own settings (flags and
//     CARTHORSE_ environment variables), loaded with Viper
//
// All loading failures wrap [ErrInvalidConfig].
package config

import (
	"errors"
	"fmt"

	"github.com/cjw296/carthorse/internal/step"
	"github.com/cjw296/carthorse/internal/tagformat"
)

// Configuration keys within the root table.
const (
	KeyVersionFrom = "version-from"
	KeyTagFormat   = "tag-format"
	KeyWhen        = "when"
	KeyActions     = "actions"
)

// ErrInvalidConfig is wrapped by every configuration loading failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the fully parsed and normalized configuration for one run.
//
// It is built once per invocation by [Load] or [FromTable] and is not
// modified afterwards.
type Config struct {
	// VersionFrom is the single version source step.
	VersionFrom step.Step

	// When lists guard steps in evaluation order. Empty means always proceed.
	When []step.Step

	// Actions lists action steps in execution order. Empty is a no-op run.
	Actions []step.Step

	// TagFormat is the tag template. Defaults to [tagformat.Default].
	TagFormat string
}

// FromTable builds a [Config] from the decoded root table
// (the contents of tool.carthorse or carthorse).
func FromTable(table map[string]any) (*Config, error) {
	rawVersion, ok := table[KeyVersionFrom]
	if !ok {
		return nil, fmt.Errorf("%w: missing required key %q", ErrInvalidConfig, KeyVersionFrom)
	}
	versionFrom, err := step.Normalize(rawVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, KeyVersionFrom, err)
	}

	cfg := &Config{
		VersionFrom: versionFrom,
		TagFormat:   tagformat.Default,
	}

	if raw, ok := table[KeyTagFormat]; ok {
		format, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidConfig, KeyTagFormat, raw)
		}
		cfg.TagFormat = format
	}

	if cfg.When, err = stepList(table, KeyWhen); err != nil {
		return nil, err
	}
	if cfg.Actions, err = stepList(table, KeyActions); err != nil {
		return nil, err
	}

	return cfg, nil
}

func stepList(table map[string]any, key string) ([]step.Step, error) {
	raw, ok := table[key]
	if !ok || raw == nil {
		return []step.Step{}, nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list, got %T", ErrInvalidConfig, key, raw)
	}
	steps, err := step.NormalizeList(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	return steps, nil
}
