package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies a configuration file format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat is returned for files whose extension is not
// recognised.
var ErrUnsupportedFormat = errors.New("unsupported configuration format")

// Root returns the path of the root table within a document of this format.
func (f Format) Root() []string {
	switch f {
	case FormatTOML:
		return []string{"tool", "carthorse"}
	case FormatYAML:
		return []string{"carthorse"}
	default:
		return nil
	}
}

// FormatFor picks the format for path from its extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yml", ".yaml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrInvalidConfig, path, err)
	}

	return Parse(data, format, path)
}

// Parse decodes data in the given format, validates it and returns the
// normalized configuration. source names the document in error messages.
func Parse(data []byte, format Format, source string) (*Config, error) {
	var doc map[string]any
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrInvalidConfig, source, err)
	}

	table, err := rootTable(doc, format.Root())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, source, err)
	}

	if err := validate(table, source); err != nil {
		return nil, err
	}

	return FromTable(table)
}

func rootTable(doc map[string]any, path []string) (map[string]any, error) {
	current := doc
	for i, key := range path {
		raw, ok := current[key]
		if !ok {
			return nil, fmt.Errorf("missing %s table", strings.Join(path[:i+1], "."))
		}
		next, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s must be a table, got %T", strings.Join(path[:i+1], "."), raw)
		}
		current = next
	}
	return current, nil
}
