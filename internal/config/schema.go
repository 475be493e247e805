package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// schemaRoot is the definition every root table is unified with.
const schemaRoot = "#Config"

// validate checks the raw root table against the embedded schema.
func validate(table map[string]any, source string) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return fmt.Errorf("internal error: failed to compile schema: %w", schema.Err())
	}
	def := schema.LookupPath(cue.ParsePath(schemaRoot))
	if def.Err() != nil {
		return fmt.Errorf("internal error: schema definition %s not found: %w", schemaRoot, def.Err())
	}

	data := ctx.Encode(table)
	if data.Err() != nil {
		return formatSchemaError(data.Err(), source)
	}

	if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return formatSchemaError(err, source)
	}
	return nil
}

// formatSchemaError renders CUE errors as "<source>: <path>: <message>",
// one line per error.
func formatSchemaError(err error, source string) error {
	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, source, err)
	}

	lines := make([]string, 0, len(cueErrs))
	for _, e := range cueErrs {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		if path != "" {
			lines = append(lines, path+": "+msg)
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, source, lines[0])
	}
	return fmt.Errorf("%w: %s:\n  %s", ErrInvalidConfig, source, strings.Join(lines, "\n  "))
}

// formatPath turns ["actions", "0", "run"] into "actions[0].run".
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
