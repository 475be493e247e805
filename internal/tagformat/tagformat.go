// Package tagformat renders the tag-format template into a tag.
//
// Templates use brace placeholders:
//
//	v{version}              -> v1.2.3
//	release-{now:%Y%m%d}    -> release-20240131
//	{{literal}}-{version}   -> {literal}-1.2.3
//
// {now} without a format renders as "2006-01-02 15:04:05.000000". A format
// after the colon is an strftime pattern.
package tagformat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// Default is the template used when the configuration does not set one.
const Default = "v{version}"

// nowLayout is how {now} renders without a format.
const nowLayout = "2006-01-02 15:04:05.000000"

// ErrInvalidTemplate is wrapped by every formatting failure.
var ErrInvalidTemplate = errors.New("invalid tag format")

// Vars are the substitution variables available to a template.
type Vars struct {
	Version string
	Now     time.Time
}

// Format renders template with vars.
func Format(template string, vars Vars) (string, error) {
	var out strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				out.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: %q: unterminated '{'", ErrInvalidTemplate, template)
			}
			field := template[i+1 : i+1+end]
			rendered, err := render(field, vars)
			if err != nil {
				return "", fmt.Errorf("%w: %q: %v", ErrInvalidTemplate, template, err)
			}
			out.WriteString(rendered)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				out.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: %q: single '}'", ErrInvalidTemplate, template)
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}

func render(field string, vars Vars) (string, error) {
	name, spec, hasSpec := strings.Cut(field, ":")
	switch name {
	case "version":
		if hasSpec {
			return "", fmt.Errorf("format spec %q not supported for version", spec)
		}
		return vars.Version, nil
	case "now":
		if !hasSpec || spec == "" {
			return vars.Now.Format(nowLayout), nil
		}
		return strftime.Format(spec, vars.Now), nil
	case "":
		return "", errors.New("empty placeholder")
	default:
		return "", fmt.Errorf("unknown placeholder %q", name)
	}
}
