package workflow

import (
	"fmt"
	"strings"
	"text/template"

	"flowci/internal/trigger"
)

// TemplateData is the data available to template expressions in workflow
// values. Fields are accessible in "with", "env", and "run" strings using
// {{.FieldName}} syntax, e.g. {{.Matrix.python}} or {{.Event.Ref}}.
type TemplateData struct {
	// Matrix holds the current combination's axis values.
	Matrix Combination

	// Event is the push event that triggered the run.
	Event *trigger.PushEvent

	// Workspace is the absolute path of the instance's working directory.
	Workspace string

	// Runtime is the interpreter path exported by setup-runtime, empty
	// until that step has run.
	Runtime string
}

// Expand applies Go template expansion to a workflow value.
//
// Unknown map keys (a matrix axis that does not exist) and malformed
// templates are errors rather than silent empty strings, so a typoed axis
// name fails the step instead of producing a command with a hole in it.
func Expand(value string, data TemplateData) (string, error) {
	if !strings.Contains(value, "{{") {
		return value, nil
	}

	tmpl, err := template.New("value").Option("missingkey=error").Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid template %q: %w", value, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", value, err)
	}
	return sb.String(), nil
}

// ExpandAll expands every value of a with/env map, returning a new map.
func ExpandAll(values map[string]string, data TemplateData) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		expanded, err := Expand(v, data)
		if err != nil {
			return nil, err
		}
		out[k] = expanded
	}
	return out, nil
}
