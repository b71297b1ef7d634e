// Package workflow models CI workflow definitions: the trigger clause, jobs
// with their matrix strategy, and the ordered steps each job executes.
//
// A workflow file is YAML:
//
//	name: ci
//	on: [push]
//	jobs:
//	  - name: test
//	    strategy:
//	      matrix:
//	        python: ["3.7"]
//	    steps:
//	      - uses: checkout
//	      - name: Set up Python
//	        uses: setup-runtime
//	        with: {runtime: python, version: "{{.Matrix.python}}"}
//	      - name: Install dependencies
//	        uses: install-deps
//	        with: {manifest: requirements.txt, extra: "ray[rllib]==1.0.0"}
//	      - name: Test
//	        run: pytest
//
// Key types:
//   - [Workflow] - root definition with trigger filter and jobs
//   - [Job] - a named unit expanded into one instance per matrix combination
//   - [Step] - one sequential unit of work, either a built-in or a script
//   - [Matrix] - named axes expanded to the cartesian product
//
// Parsing is strict (unknown fields are rejected) and [Workflow.Validate]
// reports definition errors before anything runs.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"flowci/internal/trigger"
)

// Built-in step names. A step invokes a built-in with "uses"; anything else
// it wants to do goes through "run".
const (
	// UsesCheckout acquires the pushed source into the run workspace.
	UsesCheckout = "checkout"

	// UsesSetupRuntime resolves an interpreter of the requested version and
	// exports it to later steps. With keys: runtime (e.g. "python"),
	// version (e.g. "3.7").
	UsesSetupRuntime = "setup-runtime"

	// UsesInstallDeps validates the dependency manifest and installs it,
	// plus one optional pinned extra package. With keys: manifest (path,
	// default requirements.txt), extra (pinned spec), upgrade-installer
	// ("false" to skip the installer self-upgrade).
	UsesInstallDeps = "install-deps"
)

// builtins is the set of step names accepted in a "uses" clause.
var builtins = map[string]bool{
	UsesCheckout:     true,
	UsesSetupRuntime: true,
	UsesInstallDeps:  true,
}

// IsBuiltin reports whether name is a built-in step the runner implements.
func IsBuiltin(name string) bool {
	return builtins[name]
}

// Workflow is the root of a parsed workflow definition.
type Workflow struct {
	// Name identifies the workflow in output and run records.
	Name string `yaml:"name"`

	// On declares the events that activate the workflow.
	On trigger.Filter `yaml:"on"`

	// Env is exported to every step of every job.
	Env map[string]string `yaml:"env,omitempty"`

	// Jobs are expanded and executed in declared order.
	Jobs []Job `yaml:"jobs"`
}

// Job is a named unit of execution. The matrix strategy expands it into one
// instance per combination; each instance runs the same steps sequentially.
type Job struct {
	Name     string            `yaml:"name"`
	Strategy Strategy          `yaml:"strategy,omitempty"`
	Env      map[string]string `yaml:"env,omitempty"`
	Steps    []Step            `yaml:"steps"`
}

// Strategy controls matrix expansion for a job.
type Strategy struct {
	// Matrix maps axis names to their values. Absent matrix means the job
	// runs exactly once.
	Matrix Matrix `yaml:"matrix,omitempty"`

	// MaxParallel bounds how many instances run concurrently. Zero or one
	// means sequential execution.
	MaxParallel int `yaml:"max-parallel,omitempty"`
}

// Step is one unit of work inside a job. Exactly one of Uses or Run must be
// set: Uses invokes a built-in, Run executes a shell script.
type Step struct {
	// Name labels the step in output. Optional; [Step.Label] falls back to
	// the built-in name or the script's first line.
	Name string `yaml:"name,omitempty"`

	// Uses names a built-in step (checkout, setup-runtime, install-deps).
	Uses string `yaml:"uses,omitempty"`

	// Run is a shell script executed with sh -c.
	Run string `yaml:"run,omitempty"`

	// With carries parameters for built-in steps. Values support template
	// expansion.
	With map[string]string `yaml:"with,omitempty"`

	// Env adds step-scoped environment variables.
	Env map[string]string `yaml:"env,omitempty"`

	// Disabled marks a step that is deliberately not executed. The runner
	// reports it as skipped; it never affects the job outcome.
	Disabled bool `yaml:"disabled,omitempty"`

	// Note documents why a disabled step is kept in the definition, e.g.
	// "skipped until the lint findings are fixed".
	Note string `yaml:"note,omitempty"`

	// Timeout overrides the configured default step timeout.
	Timeout Duration `yaml:"timeout,omitempty"`
}

// Label returns the display name for a step: the explicit name, the built-in
// name, or the first line of the script.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Uses != "" {
		return s.Uses
	}
	line := s.Run
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if len(line) > 60 {
		line = line[:57] + "..."
	}
	return line
}

// Duration wraps time.Duration so workflow files can write "90s" or "5m".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back to its string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
