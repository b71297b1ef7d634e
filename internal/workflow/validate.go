package workflow

import (
	"fmt"
	"regexp"
)

// axisName restricts matrix axis names to what can appear in template data
// and FLOWCI_MATRIX_* environment variables.
var axisName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Validate checks a parsed workflow for definition errors.
//
// Every error names the offending job or step so the operator can fix the
// file without reading runner output. Validation covers structure only; it
// does not touch the filesystem, so a workflow referencing a manifest that
// does not exist yet still validates and the install step fails at run
// time instead.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workflow name is required")
	}
	if err := w.On.Validate(); err != nil {
		return err
	}
	if len(w.Jobs) == 0 {
		return fmt.Errorf("workflow %q: at least one job is required", w.Name)
	}

	seen := make(map[string]bool, len(w.Jobs))
	for i, job := range w.Jobs {
		if job.Name == "" {
			return fmt.Errorf("job %d: name is required", i+1)
		}
		if seen[job.Name] {
			return fmt.Errorf("job %q: duplicate job name", job.Name)
		}
		seen[job.Name] = true

		if err := job.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (j Job) validate() error {
	if err := j.Strategy.validate(j.Name); err != nil {
		return err
	}
	if len(j.Steps) == 0 {
		return fmt.Errorf("job %q: at least one step is required", j.Name)
	}
	for i, step := range j.Steps {
		if err := step.validate(j.Name, i+1); err != nil {
			return err
		}
	}
	return nil
}

func (s Strategy) validate(jobName string) error {
	if s.MaxParallel < 0 {
		return fmt.Errorf("job %q: max-parallel must be >= 0", jobName)
	}
	for axis, values := range s.Matrix {
		if !axisName.MatchString(axis) {
			return fmt.Errorf("job %q: invalid matrix axis name %q", jobName, axis)
		}
		if len(values) == 0 {
			return fmt.Errorf("job %q: matrix axis %q has no values", jobName, axis)
		}
		for _, v := range values {
			if v == "" {
				return fmt.Errorf("job %q: matrix axis %q has an empty value", jobName, axis)
			}
		}
	}
	return nil
}

func (s Step) validate(jobName string, pos int) error {
	switch {
	case s.Uses == "" && s.Run == "":
		return fmt.Errorf("job %q step %d: either uses or run is required", jobName, pos)
	case s.Uses != "" && s.Run != "":
		return fmt.Errorf("job %q step %d: uses and run are mutually exclusive", jobName, pos)
	case s.Uses != "" && !IsBuiltin(s.Uses):
		return fmt.Errorf("job %q step %d: unknown built-in step %q", jobName, pos, s.Uses)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("job %q step %d: timeout must be >= 0", jobName, pos)
	}
	return nil
}
