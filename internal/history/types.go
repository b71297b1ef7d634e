// Package history persists run records and step logs.
//
// Each run gets a directory under the store root holding a run.yaml record
// and one log file per executed step. Records are written atomically so a
// concurrent reader never sees a partial document.
//
// Key types:
//   - [Run], [Job], [Step]: the persisted record of one workflow run
//   - [Store]: reads and writes records under a directory
package history

import "time"

// Status is the outcome of a run, job, or step.
type Status string

const (
	// StatusRunning marks a record whose execution has not finished.
	StatusRunning Status = "running"

	// StatusSuccess marks a completed execution with every exit code zero.
	StatusSuccess Status = "success"

	// StatusFailed marks an execution stopped by a non-zero exit code or
	// a provisioning error.
	StatusFailed Status = "failed"

	// StatusSkipped marks a step that was never executed, either because
	// it is disabled or because an earlier step failed.
	StatusSkipped Status = "skipped"
)

// IsValid reports whether s is one of the defined statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusRunning, StatusSuccess, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// Run is the persisted record of one workflow run.
type Run struct {
	ID         string    `yaml:"id" json:"id"`
	Workflow   string    `yaml:"workflow" json:"workflow"`
	Event      string    `yaml:"event" json:"event"`
	Repo       string    `yaml:"repo,omitempty" json:"repo,omitempty"`
	Branch     string    `yaml:"branch,omitempty" json:"branch,omitempty"`
	Commit     string    `yaml:"commit,omitempty" json:"commit,omitempty"`
	Status     Status    `yaml:"status" json:"status"`
	StartedAt  time.Time `yaml:"started_at" json:"started_at"`
	FinishedAt time.Time `yaml:"finished_at,omitempty" json:"finished_at,omitempty"`
	Jobs       []Job     `yaml:"jobs,omitempty" json:"jobs,omitempty"`
}

// ShortID returns the first eight characters of the run ID for display.
func (r *Run) ShortID() string {
	if len(r.ID) > 8 {
		return r.ID[:8]
	}
	return r.ID
}

// Duration returns the wall-clock time between start and finish, zero for
// an unfinished run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Job is the record of one job instance within a run. Matrix jobs produce
// one record per combination.
type Job struct {
	// Name is the job name from the workflow definition.
	Name string `yaml:"name" json:"name"`

	// Variant names the matrix combination, e.g. "python=3.7". Empty for
	// non-matrix jobs.
	Variant string `yaml:"variant,omitempty" json:"variant,omitempty"`

	// Slug is the filesystem-safe identifier log files are stored under,
	// e.g. "test-python-3.7".
	Slug string `yaml:"slug" json:"slug"`

	Status     Status    `yaml:"status" json:"status"`
	StartedAt  time.Time `yaml:"started_at" json:"started_at"`
	FinishedAt time.Time `yaml:"finished_at,omitempty" json:"finished_at,omitempty"`

	// Note explains why a job failed before its first step ran, e.g. a
	// workspace that could not be created.
	Note string `yaml:"note,omitempty" json:"note,omitempty"`

	Steps []Step `yaml:"steps" json:"steps"`
}

// Duration returns the wall-clock time between start and finish, zero for
// an unfinished job.
func (j *Job) Duration() time.Duration {
	if j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// Step is the record of one step within a job instance.
type Step struct {
	Name     string `yaml:"name" json:"name"`
	Status   Status `yaml:"status" json:"status"`
	ExitCode int    `yaml:"exit_code" json:"exit_code"`

	// Note carries the skip reason for skipped steps and the error text
	// for steps failed by something other than an exit code.
	Note string `yaml:"note,omitempty" json:"note,omitempty"`

	// Duration is the step's wall-clock time in nanoseconds.
	Duration time.Duration `yaml:"duration,omitempty" json:"duration,omitempty"`

	// LogPath is the step's log file relative to the store root, set by
	// [Store.Save] for steps with captured output.
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty"`

	// Output is the captured command output. It is persisted to LogPath,
	// not embedded in the record.
	Output string `yaml:"-" json:"-"`
}
