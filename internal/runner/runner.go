// Package runner executes workflows for trigger events.
//
// A [Runner] expands each job's matrix into instances, provisions the
// environment through built-in steps, and executes steps strictly in
// declared order with fail-fast semantics: the first failing step fails
// the job and every later step is skipped. Disabled steps never execute
// and never affect the outcome. A job's conclusion is success exactly
// when every executed step exited zero; the run's conclusion is success
// exactly when every job instance succeeded.
//
// Key types:
//   - [Runner] orchestrates runs and produces [history.Run] records
//   - [RuntimeLocator], [RecordWriter], [Progress]: injection points for
//     toolchain resolution, history persistence, and progress reporting
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"flowci/internal/config"
	"flowci/internal/history"
	"flowci/internal/shell"
	"flowci/internal/toolchain"
	"flowci/internal/trigger"
	"flowci/internal/workflow"
)

// ErrNoMatch indicates the event does not activate the workflow's
// triggers. Callers decide whether that is an error (CLI run against the
// wrong branch) or routine (webhook for an unwatched branch).
var ErrNoMatch = errors.New("event does not match workflow triggers")

// RuntimeLocator resolves a runtime name and version to an installed
// interpreter. The [toolchain.Locator] type implements this interface.
type RuntimeLocator interface {
	Resolve(name, version string) (toolchain.Runtime, error)
}

// RecordWriter persists run records as execution progresses. The
// [history.Store] type implements this interface.
type RecordWriter interface {
	Save(run *history.Run) error
}

// Progress receives execution events as a run advances. Implementations
// must tolerate concurrent calls when matrix instances run in parallel.
type Progress interface {
	JobStarted(job *history.Job)
	StepStarted(index, total int, step *history.Step)
	StepFinished(index, total int, step *history.Step)
	JobFinished(job *history.Job)
}

type nopProgress struct{}

func (nopProgress) JobStarted(*history.Job)              {}
func (nopProgress) StepStarted(int, int, *history.Step)  {}
func (nopProgress) StepFinished(int, int, *history.Step) {}
func (nopProgress) JobFinished(*history.Job)             {}

// Runner executes workflows.
//
// Runner uses dependency injection for testability: [shell.Executor] runs
// step commands, [RuntimeLocator] resolves interpreters, and the optional
// [RecordWriter] persists records. Use [NewRunner] to create an instance
// and [Runner.Run] to execute a workflow for an event.
type Runner struct {
	executor shell.Executor
	locator  RuntimeLocator
	cfg      *config.Config
	records  RecordWriter
	progress Progress
	clock    clockwork.Clock
}

// NewRunner creates a Runner with the required dependencies.
//
// The executor runs step commands and the locator resolves runtimes for
// setup-runtime steps. Records and progress reporting are not configured
// by default; use [Runner.SetRecordWriter] and [Runner.SetProgress].
func NewRunner(executor shell.Executor, locator RuntimeLocator, cfg *config.Config) *Runner {
	return &Runner{
		executor: executor,
		locator:  locator,
		cfg:      cfg,
		progress: nopProgress{},
		clock:    clockwork.NewRealClock(),
	}
}

// SetRecordWriter configures run record persistence. When set, the record
// is saved once with running status before execution and again with the
// final conclusion.
func (r *Runner) SetRecordWriter(w RecordWriter) {
	r.records = w
}

// SetProgress configures an optional progress receiver for step-by-step
// reporting, typically bridged to the terminal printer.
func (r *Runner) SetProgress(p Progress) {
	if p == nil {
		p = nopProgress{}
	}
	r.progress = p
}

// SetClock replaces the wall clock, for tests.
func (r *Runner) SetClock(c clockwork.Clock) {
	r.clock = c
}

// Run executes the workflow for one event and returns the run record.
//
// Every push matching the workflow's triggers produces exactly one run;
// each matrix combination of each job produces exactly one job instance
// within it. The returned error covers infrastructure problems (event
// mismatch, record persistence); execution failures are expressed in the
// record's status, not as errors.
func (r *Runner) Run(ctx context.Context, wf *workflow.Workflow, event *trigger.PushEvent) (*history.Run, error) {
	return r.RunWithID(ctx, wf, event, uuid.NewString())
}

// RunWithID executes like [Runner.Run] with a caller-chosen run ID, for
// callers that must advertise the ID before execution starts, such as the
// webhook server's accepted response.
func (r *Runner) RunWithID(ctx context.Context, wf *workflow.Workflow, event *trigger.PushEvent, id string) (*history.Run, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if !wf.On.Matches(event) {
		return nil, fmt.Errorf("%s to %s: %w", event.Type(), event.Branch(), ErrNoMatch)
	}

	run := &history.Run{
		ID:        id,
		Workflow:  wf.Name,
		Event:     string(event.Type()),
		Repo:      event.Repo,
		Branch:    event.Branch(),
		Commit:    event.After,
		Status:    history.StatusRunning,
		StartedAt: r.clock.Now().UTC(),
	}
	if err := r.save(run); err != nil {
		return nil, err
	}

	run.Status = history.StatusSuccess
	for _, job := range wf.Jobs {
		for _, inst := range r.runJob(ctx, wf, job, event, run.ID) {
			if inst.Status != history.StatusSuccess {
				run.Status = history.StatusFailed
			}
			run.Jobs = append(run.Jobs, inst)
		}
	}
	run.FinishedAt = r.clock.Now().UTC()

	if err := r.save(run); err != nil {
		return run, err
	}
	return run, nil
}

// runJob expands a job's matrix and executes one instance per combination,
// sequentially unless the strategy (or a config override) allows more.
func (r *Runner) runJob(ctx context.Context, wf *workflow.Workflow, job workflow.Job, event *trigger.PushEvent, runID string) []history.Job {
	combos := job.Strategy.Matrix.Combinations()

	parallel := job.Strategy.MaxParallel
	if r.cfg.Runner.MaxParallel > 0 {
		parallel = r.cfg.Runner.MaxParallel
	}

	if parallel <= 1 || len(combos) <= 1 {
		out := make([]history.Job, 0, len(combos))
		for _, combo := range combos {
			out = append(out, r.runInstance(ctx, wf, job, combo, event, runID))
		}
		return out
	}

	pool := pond.NewResultPool[history.Job](parallel)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	for _, combo := range combos {
		combo := combo // per-iteration copy; required while go.mod declares go < 1.22
		group.SubmitErr(func() (history.Job, error) {
			return r.runInstance(ctx, wf, job, combo, event, runID), nil
		})
	}

	// Instances never return task errors; Wait only fails when the
	// context is cancelled, leaving unstarted slots as zero values.
	results, err := group.Wait()
	out := make([]history.Job, 0, len(combos))
	for i, combo := range combos {
		if i < len(results) && results[i].Status != "" {
			out = append(out, results[i])
			continue
		}
		note := "cancelled before execution"
		if err != nil {
			note = err.Error()
		}
		out = append(out, history.Job{
			Name:    job.Name,
			Variant: combo.String(),
			Slug:    instanceSlug(job.Name, combo),
			Status:  history.StatusFailed,
			Note:    note,
		})
	}
	return out
}

func (r *Runner) save(run *history.Run) error {
	if r.records == nil {
		return nil
	}
	if err := r.records.Save(run); err != nil {
		return fmt.Errorf("failed to persist run record: %w", err)
	}
	return nil
}
