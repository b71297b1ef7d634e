package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"flowci/internal/history"
	"flowci/internal/manifest"
	"flowci/internal/shell"
	"flowci/internal/toolchain"
	"flowci/internal/trigger"
	"flowci/internal/workflow"
)

// instance carries the mutable state of one running job instance.
type instance struct {
	runner    *Runner
	event     *trigger.PushEvent
	workspace string

	// data is the template context for with/env/run values. Runtime is
	// filled in by setup-runtime.
	data workflow.TemplateData

	// env is exported to every remaining step, later entries winning on
	// duplicate keys. setup-runtime appends the interpreter's PATH here.
	env []string

	// runtime is the interpreter resolved by setup-runtime, zero until
	// that step has succeeded.
	runtime toolchain.Runtime
}

// runInstance executes one job instance and returns its record.
//
// Steps run strictly in declared order. The first failing step fails the
// instance; every later step is recorded as skipped. Disabled steps are
// recorded as skipped with their note and never execute.
func (r *Runner) runInstance(ctx context.Context, wf *workflow.Workflow, job workflow.Job, combo workflow.Combination, event *trigger.PushEvent, runID string) history.Job {
	rec := history.Job{
		Name:      job.Name,
		Slug:      instanceSlug(job.Name, combo),
		Status:    history.StatusRunning,
		StartedAt: r.clock.Now().UTC(),
	}
	if len(combo) > 0 {
		rec.Variant = combo.String()
	}
	r.progress.JobStarted(&rec)

	finish := func(status history.Status) history.Job {
		rec.Status = status
		rec.FinishedAt = r.clock.Now().UTC()
		r.progress.JobFinished(&rec)
		return rec
	}

	workspace, cleanup, err := r.prepareWorkspace(runID, rec.Slug)
	if err != nil {
		rec.Note = err.Error()
		return finish(history.StatusFailed)
	}
	defer cleanup()

	in := &instance{
		runner:    r,
		event:     event,
		workspace: workspace,
		data: workflow.TemplateData{
			Matrix:    combo,
			Event:     event,
			Workspace: workspace,
		},
	}
	if err := in.composeEnv(wf.Env, job.Env); err != nil {
		rec.Note = err.Error()
		return finish(history.StatusFailed)
	}

	failed := false
	total := len(job.Steps)
	for i, step := range job.Steps {
		sr := history.Step{Name: step.Label(), Status: history.StatusRunning}
		r.progress.StepStarted(i+1, total, &sr)

		switch {
		case step.Disabled:
			sr.Status = history.StatusSkipped
			sr.Note = step.Note
			if sr.Note == "" {
				sr.Note = "disabled in workflow definition"
			}
		case failed:
			sr.Status = history.StatusSkipped
			sr.Note = "previous step failed"
		default:
			res, err := in.runStep(ctx, step)
			sr.ExitCode = res.ExitCode
			sr.Output = res.Output
			sr.Duration = res.Duration
			switch {
			case err != nil:
				sr.Status = history.StatusFailed
				sr.Note = err.Error()
				if sr.ExitCode == 0 {
					sr.ExitCode = -1
				}
				failed = true
			case res.ExitCode != 0:
				sr.Status = history.StatusFailed
				failed = true
			default:
				sr.Status = history.StatusSuccess
			}
		}

		r.progress.StepFinished(i+1, total, &sr)
		rec.Steps = append(rec.Steps, sr)
	}

	if failed {
		return finish(history.StatusFailed)
	}
	return finish(history.StatusSuccess)
}

// prepareWorkspace creates the instance working directory. Throwaway
// temporary workspaces are removed by the returned cleanup; configured
// workspace roots are kept for inspection after the run.
func (r *Runner) prepareWorkspace(runID, slug string) (string, func(), error) {
	if r.cfg.Runner.Workspace == "" {
		dir, err := os.MkdirTemp("", "flowci-"+slug+"-")
		if err != nil {
			return "", nil, fmt.Errorf("failed to create workspace: %w", err)
		}
		return dir, func() { os.RemoveAll(dir) }, nil
	}

	dir, err := filepath.Abs(filepath.Join(r.cfg.Runner.Workspace, runID, slug))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return dir, func() {}, nil
}

// composeEnv builds the instance's base environment: matrix axis values
// first, then workflow env, then job env, so the narrower scope wins on
// duplicate keys.
func (in *instance) composeEnv(wfEnv, jobEnv map[string]string) error {
	for _, axis := range sortedKeys(in.data.Matrix) {
		in.env = append(in.env, matrixVar(axis)+"="+in.data.Matrix[axis])
	}
	for _, scope := range []map[string]string{wfEnv, jobEnv} {
		expanded, err := workflow.ExpandAll(scope, in.data)
		if err != nil {
			return err
		}
		for _, k := range sortedKeys(expanded) {
			in.env = append(in.env, k+"="+expanded[k])
		}
	}
	return nil
}

// runStep expands a step's values and executes it through the configured
// executor. A non-zero exit code is reported in the result, not as an
// error; an error means the step could not run at all.
func (in *instance) runStep(ctx context.Context, step workflow.Step) (shell.Result, error) {
	with, err := workflow.ExpandAll(step.With, in.data)
	if err != nil {
		return shell.Result{}, err
	}
	env, err := in.stepEnv(step.Env)
	if err != nil {
		return shell.Result{}, err
	}

	timeout := in.runner.cfg.Runner.StepTimeout
	if step.Timeout > 0 {
		timeout = step.Timeout.Std()
	}

	switch step.Uses {
	case workflow.UsesCheckout:
		return in.checkout(ctx, with, env, timeout)
	case workflow.UsesSetupRuntime:
		return in.setupRuntime(ctx, with, env, timeout)
	case workflow.UsesInstallDeps:
		return in.installDeps(ctx, with, env, timeout)
	}

	script, err := workflow.Expand(step.Run, in.data)
	if err != nil {
		return shell.Result{}, err
	}
	return in.exec(ctx, script, env, timeout)
}

// checkout acquires the pushed source into the workspace: a git clone of
// the pushed commit when the event carries a clone URL, a copy of the
// source directory otherwise. with.ref overrides what is checked out
// after a clone.
func (in *instance) checkout(ctx context.Context, with map[string]string, env []string, timeout time.Duration) (shell.Result, error) {
	if in.event.CloneURL != "" {
		script := "git clone --quiet " + shell.Quote(in.event.CloneURL) + " ."
		ref := with["ref"]
		if ref == "" {
			ref = in.event.After
		}
		if ref != "" {
			script += " && git checkout --quiet " + shell.Quote(ref)
		}
		return in.exec(ctx, script, env, timeout)
	}

	src := with["path"]
	if src == "" {
		src = in.event.Repo
	}
	if src == "" {
		return shell.Result{}, fmt.Errorf("checkout: event has no clone URL and no source path")
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return shell.Result{}, fmt.Errorf("checkout: %w", err)
	}
	return in.exec(ctx, "cp -R "+shell.Quote(abs)+"/. .", env, timeout)
}

// setupRuntime resolves the requested interpreter and exports it to later
// steps: the binary's directory is prepended to PATH and its path is
// published as FLOWCI_RUNTIME and {{.Runtime}}. The interpreter's version
// banner becomes the step output.
func (in *instance) setupRuntime(ctx context.Context, with map[string]string, env []string, timeout time.Duration) (shell.Result, error) {
	name := with["runtime"]
	if name == "" {
		name = "python"
	}
	version := with["version"]
	if version == "" {
		return shell.Result{}, fmt.Errorf("setup-runtime: with.version is required")
	}

	rt, err := in.runner.locator.Resolve(name, version)
	if err != nil {
		return shell.Result{}, err
	}

	res, err := in.exec(ctx, shell.Quote(rt.Path)+" --version", env, timeout)
	if err != nil {
		return res, err
	}
	if res.ExitCode == 0 {
		in.runtime = rt
		in.data.Runtime = rt.Path
		if rt.BinDir != "" {
			in.env = append(in.env, "PATH="+rt.BinDir+string(os.PathListSeparator)+os.Getenv("PATH"))
		}
		in.env = append(in.env, "FLOWCI_RUNTIME="+rt.Path)
	}
	res.Output = fmt.Sprintf("resolved %s %s (%s)\n", name, rt.Version, rt.Path) + res.Output
	return res, nil
}

// installDeps validates the dependency manifest and installs it with the
// resolved interpreter, plus one optional extra package spec. Validation
// happens before any install command runs, so a missing or malformed
// manifest fails the step without touching the environment.
func (in *instance) installDeps(ctx context.Context, with map[string]string, env []string, timeout time.Duration) (shell.Result, error) {
	if in.runtime.Path == "" {
		return shell.Result{}, fmt.Errorf("install-deps: no runtime resolved, add a setup-runtime step first")
	}

	path := with["manifest"]
	if path == "" {
		path = "requirements.txt"
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(in.workspace, full)
	}
	mf, err := manifest.ReadFromFile(full)
	if err != nil {
		return shell.Result{}, err
	}

	var extra string
	if spec := with["extra"]; spec != "" {
		req, err := manifest.ParseRequirement(spec)
		if err != nil {
			return shell.Result{}, fmt.Errorf("invalid extra package: %w", err)
		}
		extra = req.String()
	}

	pip := shell.Quote(in.runtime.Path) + " -m pip install"
	var parts []string
	if with["upgrade-installer"] != "false" {
		parts = append(parts, pip+" --upgrade pip")
	}
	parts = append(parts, pip+" -r "+shell.Quote(path))
	if extra != "" {
		parts = append(parts, pip+" "+shell.Quote(extra))
	}

	res, err := in.exec(ctx, strings.Join(parts, " && "), env, timeout)
	if err != nil {
		return res, err
	}
	res.Output = fmt.Sprintf("validated %d requirements from %s\n", len(mf.Requirements), path) + res.Output
	return res, nil
}

// exec runs a script in the workspace through the executor.
func (in *instance) exec(ctx context.Context, script string, env []string, timeout time.Duration) (shell.Result, error) {
	return in.runner.executor.Run(ctx, shell.Command{
		Script:  script,
		Dir:     in.workspace,
		Env:     env,
		Timeout: timeout,
	})
}

// stepEnv extends the instance environment with the step's own env block.
func (in *instance) stepEnv(stepEnv map[string]string) ([]string, error) {
	expanded, err := workflow.ExpandAll(stepEnv, in.data)
	if err != nil {
		return nil, err
	}
	env := append([]string(nil), in.env...)
	for _, k := range sortedKeys(expanded) {
		env = append(env, k+"="+expanded[k])
	}
	return env, nil
}

// instanceSlug derives the filesystem-safe identifier for a job instance,
// e.g. "test-python-3.7" for job "test" with combination python=3.7.
func instanceSlug(job string, combo workflow.Combination) string {
	slug := slugify(job)
	if len(combo) > 0 {
		slug += "-" + combo.Slug()
	}
	return slug
}

// slugify lowercases s and replaces anything outside [a-z0-9._-] with '-'.
func slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
	if s == "" {
		return "job"
	}
	return s
}

// matrixVar maps an axis name to its exported environment variable, e.g.
// axis "python" becomes FLOWCI_MATRIX_PYTHON.
func matrixVar(axis string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, axis)
	return "FLOWCI_MATRIX_" + strings.ToUpper(mapped)
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
