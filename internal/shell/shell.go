// Package shell runs step commands as subprocesses.
//
// Commands execute through a POSIX shell so that step scripts can use
// pipes, redirection, and multi-line bodies. Output is captured combined
// (stdout and stderr interleaved) the way a terminal would show it.
//
// Key types:
//   - [Executor]: interface for running commands
//   - [LocalExecutor]: real implementation via sh -c
//   - [MockExecutor]: records commands without spawning processes, for tests
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultShell is the interpreter used when [LocalExecutor.Shell] is unset.
const DefaultShell = "sh"

// Quote wraps s in single quotes for safe interpolation into a shell
// script, escaping any embedded single quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Command describes a single shell invocation.
type Command struct {
	// Script is the shell script body, passed to the shell via -c.
	Script string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds KEY=VALUE pairs appended to the parent environment.
	// Later entries win on duplicate keys.
	Env []string

	// Timeout bounds the invocation. Zero means no timeout beyond the
	// caller's context.
	Timeout time.Duration
}

// Result is the outcome of one invocation.
type Result struct {
	// ExitCode is the process exit status. -1 when the process did not
	// run to completion (start failure, timeout, cancellation).
	ExitCode int

	// Output is the combined stdout and stderr.
	Output string

	// Duration is the wall-clock time the invocation took.
	Duration time.Duration
}

// Success reports whether the command exited zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Executor runs shell commands.
//
// Implementations return an error only when the command could not be run
// or was cut short (missing shell, timeout, cancelled context). A command
// that runs to completion with a non-zero exit status is not an error;
// callers decide what a non-zero [Result.ExitCode] means.
type Executor interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// LocalExecutor implements [Executor] by spawning real processes.
type LocalExecutor struct {
	// Shell is the interpreter binary. Defaults to [DefaultShell].
	Shell string
}

// NewLocalExecutor creates a [LocalExecutor] with default settings.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{Shell: DefaultShell}
}

// Run executes cmd.Script via the shell and captures its combined output.
func (e *LocalExecutor) Run(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	shell := e.Shell
	if shell == "" {
		shell = DefaultShell
	}

	proc := exec.CommandContext(ctx, shell, "-c", cmd.Script)
	proc.Dir = cmd.Dir
	proc.Env = append(os.Environ(), cmd.Env...)

	var out bytes.Buffer
	proc.Stdout = &out
	proc.Stderr = &out

	start := time.Now()
	err := proc.Run()
	res := Result{
		ExitCode: 0,
		Output:   out.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			res.ExitCode = -1
			return res, fmt.Errorf("command timed out after %s", cmd.Timeout)
		case ctx.Err() != nil:
			res.ExitCode = -1
			return res, ctx.Err()
		case errors.As(err, &exitErr):
			res.ExitCode = exitErr.ExitCode()
		default:
			res.ExitCode = -1
			return res, fmt.Errorf("failed to run command: %w", err)
		}
	}

	return res, nil
}
