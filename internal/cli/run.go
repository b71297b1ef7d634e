package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"flowci/internal/history"
	"flowci/internal/runner"
	"flowci/internal/trigger"
	"flowci/internal/workflow"
)

func newRunCommand(app *App) *cobra.Command {
	var (
		branch    string
		src       string
		eventFile string
		workspace string
		parallel  int
		noColor   bool
	)

	cmd := &cobra.Command{
		Use:   "run [workflow-file]",
		Short: "Run a workflow against a local source tree",
		Long: `Run a workflow as if a push had just been delivered for it.

The push event is synthesized from --src and --branch, so the checkout
step copies the local source tree instead of cloning. Pass --event-file
to replay a recorded webhook payload instead.

The exit code is the failing step's exit code, or 1 when the run failed
for another reason.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				app.Printer.DisableColor()
			}
			if workspace != "" {
				app.Config.Runner.Workspace = workspace
			}
			if parallel > 0 {
				app.Config.Runner.MaxParallel = parallel
			}

			path := app.Config.WorkflowFile
			if len(args) > 0 {
				path = args[0]
			}
			wf, err := workflow.ReadFromFile(path)
			if err != nil {
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}

			event, err := buildEvent(src, branch, eventFile, wf)
			if err != nil {
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}

			r := runner.NewRunner(app.Executor, app.Locator, app.Config)
			r.SetRecordWriter(app.Store)
			r.SetProgress(&printerProgress{printer: app.Printer})

			id := uuid.NewString()
			app.Printer.RunStart(wf.Name, id)

			run, err := r.RunWithID(cmd.Context(), wf, event, id)
			if err != nil {
				if errors.Is(err, runner.ErrNoMatch) {
					app.Printer.Failure("%v", err)
					return NewExitError(1)
				}
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}

			if run.Status != history.StatusSuccess {
				app.Printer.Failure("run %s failed in %s", run.ShortID(), run.Duration().Round(time.Millisecond))
				return NewExitError(failureCode(run))
			}
			app.Printer.Success("run %s passed in %s", run.ShortID(), run.Duration().Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "branch for the synthesized push event (default: first exact branch in the workflow's filter)")
	cmd.Flags().StringVar(&src, "src", ".", "source directory the checkout step copies from")
	cmd.Flags().StringVar(&eventFile, "event-file", "", "JSON push payload to replay instead of synthesizing one")
	cmd.Flags().StringVar(&workspace, "workspace", "", "directory to create run workspaces under (default: temporary)")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "cap concurrent matrix instances")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

// buildEvent produces the push event a run executes for: the decoded
// payload when an event file is given, a synthesized local push otherwise.
func buildEvent(src, branch, eventFile string, wf *workflow.Workflow) (*trigger.PushEvent, error) {
	if eventFile != "" {
		data, err := os.ReadFile(eventFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read event file: %w", err)
		}
		var event trigger.PushEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("invalid event file: %w", err)
		}
		if event.ReceivedAt.IsZero() {
			event.ReceivedAt = time.Now().UTC()
		}
		return &event, nil
	}

	if branch == "" {
		branch = defaultBranch(wf)
	}
	return trigger.LocalPush(src, branch), nil
}

// defaultBranch picks the branch a bare "flowci run" pushes to: the first
// exact name in the workflow's branch filter. Empty when the filter is
// empty or all patterns, which LocalPush turns into "local".
func defaultBranch(wf *workflow.Workflow) string {
	for _, b := range wf.On.Branches {
		if !strings.ContainsAny(b, "*?[") {
			return b
		}
	}
	return ""
}

// failureCode returns the exit code a failed run should exit the process
// with: the first failing step's exit code when it is positive, 1 for
// provisioning and timeout failures.
func failureCode(run *history.Run) int {
	for _, job := range run.Jobs {
		for _, step := range job.Steps {
			if step.Status == history.StatusFailed && step.ExitCode > 0 {
				return step.ExitCode
			}
		}
	}
	return 1
}
