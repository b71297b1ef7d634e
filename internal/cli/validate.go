package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"flowci/internal/workflow"
)

func newValidateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [workflow-file]",
		Short: "Check a workflow definition",
		Long: `Parse and validate a workflow definition without running it, then
list what a run would execute: each job, its matrix combinations, and
its steps, marking disabled ones. Reports the first problem found:
unknown fields, steps with neither "uses" nor "run", unknown built-ins,
or an empty matrix axis.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.Config.WorkflowFile
			if len(args) > 0 {
				path = args[0]
			}
			wf, err := workflow.ReadFromFile(path)
			if err != nil {
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}

			app.Printer.Success("%s is valid", path)
			app.Printer.Info("workflow %q, on %s", wf.Name, strings.Join(eventNames(wf), ", "))
			for _, job := range wf.Jobs {
				app.Printer.Info("job %s%s", job.Name, matrixSummary(job))
				for i, step := range job.Steps {
					mark := ""
					if step.Disabled {
						mark = " (disabled)"
					}
					app.Printer.Info("  [%d/%d] %s%s", i+1, len(job.Steps), step.Label(), mark)
				}
			}
			return nil
		},
	}
}

func eventNames(wf *workflow.Workflow) []string {
	names := make([]string, 0, len(wf.On.Events))
	for _, e := range wf.On.Events {
		names = append(names, string(e))
	}
	return names
}

// matrixSummary renders a job's matrix combinations for the validate
// listing, empty for a matrix-less job.
func matrixSummary(job workflow.Job) string {
	combos := job.Strategy.Matrix.Combinations()
	if len(combos) == 1 && len(combos[0]) == 0 {
		return ""
	}
	names := make([]string, len(combos))
	for i, c := range combos {
		names[i] = c.String()
	}
	return " [" + strings.Join(names, "; ") + "]"
}
