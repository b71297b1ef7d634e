package cli

import (
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"flowci/internal/history"
)

func newRunsCommand(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				limit = app.Config.History.Limit
			}
			runs, err := app.Store.List(limit)
			if err != nil {
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}
			if len(runs) == 0 {
				app.Printer.Info("no runs recorded under %s", app.Store.Dir())
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetAutoWrapText(false)
			table.SetAutoFormatHeaders(false)
			table.SetBorder(false)
			table.SetHeader([]string{"RUN", "WORKFLOW", "BRANCH", "STATUS", "STARTED", "DURATION"})
			for _, run := range runs {
				table.Append([]string{
					run.ShortID(),
					run.Workflow,
					run.Branch,
					string(run.Status),
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					runDuration(run),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum runs to list (default from config)")
	return cmd
}

func runDuration(run *history.Run) string {
	d := run.Duration()
	if d == 0 {
		return "-"
	}
	return d.Round(100 * time.Millisecond).String()
}
