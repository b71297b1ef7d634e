package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"flowci/internal/metrics"
	"flowci/internal/runner"
	"flowci/internal/server"
	"flowci/internal/workflow"
)

func newServeCommand(app *App) *cobra.Command {
	var (
		addr    string
		workers int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "serve [workflow-file]",
		Short: "Listen for push webhooks and run the workflow",
		Long: `Start the webhook listener. POST /hooks/push accepts push payloads,
GET /runs and GET /runs/{id} serve run history, GET /logs/ serves step
logs, and /metrics exposes Prometheus instrumentation.

Accepted runs execute on a bounded worker pool and keep running through
a graceful shutdown, so an interrupt drains the queue instead of
abandoning it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				app.Config.Server.Addr = addr
			}
			if workers > 0 {
				app.Config.Server.Workers = workers
			}

			path := app.Config.WorkflowFile
			if len(args) > 0 {
				path = args[0]
			}
			wf, err := workflow.ReadFromFile(path)
			if err != nil {
				return err
			}

			logger := newLogger(verbose)
			slog.SetDefault(logger)
			metrics.BuildInfo.WithLabelValues(app.Version, app.Commit, app.Date).Set(1)

			r := runner.NewRunner(app.Executor, app.Locator, app.Config)
			r.SetRecordWriter(app.Store)

			srv, err := server.New(&server.Config{
				Logger:    logger,
				Workflow:  wf,
				Runner:    r,
				Store:     app.Store,
				Addr:      app.Config.Server.Addr,
				Secret:    app.Config.Server.Secret,
				Workers:   app.Config.Server.Workers,
				ListLimit: app.Config.History.Limit,
			})
			if err != nil {
				return err
			}

			logger.Info("starting flowci",
				"version", app.Version,
				"workflow", wf.Name,
				"history", app.Store.Dir(),
				"workers", app.Config.Server.Workers,
			)
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent run workers (default from config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}
