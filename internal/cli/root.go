package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"flowci/internal/config"
)

// NewRootCommand builds the flowci command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "flowci",
		Short: "Push-triggered workflow runner",
		Long: `flowci runs push-triggered CI workflows: it resolves the interpreter
toolchain a job asks for, installs dependencies from the project
manifest, and executes each step in order, stopping at the first
failure.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCommand(app),
		newValidateCommand(app),
		newRunsCommand(app),
		newServeCommand(app),
		newVersionCommand(app),
	)
	return root
}

// Execute runs the CLI with production wiring and returns the process exit
// code. Commands signal specific codes with [ExitError]; any other error
// exits 1.
func Execute(version, commit, date string) int {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowci: %v\n", err)
		return 1
	}

	app := NewApp(cfg)
	app.Version, app.Commit, app.Date = version, commit, date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(app).ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return code
		}
		fmt.Fprintf(os.Stderr, "flowci: %v\n", err)
		return 1
	}
	return 0
}
