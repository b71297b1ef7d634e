// Package cli wires the flowci commands.
//
// The [App] container holds the dependencies every command draws from:
// configuration, the shell executor, the toolchain locator, the run record
// store, and the terminal printer. [NewRootCommand] assembles the Cobra
// command tree around an App; tests swap in mocks for the executor and
// locator and a buffer-backed printer.
package cli

import (
	"flowci/internal/config"
	"flowci/internal/history"
	"flowci/internal/output"
	"flowci/internal/runner"
	"flowci/internal/shell"
	"flowci/internal/toolchain"
)

// App holds the dependencies shared by the commands.
type App struct {
	// Config is the loaded configuration.
	Config *config.Config

	// Executor runs step commands. Tests inject a [shell.MockExecutor].
	Executor shell.Executor

	// Locator resolves interpreter runtimes for setup-runtime steps.
	Locator runner.RuntimeLocator

	// Store persists run records and step logs.
	Store *history.Store

	// Printer renders run progress to the terminal.
	Printer *output.Printer

	// Version, Commit, and Date identify the build. Set from main via
	// link-time flags.
	Version string
	Commit  string
	Date    string
}

// NewApp wires the production dependencies for cfg.
func NewApp(cfg *config.Config) *App {
	return &App{
		Config:   cfg,
		Executor: &shell.LocalExecutor{Shell: cfg.Runner.Shell},
		Locator:  toolchain.NewLocator(cfg.Toolchain.Dir),
		Store:    history.NewStore(cfg.History.Dir),
		Printer:  output.NewPrinter(),
	}
}
