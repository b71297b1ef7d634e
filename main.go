package main

import (
	"os"

	"github.com/joho/godotenv"

	"flowci/internal/cli"
)

// Build metadata, overridden via -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Optional .env for local development. A missing file is fine.
	_ = godotenv.Load()

	os.Exit(cli.Execute(version, commit, date))
}
