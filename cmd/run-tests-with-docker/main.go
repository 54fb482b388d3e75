package main

import (
	"os"

	"github.com/gittip/dependency-injection/internal/cli"
)

// Version information, set via ldflags at build time:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2026-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()

	// A bare invocation runs the suite; see NormalizeArgs.
	rootCmd.SetArgs(cli.NormalizeArgs(os.Args[1:]))
	cli.Execute(rootCmd)
}
