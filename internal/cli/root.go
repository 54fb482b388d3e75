// Package cli implements the cobra commands for run-tests-with-docker.
//
// Each subcommand (run, build, config, clean) lives in its own file.
// This file defines the root command, the global flags, and the exit-code
// translation applied to every error that escapes a command.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gittip/dependency-injection/internal/model"
)

// Global flag variables, bound as persistent flags on the root command so
// every subcommand shares them.
var (
	// jsonOutput switches successful command output to JSON for machine
	// consumption. Errors go to stderr in the matching format.
	jsonOutput bool

	// verbose enables progress lines on stderr. The containerized
	// orchestrator's own output is never gated by this — only the
	// wrapper's commentary is.
	verbose bool
)

// Version, Commit and Date are injected from the main package, which gets
// them from ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// Running the test suite is the `run` subcommand; main routes bare
// invocations to it through NormalizeArgs, so the common case stays
// `run-tests-with-docker [orchestrator args...]`.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "run-tests-with-docker",
		Short: "Run the test suite inside a Docker container",
		Long: `run-tests-with-docker builds a containerized test environment and runs
the project's test matrix inside it, so the suite behaves identically on
any host with a Docker daemon — independent of locally installed
interpreter versions.

The image is rebuilt from current sources on every invocation. A host
cache directory, when present from a prior run, is bind-mounted into the
container so repeated runs reuse downloaded and built artifacts.`,

		// Errors are formatted by Execute (text or JSON); cobra's own
		// printing would duplicate them.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewCleanCommand())

	return rootCmd
}

// NormalizeArgs maps a bare invocation onto the run subcommand, so
//
//	run-tests-with-docker -e py27
//
// behaves like
//
//	run-tests-with-docker run -e py27
//
// Anything that does not start with a known subcommand or a help/version
// flag is a run invocation whose arguments belong to the orchestrator.
func NormalizeArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"run"}
	}
	switch args[0] {
	case "run", "build", "config", "clean", "help", "completion",
		"-h", "--help", "--version":
		return args
	}
	return append([]string{"run"}, args...)
}

// Execute runs the root command and translates errors into process exit
// codes:
//
//   - A failed test run exits with the container's own status, verbatim,
//     with no additional output — the orchestrator already said what
//     went wrong.
//   - A CLIError exits with its carried code after printing its message.
//   - Anything else exits 1.
func Execute(rootCmd *cobra.Command) {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var testsFailed *model.TestsFailedError
	if errors.As(err, &testsFailed) {
		os.Exit(testsFailed.Status)
	}

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(cliErr.Message, cliErr.Err)
		os.Exit(int(cliErr.Code))
	}

	printError(err.Error(), nil)
	os.Exit(int(model.ExitGeneralError))
}

// printError outputs an error in the format selected by --json. Errors
// always go to stderr; stdout is reserved for command results.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]any{
			"error": map[string]any{"message": message},
		}
		if underlying != nil {
			errObj["error"].(map[string]any)["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
}

// VerboseLog prints a progress line to stderr when --verbose is set.
func VerboseLog(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput reports whether --json is set.
func IsJSONOutput() bool {
	return jsonOutput
}
