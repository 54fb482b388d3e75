package cli

import (
	"github.com/spf13/cobra"

	"github.com/gittip/dependency-injection/internal/docker"
	"github.com/gittip/dependency-injection/internal/project"
	"github.com/gittip/dependency-injection/internal/runner"
	"github.com/gittip/dependency-injection/internal/testenv"
)

// NewRunCommand creates the run command: build the test image from
// current sources, then run the orchestrator inside it.
//
// Flag parsing is disabled: every argument after `run` belongs to the
// orchestrator inside the container and is forwarded untouched, in
// order. `run -e py27` must reach the orchestrator as `-e py27`, not be
// eaten by cobra.
func NewRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [orchestrator arguments...]",
		Short: "Build the test image and run the test suite inside it",
		Long: `Run builds the container image from the current project sources, then
runs the configured test orchestrator inside it. All arguments are
forwarded to the orchestrator verbatim; the wrapper interprets none of
them, with one exception: --verbose and --json are recognized when they
appear at the very front of the argument list, before anything else.
A leading "--" ends that handling, so an orchestrator can receive a
literal --verbose or --json as its first argument.

The wrapper's exit status is the orchestrator's exit status, unchanged.`,
		Example: `  # Run the full test matrix
  run-tests-with-docker run

  # Run a single environment (the selector goes to the orchestrator)
  run-tests-with-docker run -e py27`,

		DisableFlagParsing: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			// With flag parsing off, even the wrapper's own flags would be
			// forwarded into the container. Recognize the long forms at the
			// front of the argument list only (short forms like -v stay
			// forwardable); `--` ends wrapper flag handling, so an
			// orchestrator that wants a literal --verbose can have one.
			for len(args) > 0 {
				switch args[0] {
				case "-h", "--help":
					return cmd.Help()
				case "--verbose":
					verbose = true
				case "--json":
					jsonOutput = true
				case "--":
					return runTests(cmd, args[1:])
				default:
					return runTests(cmd, args)
				}
				args = args[1:]
			}
			return runTests(cmd, args)
		},
	}

	return runCmd
}

// runTests performs one full invocation: locate the project, resolve its
// configuration, connect to Docker, and hand off to the runner.
func runTests(cmd *cobra.Command, forwarded []string) error {
	proj, err := project.Locate(".")
	if err != nil {
		return err
	}
	VerboseLog("project %s at %s", proj.Name, proj.Root)

	cfg, err := testenv.LoadOrDefault(proj.Root)
	if err != nil {
		return err
	}

	client, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Ping(cmd.Context()); err != nil {
		return err
	}

	r := runner.New(client)
	r.Trace = VerboseLog
	return r.Run(cmd.Context(), cfg, proj, forwarded)
}
