package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gittip/dependency-injection/internal/docker"
	"github.com/gittip/dependency-injection/internal/project"
	"github.com/gittip/dependency-injection/internal/runner"
	"github.com/gittip/dependency-injection/internal/testenv"
)

// NewBuildCommand creates the build command, which builds the test image
// without running anything. Useful for warming the image ahead of a run
// or for debugging the environment definition in isolation.
func NewBuildCommand() *cobra.Command {
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the test image without running the suite",
		Long: `Build constructs the container image for the current project from its
test environment configuration and current sources, then stops. The
image gets the same tag a subsequent run would use, so building ahead
of time warms nothing away from the run path.`,
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
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
			params, err := r.Build(cmd.Context(), cfg, proj)
			if err != nil {
				return err
			}

			if IsJSONOutput() {
				out := map[string]any{
					"image":   params.Tag,
					"project": proj.Name,
				}
				data, _ := json.MarshalIndent(out, "", "  ")
				fmt.Fprintln(os.Stdout, string(data))
			} else {
				fmt.Fprintf(os.Stdout, "Built %s\n", params.Tag)
			}
			return nil
		},
	}

	return buildCmd
}
