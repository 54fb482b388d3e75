package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gittip/dependency-injection/internal/docker"
	"github.com/gittip/dependency-injection/internal/project"
	"github.com/gittip/dependency-injection/internal/testenv"
)

// NewCleanCommand creates the clean command, which removes the wrapper's
// leftovers: containers from interrupted runs always, built images and
// the host cache directory on request.
func NewCleanCommand() *cobra.Command {
	var (
		removeImages bool
		removeCache  bool
		allProjects  bool
	)

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover containers, and optionally images and cache",
		Long: `Clean removes containers left behind by interrupted runs. A completed
run removes its own container, so anything found here is a leftover.
Only containers carrying this wrapper's labels are touched.

With --images the built test images are removed too; the next run
rebuilds from scratch. With --cache the host cache directory is deleted,
returning the project to the no-mount state. By default only the current
project's resources are considered; --all widens to every project.`,
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			projectName := ""
			var proj *project.Info
			if !allProjects || removeCache {
				located, err := project.Locate(".")
				if err != nil {
					return err
				}
				proj = located
				if !allProjects {
					projectName = proj.Name
				}
			}

			client, err := docker.NewClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Ping(cmd.Context()); err != nil {
				return err
			}

			containers, err := client.ListRunnerContainers(cmd.Context(), projectName)
			if err != nil {
				return err
			}
			containersRemoved, err := client.RemoveRunnerContainers(cmd.Context(), containers)
			if err != nil {
				return err
			}

			imagesRemoved := 0
			if removeImages {
				images, err := client.ListRunnerImages(cmd.Context(), projectName)
				if err != nil {
					return err
				}
				imagesRemoved, err = client.RemoveRunnerImages(cmd.Context(), images)
				if err != nil {
					return err
				}
			}

			cacheRemoved := false
			if removeCache {
				cfg, err := testenv.LoadOrDefault(proj.Root)
				if err != nil {
					return err
				}
				cache := cacheState(proj.Root, cfg)
				if cache.Exists {
					VerboseLog("removing cache directory %s", cache.Path)
					if err := os.RemoveAll(cache.Path); err != nil {
						return fmt.Errorf("failed to remove cache directory %s: %w", cache.Path, err)
					}
					cacheRemoved = true
				}
			}

			if IsJSONOutput() {
				out := map[string]any{
					"containersRemoved": containersRemoved,
					"imagesRemoved":     imagesRemoved,
					"cacheRemoved":      cacheRemoved,
				}
				data, _ := json.MarshalIndent(out, "", "  ")
				fmt.Fprintln(os.Stdout, string(data))
				return nil
			}

			fmt.Fprintf(os.Stdout, "Removed %d container(s)\n", containersRemoved)
			if removeImages {
				fmt.Fprintf(os.Stdout, "Removed %d image(s)\n", imagesRemoved)
			}
			if removeCache {
				if cacheRemoved {
					fmt.Fprintln(os.Stdout, "Removed cache directory")
				} else {
					fmt.Fprintln(os.Stdout, "No cache directory to remove")
				}
			}
			return nil
		},
	}

	cleanCmd.Flags().BoolVar(&removeImages, "images", false, "Also remove built test images")
	cleanCmd.Flags().BoolVar(&removeCache, "cache", false, "Also remove the host cache directory")
	cleanCmd.Flags().BoolVar(&allProjects, "all", false, "Clean resources for all projects, not just the current one")

	return cleanCmd
}
