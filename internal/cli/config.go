package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gittip/dependency-injection/internal/model"
	"github.com/gittip/dependency-injection/internal/project"
	"github.com/gittip/dependency-injection/internal/testenv"
)

// resolvedConfig is what `config` prints: the effective configuration
// plus where it came from and the current cache-directory state.
type resolvedConfig struct {
	Project string           `json:"project"`
	Root    string           `json:"root"`
	Source  string           `json:"source"`
	Cache   model.CacheState `json:"cache"`
	Config  *testenv.Config  `json:"config"`
}

// NewConfigCommand creates the config command, which resolves and prints
// the effective test environment configuration without touching Docker.
func NewConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved test environment configuration",
		Long: `Config locates the project, resolves its test environment configuration
(the config file when present, built-in defaults otherwise), and prints
the result. It never contacts the Docker daemon, so it also works as a
quick syntax check for a config file being edited.`,
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := project.Locate(".")
			if err != nil {
				return err
			}

			source := "defaults"
			var cfg *testenv.Config
			if configPath, err := testenv.Find(proj.Root); err == nil {
				cfg, err = testenv.Load(configPath)
				if err != nil {
					return err
				}
				source = configPath
			} else {
				cfg = testenv.Default()
			}

			resolved := resolvedConfig{
				Project: proj.Name,
				Root:    proj.Root,
				Source:  source,
				Cache:   cacheState(proj.Root, cfg),
				Config:  cfg,
			}

			if IsJSONOutput() {
				data, err := json.MarshalIndent(resolved, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout, string(data))
				return nil
			}

			printResolvedConfig(resolved)
			return nil
		},
	}

	return configCmd
}

// cacheState inspects the host cache directory for the given project.
func cacheState(projectRoot string, cfg *testenv.Config) model.CacheState {
	p := filepath.Join(projectRoot, cfg.CacheDir)
	info, err := os.Stat(p)
	return model.CacheState{
		Path:   p,
		Exists: err == nil && info.IsDir(),
	}
}

// printResolvedConfig renders the resolved configuration as aligned
// human-readable text.
func printResolvedConfig(r resolvedConfig) {
	cacheLine := "absent (no mount; it will not be created)"
	if r.Cache.Exists {
		cacheLine = "present (will be mounted at " + r.Config.ContainerCachePath + ")"
	}

	fmt.Fprintf(os.Stdout, "Project:          %s\n", r.Project)
	fmt.Fprintf(os.Stdout, "Root:             %s\n", r.Root)
	fmt.Fprintf(os.Stdout, "Config source:    %s\n", r.Source)
	fmt.Fprintf(os.Stdout, "Base image:       %s\n", r.Config.BaseImage)
	fmt.Fprintf(os.Stdout, "System packages:  %s\n", strings.Join(r.Config.SystemPackages, ", "))
	fmt.Fprintf(os.Stdout, "Toolchain:        %s\n", strings.Join(r.Config.Toolchain, ", "))
	fmt.Fprintf(os.Stdout, "User:             %s\n", r.Config.User)
	fmt.Fprintf(os.Stdout, "Workdir:          %s\n", r.Config.Workdir)
	fmt.Fprintf(os.Stdout, "Entrypoint:       %s\n", strings.Join(r.Config.Entrypoint, " "))
	fmt.Fprintf(os.Stdout, "Cache dir:        %s\n", r.Cache.Path)
	fmt.Fprintf(os.Stdout, "Cache state:      %s\n", cacheLine)
	if len(r.Config.Environments) > 0 {
		fmt.Fprintf(os.Stdout, "Environments:     %s\n", strings.Join(r.Config.Environments, ", "))
	}
}
