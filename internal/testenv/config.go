// Package testenv handles the test-environment configuration: the
// declarative recipe from which the wrapper builds its container image.
//
// Configuration lives in a testenv.json (JSONC — comments and trailing
// commas are allowed, stripped via github.com/tidwall/jsonc before
// parsing) or a testenv.yaml at the project root. Projects without a
// configuration file get the built-in defaults, so a bare repository is
// runnable with zero setup.
package testenv

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/gittip/dependency-injection/internal/model"
)

// Config describes the containerized test environment.
//
// Every field has a default reproducing the stock environment, so a
// config file only needs to state its deviations.
type Config struct {
	// BaseImage is the image the test environment is built from.
	// Pinned by default; parameterizing it is a config-file decision,
	// not a CLI flag.
	BaseImage string `json:"baseImage" yaml:"baseImage"`

	// SystemPackages are installed with the base image's package manager
	// before the toolchain.
	SystemPackages []string `json:"systemPackages" yaml:"systemPackages"`

	// Toolchain lists the test tooling installed into the image: a lint
	// tool, a test runner, the multi-environment orchestrator, and a
	// documentation generator by default.
	Toolchain []string `json:"toolchain" yaml:"toolchain"`

	// User is the non-root account created inside the image. Its UID is
	// supplied at build time to match the invoking host user.
	User string `json:"user" yaml:"user"`

	// CacheDir is the host-side cache directory, relative to the project
	// root. When it exists it is bind-mounted into the container at
	// ContainerCachePath so repeated runs reuse downloaded artifacts.
	CacheDir string `json:"cacheDir" yaml:"cacheDir"`

	// ContainerCachePath is the fixed in-container path the cache
	// directory is mounted at.
	ContainerCachePath string `json:"containerCachePath" yaml:"containerCachePath"`

	// Workdir is the in-container path the project sources are copied to.
	Workdir string `json:"workdir" yaml:"workdir"`

	// Entrypoint is the orchestrator argv. Arguments forwarded by the
	// wrapper become this command's arguments.
	Entrypoint []string `json:"entrypoint" yaml:"entrypoint"`

	// Environments optionally lists the orchestrator's declared
	// environment matrix. Informational only — selectors are forwarded
	// opaquely either way — but `config` can display it.
	Environments []string `json:"environments" yaml:"environments"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		BaseImage:          "debian:bookworm-slim",
		SystemPackages:     []string{"python3", "python3-pip", "git", "ca-certificates"},
		Toolchain:          []string{"flake8", "pytest", "tox", "sphinx"},
		User:               "tester",
		CacheDir:           ".testenv-cache",
		ContainerCachePath: "/home/tester/.cache",
		Workdir:            "/home/tester/src",
		Entrypoint:         []string{"tox"},
	}
}

// configCandidates lists the recognized configuration file locations,
// relative to the project root, in priority order.
var configCandidates = []string{
	filepath.Join(".testenv", "testenv.json"),
	"testenv.json",
	"testenv.yaml",
	"testenv.yml",
}

// Find locates the configuration file under the project root. It returns
// the absolute path of the first candidate that exists, or a CLIError
// with ExitConfigNotFound when none do. Callers that are happy with
// defaults treat the not-found case as "use Default()".
func Find(projectRoot string) (string, error) {
	for _, rel := range configCandidates {
		p := filepath.Join(projectRoot, rel)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", model.NewCLIError(
		model.ExitConfigNotFound,
		fmt.Sprintf("no test environment config found in %s (searched %s)",
			projectRoot, strings.Join(configCandidates, ", ")),
	)
}

// Load reads and parses the configuration file at the given path,
// dispatching on the file extension: .json is parsed as JSONC, .yaml and
// .yml via yaml.v3. Unset fields are filled from Default().
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitConfigNotFound,
				fmt.Sprintf("test environment config not found: %s", configPath),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
	}

	cfg := &Config{}
	switch ext := filepath.Ext(configPath); ext {
	case ".json":
		// jsonc.ToJSON strips // and /* */ comments plus trailing commas,
		// leaving plain JSON for the standard decoder.
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, model.WrapCLIError(
				model.ExitConfigInvalid,
				fmt.Sprintf("failed to parse %s", configPath),
				err,
			)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, model.WrapCLIError(
				model.ExitConfigInvalid,
				fmt.Sprintf("failed to parse %s", configPath),
				err,
			)
		}
	default:
		return nil, model.NewCLIError(
			model.ExitConfigInvalid,
			fmt.Sprintf("unsupported config format %q (want .json, .yaml or .yml)", ext),
		)
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault resolves the project's configuration: the parsed config
// file when one exists, the stock defaults otherwise. Only a present but
// broken config file is an error.
func LoadOrDefault(projectRoot string) (*Config, error) {
	configPath, err := Find(projectRoot)
	if err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) && cliErr.Code == model.ExitConfigNotFound {
			return Default(), nil
		}
		return nil, err
	}
	return Load(configPath)
}

// applyDefaults fills unset fields from the stock configuration.
// Slices are only defaulted when nil, so an explicit empty list (e.g.
// "no extra system packages") is respected.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.BaseImage == "" {
		cfg.BaseImage = def.BaseImage
	}
	if cfg.SystemPackages == nil {
		cfg.SystemPackages = def.SystemPackages
	}
	if cfg.Toolchain == nil {
		cfg.Toolchain = def.Toolchain
	}
	if cfg.User == "" {
		cfg.User = def.User
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = def.CacheDir
	}
	if cfg.ContainerCachePath == "" {
		cfg.ContainerCachePath = def.ContainerCachePath
	}
	if cfg.Workdir == "" {
		cfg.Workdir = def.Workdir
	}
	if len(cfg.Entrypoint) == 0 {
		cfg.Entrypoint = def.Entrypoint
	}
}

// Validate checks the configuration's structural invariants:
// in-container paths must be absolute, the cache directory must stay a
// clean relative path under the project root, and the entrypoint must
// name a command.
func (c *Config) Validate() error {
	if c.BaseImage == "" {
		return model.NewCLIError(model.ExitConfigInvalid, "baseImage must not be empty")
	}
	if !path.IsAbs(c.ContainerCachePath) {
		return model.NewCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("containerCachePath %q must be absolute", c.ContainerCachePath))
	}
	if !path.IsAbs(c.Workdir) {
		return model.NewCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("workdir %q must be absolute", c.Workdir))
	}
	if c.User == "" {
		return model.NewCLIError(model.ExitConfigInvalid, "user must not be empty")
	}
	if len(c.Entrypoint) == 0 || c.Entrypoint[0] == "" {
		return model.NewCLIError(model.ExitConfigInvalid, "entrypoint must name a command")
	}
	if filepath.IsAbs(c.CacheDir) || strings.HasPrefix(c.CacheDir, "..") {
		return model.NewCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("cacheDir %q must be a relative path inside the project", c.CacheDir))
	}
	return nil
}
