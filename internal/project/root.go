// Package project locates the project being tested.
//
// The wrapper can be invoked from anywhere inside a project tree; before
// building anything it has to find the root, since that directory is both
// the Docker build context and the place the cache directory and config
// file live.
//
// Design decisions:
//   - Git is asked first (`git rev-parse --show-toplevel` via os/exec)
//     because it gives the canonical answer for the overwhelmingly common
//     case of a project under version control.
//   - Outside a Git checkout, the fallback walks up from the starting
//     directory looking for a test-environment config file, so exported
//     tarballs remain testable.
package project

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gittip/dependency-injection/internal/model"
)

// configMarkers are the filenames whose presence identifies a project
// root during the non-Git fallback walk.
var configMarkers = []string{
	filepath.Join(".testenv", "testenv.json"),
	"testenv.json",
	"testenv.yaml",
	"testenv.yml",
	"go.mod",
	"setup.py",
	"pyproject.toml",
}

// Info describes the located project.
type Info struct {
	// Root is the absolute path of the project root directory.
	Root string

	// Name is the project's name: the root directory's base name.
	Name string

	// FromGit reports whether the root came from Git rather than the
	// marker-file fallback.
	FromGit bool
}

// Locate finds the project root for the given starting directory.
func Locate(startDir string) (*Info, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to absolutize %q: %w", startDir, err)
	}

	if root, ok := gitToplevel(abs); ok {
		return &Info{Root: root, Name: filepath.Base(root), FromGit: true}, nil
	}

	if root, ok := walkUpForMarker(abs); ok {
		return &Info{Root: root, Name: filepath.Base(root)}, nil
	}

	return nil, model.NewCLIError(model.ExitConfigNotFound,
		fmt.Sprintf("could not locate a project root from %s (not a Git checkout, no config or build file found)", abs))
}

// gitToplevel asks Git for the working tree root. A missing git binary or
// a directory outside any checkout are both just "no", not errors.
func gitToplevel(dir string) (string, bool) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	root := strings.TrimSpace(string(out))
	if root == "" {
		return "", false
	}
	return root, true
}

// walkUpForMarker walks from dir toward the filesystem root, returning
// the first directory containing one of the marker files.
func walkUpForMarker(dir string) (string, bool) {
	for {
		for _, marker := range configMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
