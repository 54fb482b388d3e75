// Package model defines the domain types shared across the test-runner
// wrapper: the run plan handed to the container engine, the build
// parameters threaded into the image build, and the exit-code scheme the
// CLI translates errors into.
package model

import (
	"fmt"
	"path"
	"strings"
)

// ExitCode defines the wrapper's process exit codes. Scripts and CI
// systems rely on these to tell infrastructure failures apart from test
// failures.
//
// A failing test run is deliberately NOT in this list: the container's own
// exit status is propagated verbatim, whatever it is, so the wrapper is
// transparent to the orchestrator running inside.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigNotFound indicates no test-environment configuration file
	// was found at any of the expected locations.
	ExitConfigNotFound ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitBuildFailed indicates the test image could not be built. When
	// this is the failure, no container run is ever attempted.
	ExitBuildFailed ExitCode = 4

	// ExitConfigInvalid indicates the configuration file was found but
	// failed validation.
	ExitConfigInvalid ExitCode = 5
)

// CLIError is an error that carries a process exit code, letting the CLI
// layer translate domain failures into meaningful exit statuses.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// TestsFailedError reports a completed container run that exited non-zero.
// The wrapper adds no diagnostic context of its own — whatever the
// orchestrator printed is the diagnosis, and Status becomes the wrapper's
// own exit status.
type TestsFailedError struct {
	// Status is the container's exit status.
	Status int
}

// Error satisfies the error interface.
func (e *TestsFailedError) Error() string {
	return fmt.Sprintf("test run exited with status %d", e.Status)
}

// BuildParams are the build-time inputs for the test image.
type BuildParams struct {
	// Tag is the image tag to build, e.g. "runtests-myproject:latest".
	Tag string

	// ContextDir is the host directory used as the Docker build context.
	ContextDir string

	// Dockerfile is the rendered Dockerfile content. It is injected into
	// the build context tar rather than written to disk, so the project
	// tree is never modified.
	Dockerfile string

	// HostUID is the invoking user's numeric ID, passed as the HOST_UID
	// build argument so the in-image user matches host file ownership.
	// Without this, a bind-mounted cache directory written by the
	// container would come back owned by the wrong user.
	HostUID int

	// Labels are applied to the built image for later discovery.
	Labels map[string]string

	// SkipDirs lists directory names excluded from the build context,
	// such as the host cache directory — it is mounted at run time, not
	// baked into the image.
	SkipDirs []string
}

// Mount describes a single bind mount between a host path and a container
// path. The wrapper only ever creates read-write mounts.
type Mount struct {
	// HostPath is the absolute path on the host.
	HostPath string

	// ContainerPath is the absolute path inside the container.
	ContainerPath string
}

// String renders the mount in Docker's -v syntax.
func (m Mount) String() string {
	return m.HostPath + ":" + m.ContainerPath
}

// Validate checks that both sides of the mount are absolute paths.
func (m Mount) Validate() error {
	if !strings.HasPrefix(m.HostPath, "/") {
		return fmt.Errorf("mount host path %q is not absolute", m.HostPath)
	}
	if !path.IsAbs(m.ContainerPath) {
		return fmt.Errorf("mount container path %q is not absolute", m.ContainerPath)
	}
	return nil
}

// CacheState describes the host cache directory, for display by the
// config and clean commands. The directory is only ever mounted when it
// already exists; the wrapper never creates it.
type CacheState struct {
	// Path is the cache directory's absolute host path.
	Path string `json:"path"`

	// Exists reports whether the directory is present, and therefore
	// whether the next run would mount it.
	Exists bool `json:"exists"`
}

// RunPlan is the fully-determined description of one containerized test
// run: which image to run, which arguments to forward, and which mounts
// to attach. It is computed before anything touches the Docker daemon,
// which keeps the mount/forwarding decisions testable in isolation.
type RunPlan struct {
	// Image is the image tag to run.
	Image string

	// Args are forwarded verbatim, in order, to the image's entrypoint —
	// the orchestrator's own CLI (e.g. an environment selector flag).
	// The wrapper interprets none of them.
	Args []string

	// Mounts lists the bind mounts to attach. Contains the cache mount
	// when the host cache directory exists, and is empty otherwise.
	Mounts []Mount

	// Labels are applied to the run container for later discovery.
	Labels map[string]string
}

// CacheMount returns the plan's cache mount and whether one is present.
// The plan carries at most one mount today, but callers should not rely
// on that.
func (p *RunPlan) CacheMount() (Mount, bool) {
	if len(p.Mounts) == 0 {
		return Mount{}, false
	}
	return p.Mounts[0], true
}
