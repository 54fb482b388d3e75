package runner

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/gittip/dependency-injection/internal/docker"
	"github.com/gittip/dependency-injection/internal/model"
	"github.com/gittip/dependency-injection/internal/project"
	"github.com/gittip/dependency-injection/internal/testenv"
)

// Engine is the container-engine surface the runner needs. The Docker
// client satisfies it; tests substitute a fake.
type Engine interface {
	BuildImage(ctx context.Context, params model.BuildParams, out io.Writer) error
	RunContainer(ctx context.Context, plan model.RunPlan, stdout, stderr io.Writer) (int, error)
}

// Runner executes the build-then-run sequence for one invocation.
type Runner struct {
	engine Engine

	// Stdout and Stderr receive the containerized orchestrator's output,
	// relayed verbatim. BuildOut receives the image build progress.
	Stdout   io.Writer
	Stderr   io.Writer
	BuildOut io.Writer

	// Trace, when non-nil, receives human-oriented progress lines (the
	// --verbose channel). It must not be used for orchestrator output.
	Trace func(format string, args ...any)

	// HostUID is threaded into the image build so the in-image user
	// matches the invoking host user. Defaults to os.Getuid().
	HostUID int

	// now is stubbed in tests.
	now func() time.Time
}

// New creates a Runner backed by the given engine, writing orchestrator
// output to the standard streams.
func New(engine Engine) *Runner {
	return &Runner{
		engine:   engine,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		BuildOut: os.Stderr,
		HostUID:  os.Getuid(),
		now:      time.Now,
	}
}

// Run performs one complete invocation against the located project:
//
//  1. Scoped directory change: the process moves to the project root and
//     is moved back when Run returns, success or failure.
//  2. The test image is built unconditionally — rebuild cost is the price
//     of always testing current sources. A build failure short-circuits;
//     no container is ever run after one.
//  3. The run plan is computed (cache mount iff the cache dir exists,
//     forwarded args verbatim) and executed.
//
// A non-zero orchestrator exit comes back as *model.TestsFailedError so
// the CLI can exit with exactly that status. The wrapper attaches no
// diagnostics of its own to a test failure — the orchestrator's output
// is the diagnosis.
func (r *Runner) Run(ctx context.Context, cfg *testenv.Config, proj *project.Info, forwarded []string) error {
	restore, err := pushd(proj.Root)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			"failed to enter project root", err)
	}
	defer restore()

	labels := docker.BuildLabels(proj.Name, r.HostUID, r.clock()())

	params := r.buildParams(cfg, proj, labels)
	r.trace("building image %s (HOST_UID=%d)", params.Tag, params.HostUID)
	if err := r.engine.BuildImage(ctx, params, r.BuildOut); err != nil {
		return err
	}

	plan := BuildPlan(cfg, proj, forwarded, labels)
	if mount, ok := plan.CacheMount(); ok {
		r.trace("reusing cache %s", mount.HostPath)
	}
	r.trace("%s", shellquote.Join(RenderCommand(plan)...))

	status, err := r.engine.RunContainer(ctx, plan, r.Stdout, r.Stderr)
	if err != nil {
		return err
	}
	if status != 0 {
		return &model.TestsFailedError{Status: status}
	}
	return nil
}

// Build builds the test image without running anything. Used by the
// `build` command; Run does its own build so the two stay independent.
func (r *Runner) Build(ctx context.Context, cfg *testenv.Config, proj *project.Info) (model.BuildParams, error) {
	restore, err := pushd(proj.Root)
	if err != nil {
		return model.BuildParams{}, model.WrapCLIError(model.ExitGeneralError,
			"failed to enter project root", err)
	}
	defer restore()

	labels := docker.BuildLabels(proj.Name, r.HostUID, r.clock()())
	params := r.buildParams(cfg, proj, labels)

	r.trace("building image %s (HOST_UID=%d)", params.Tag, params.HostUID)
	if err := r.engine.BuildImage(ctx, params, r.BuildOut); err != nil {
		return model.BuildParams{}, err
	}
	return params, nil
}

// buildParams assembles the image build inputs for the located project.
func (r *Runner) buildParams(cfg *testenv.Config, proj *project.Info, labels map[string]string) model.BuildParams {
	return model.BuildParams{
		Tag:        docker.ImageTag(proj.Name),
		ContextDir: proj.Root,
		Dockerfile: testenv.RenderDockerfile(cfg, labels),
		HostUID:    r.HostUID,
		Labels:     labels,
		SkipDirs:   []string{cfg.CacheDir},
	}
}

// pushd changes into dir and returns a function that restores the
// previous working directory. The restore function is best-effort: if
// the original directory vanished mid-run there is nothing sensible
// left to do.
func pushd(dir string) (func(), error) {
	prev, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if err := os.Chdir(dir); err != nil {
		return nil, err
	}
	return func() { _ = os.Chdir(prev) }, nil
}

// trace emits a progress line when a Trace sink is configured.
func (r *Runner) trace(format string, args ...any) {
	if r.Trace != nil {
		r.Trace(format, args...)
	}
}

// clock returns the time source, defaulting to time.Now for Runners
// constructed without New.
func (r *Runner) clock() func() time.Time {
	if r.now != nil {
		return r.now
	}
	return time.Now
}
