// Package runner orchestrates one wrapper invocation: decide the run
// plan, build the test image, run the containerized orchestrator, and
// propagate its exit status.
//
// The decisions that matter — whether the cache directory gets mounted,
// and that forwarded arguments survive untouched — are computed by pure
// functions over a RunPlan before the Docker daemon is involved, so they
// are testable without one.
package runner

import (
	"os"
	"path"
	"path/filepath"

	"github.com/gittip/dependency-injection/internal/docker"
	"github.com/gittip/dependency-injection/internal/model"
	"github.com/gittip/dependency-injection/internal/project"
	"github.com/gittip/dependency-injection/internal/testenv"
)

// BuildPlan computes the run plan for one invocation.
//
// The cache mount rule: if the host cache directory (cfg.CacheDir under
// the project root) exists from a prior run, it is bind-mounted at the
// fixed in-container cache path so repeated runs reuse downloaded and
// built artifacts. If it does not exist, the plan carries no mounts at
// all — the wrapper never creates the directory itself.
//
// Forwarded arguments are copied verbatim, in order. The wrapper
// interprets none of them; they become the orchestrator's own CLI
// arguments inside the container.
func BuildPlan(cfg *testenv.Config, proj *project.Info, forwarded []string, labels map[string]string) model.RunPlan {
	plan := model.RunPlan{
		Image:  docker.ImageTag(proj.Name),
		Args:   append([]string(nil), forwarded...),
		Labels: labels,
	}

	hostCache := filepath.Join(proj.Root, cfg.CacheDir)
	if info, err := os.Stat(hostCache); err == nil && info.IsDir() {
		plan.Mounts = append(plan.Mounts, model.Mount{
			HostPath:      hostCache,
			ContainerPath: path.Clean(cfg.ContainerCachePath),
		})
	}

	return plan
}

// RenderCommand renders the plan as the equivalent `docker run` argv.
// This is what --verbose echoes, and it is the reference artifact for
// checking the wrapper's contract: a mount flag appears exactly when the
// plan has a cache mount, and the forwarded arguments are the unmodified
// tail.
func RenderCommand(plan model.RunPlan) []string {
	argv := []string{"docker", "run", "--rm"}
	for _, m := range plan.Mounts {
		argv = append(argv, "-v", m.String())
	}
	argv = append(argv, plan.Image)
	argv = append(argv, plan.Args...)
	return argv
}
