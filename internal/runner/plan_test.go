package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gittip/dependency-injection/internal/model"
	"github.com/gittip/dependency-injection/internal/project"
	"github.com/gittip/dependency-injection/internal/testenv"
)

func testProject(t *testing.T) *project.Info {
	t.Helper()
	root := t.TempDir()
	return &project.Info{Root: root, Name: filepath.Base(root)}
}

func TestBuildPlanWithoutCacheDir(t *testing.T) {
	cfg := testenv.Default()
	proj := testProject(t)

	plan := BuildPlan(cfg, proj, nil, nil)

	// No cache directory on the host means no mount at all; the wrapper
	// never creates the directory itself.
	assert.Empty(t, plan.Mounts)
	_, ok := plan.CacheMount()
	assert.False(t, ok)

	argv := RenderCommand(plan)
	assert.NotContains(t, argv, "-v")
	assert.Equal(t, []string{"docker", "run", "--rm", plan.Image}, argv)
}

func TestBuildPlanWithCacheDir(t *testing.T) {
	cfg := testenv.Default()
	proj := testProject(t)
	hostCache := filepath.Join(proj.Root, cfg.CacheDir)
	require.NoError(t, os.Mkdir(hostCache, 0o755))

	plan := BuildPlan(cfg, proj, nil, nil)

	require.Len(t, plan.Mounts, 1)
	mount, ok := plan.CacheMount()
	require.True(t, ok)
	assert.Equal(t, hostCache, mount.HostPath)
	assert.Equal(t, "/home/tester/.cache", mount.ContainerPath)
	assert.NoError(t, mount.Validate())

	argv := RenderCommand(plan)
	assert.Equal(t, []string{
		"docker", "run", "--rm",
		"-v", hostCache + ":/home/tester/.cache",
		plan.Image,
	}, argv)
}

func TestBuildPlanCacheFileIsNotADir(t *testing.T) {
	cfg := testenv.Default()
	proj := testProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(proj.Root, cfg.CacheDir), []byte("x"), 0o644))

	plan := BuildPlan(cfg, proj, nil, nil)
	assert.Empty(t, plan.Mounts)
}

func TestBuildPlanForwardsArgsVerbatim(t *testing.T) {
	cfg := testenv.Default()
	proj := testProject(t)

	forwarded := []string{"-e", "py27", "--", "-k", "test_thing"}
	plan := BuildPlan(cfg, proj, forwarded, nil)

	assert.Equal(t, forwarded, plan.Args)

	// The plan holds its own copy; mutating the caller's slice afterwards
	// must not change it.
	forwarded[0] = "mutated"
	assert.Equal(t, "-e", plan.Args[0])

	argv := RenderCommand(plan)
	assert.Equal(t, []string{"-e", "py27", "--", "-k", "test_thing"}, argv[len(argv)-5:])
}

func TestBuildPlanImageAndLabels(t *testing.T) {
	cfg := testenv.Default()
	proj := &project.Info{Root: t.TempDir(), Name: "MyProject"}
	labels := map[string]string{"runtests.project": "MyProject"}

	plan := BuildPlan(cfg, proj, nil, labels)

	assert.Equal(t, "runtests-myproject:latest", plan.Image)
	assert.Equal(t, labels, plan.Labels)
}

func TestRenderCommandMountBeforeImage(t *testing.T) {
	plan := model.RunPlan{
		Image: "runtests-x:latest",
		Args:  []string{"-e", "py27"},
		Mounts: []model.Mount{
			{HostPath: "/proj/.testenv-cache", ContainerPath: "/home/tester/.cache"},
		},
	}

	assert.Equal(t, []string{
		"docker", "run", "--rm",
		"-v", "/proj/.testenv-cache:/home/tester/.cache",
		"runtests-x:latest",
		"-e", "py27",
	}, RenderCommand(plan))
}
