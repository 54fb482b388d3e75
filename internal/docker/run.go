package docker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"

	"github.com/gittip/dependency-injection/internal/model"
)

// RunContainer executes one containerized test run according to the plan
// and returns the container's exit status.
//
// The sequence mirrors `docker run --rm`: create, attach, start, stream
// output until the container stops, then force-remove it. The wrapper
// adds no output of its own — whatever the orchestrator writes to
// stdout/stderr is relayed verbatim to the given writers, and its exit
// status is the return value, untouched.
func (c *Client) RunContainer(ctx context.Context, plan model.RunPlan, stdout, stderr io.Writer) (int, error) {
	binds := make([]string, 0, len(plan.Mounts))
	for _, m := range plan.Mounts {
		if err := m.Validate(); err != nil {
			return 0, model.WrapCLIError(model.ExitGeneralError, "invalid cache mount", err)
		}
		binds = append(binds, m.String())
	}

	cfg := &container.Config{
		Image:  plan.Image,
		Cmd:    plan.Args,
		Labels: plan.Labels,
	}
	hostCfg := &container.HostConfig{
		Binds: binds,
	}

	created, err := c.inner.ContainerCreate(ctx, cfg, hostCfg, nil, nil, containerName(plan))
	if err != nil {
		return 0, model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create container for image %q", plan.Image), err)
	}
	id := created.ID

	// Removal uses a background context: when the run is cancelled, the
	// container should still be cleaned up.
	defer func() {
		_ = c.inner.ContainerRemove(context.Background(), id, container.RemoveOptions{
			Force: true,
		})
	}()

	// Attach before start, like docker run does, so no early output is
	// lost between the two calls.
	attach, err := c.inner.ContainerAttach(ctx, id, container.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return 0, model.WrapCLIError(model.ExitDockerNotRunning,
			"failed to attach to test container", err)
	}
	defer attach.Close()

	if err := c.inner.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return 0, model.WrapCLIError(model.ExitDockerNotRunning,
			"failed to start test container", err)
	}

	// Without a TTY the attach stream multiplexes stdout and stderr;
	// stdcopy demultiplexes back onto the two writers.
	copyDone := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(stdout, stderr, attach.Reader)
		copyDone <- err
	}()

	statusCh, errCh := c.inner.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	return waitForExit(statusCh, errCh, copyDone)
}

// waitForExit blocks until the wait resolves and returns the container's
// exit status. Success is only ever reported off a received status; the
// error channel never produces one, even when it delivers nil, because a
// nil there still means no exit status was observed.
func waitForExit(statusCh <-chan container.WaitResponse, errCh <-chan error, copyDone <-chan error) (int, error) {
	select {
	case err := <-errCh:
		if err == nil {
			err = errors.New("wait ended before an exit status was received")
		}
		return 0, model.WrapCLIError(model.ExitGeneralError,
			"failed waiting for test container", err)
	case st := <-statusCh:
		// Drain the output copy so the tail of the logs is not cut off.
		<-copyDone
		return int(st.StatusCode), nil
	}
}

// containerName derives a unique, recognizable container name:
// "runtests-<project>-<fragment>". The uuid fragment keeps concurrent or
// back-to-back invocations from colliding on the name.
func containerName(plan model.RunPlan) string {
	project := plan.Labels[LabelProject]
	if project == "" {
		project = "project"
	}
	return "runtests-" + project + "-" + uuid.NewString()[:8]
}
