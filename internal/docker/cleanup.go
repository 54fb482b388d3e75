package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"

	"github.com/gittip/dependency-injection/internal/model"
)

// ListRunnerContainers returns every container created by this wrapper,
// including stopped ones, optionally narrowed to a project. Leftovers
// only exist after interrupted runs — a completed run removes its own
// container — so this is the discovery side of `clean`.
func (c *Client) ListRunnerContainers(ctx context.Context, project string) ([]container.Summary, error) {
	list, err := c.inner.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: ManagedFilter(project),
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning,
			"failed to list runner containers", err)
	}
	return list, nil
}

// RemoveRunnerContainers force-removes the given containers and returns
// how many were removed.
func (c *Client) RemoveRunnerContainers(ctx context.Context, containers []container.Summary) (int, error) {
	removed := 0
	for _, ctr := range containers {
		err := c.inner.ContainerRemove(ctx, ctr.ID, container.RemoveOptions{Force: true})
		if err != nil {
			return removed, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to remove container %.12s", ctr.ID), err)
		}
		removed++
	}
	return removed, nil
}

// ListRunnerImages returns the test images built by this wrapper,
// optionally narrowed to a project.
func (c *Client) ListRunnerImages(ctx context.Context, project string) ([]image.Summary, error) {
	list, err := c.inner.ImageList(ctx, image.ListOptions{
		Filters: ManagedFilter(project),
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning,
			"failed to list runner images", err)
	}
	return list, nil
}

// RemoveRunnerImages removes the given images and returns how many were
// removed. Removal is forced so a stale tag still referenced by a stopped
// container does not block cleanup.
func (c *Client) RemoveRunnerImages(ctx context.Context, images []image.Summary) (int, error) {
	removed := 0
	for _, img := range images {
		_, err := c.inner.ImageRemove(ctx, img.ID, image.RemoveOptions{Force: true})
		if err != nil {
			return removed, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to remove image %.12s", img.ID), err)
		}
		removed++
	}
	return removed, nil
}
