// Package docker wraps the Docker Engine SDK for the test-runner wrapper:
// client construction with socket auto-detection, the test-image build,
// the containerized test run, and label-based discovery of leftover
// runner resources.
package docker

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/gittip/dependency-injection/internal/model"
)

// pingTimeout bounds the daemon liveness probe. Docker Desktop on macOS
// can take a few seconds to answer when it is waking up; five seconds
// covers that without hanging a failed invocation for long.
const pingTimeout = 5 * time.Second

// Client wraps the Docker SDK client. The wrapper exists to centralize
// socket detection and error translation; everything engine-specific
// stays behind it.
type Client struct {
	inner *client.Client
}

// NewClient connects to the Docker daemon.
//
// The connection string is taken from DOCKER_HOST when set; otherwise
// the platform's conventional socket locations are probed:
//
//	Linux:   /var/run/docker.sock
//	macOS:   /var/run/docker.sock, then ~/.docker/run/docker.sock
//	Windows: the docker_engine named pipe
//
// API version negotiation is enabled so one binary works against a range
// of daemon versions. Failures come back as a CLIError with
// ExitDockerNotRunning.
func NewClient() (*Client, error) {
	host := os.Getenv("DOCKER_HOST")
	if host == "" {
		detected, err := detectHost()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitDockerNotRunning,
				"Docker socket not found", err)
		}
		host = detected
	}

	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for host %q", host), err)
	}
	return &Client{inner: c}, nil
}

// detectHost probes the platform's known daemon endpoints and returns a
// connection string for the first that exists. Existence of the socket
// file is checked rather than dialing it; Ping does the real liveness
// check afterwards.
func detectHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return probeSockets("/var/run/docker.sock")

	case "darwin":
		candidates := []string{"/var/run/docker.sock"}
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates, home+"/.docker/run/docker.sock")
		}
		return probeSockets(candidates...)

	case "windows":
		// Named pipes are invisible to os.Stat, so a short dial is the
		// only way to probe.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, time.Second)
		if err != nil {
			return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)
		}
		conn.Close()
		return "npipe://" + pipePath, nil

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// probeSockets returns the Docker host URI for the first Unix socket path
// that exists, in the order given.
func probeSockets(paths ...string) (string, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return "unix://" + p, nil
		}
	}
	return "", fmt.Errorf("Docker socket not found at any of %v (is Docker running?)", paths)
}

// Ping verifies the daemon is reachable and responsive.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			"Docker daemon is not responding (is Docker running?)", err)
	}
	return nil
}

// Close releases the client's resources. Safe to call more than once.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

// Inner exposes the underlying SDK client for operations this wrapper
// does not cover.
func (c *Client) Inner() *client.Client {
	return c.inner
}
