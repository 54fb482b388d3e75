package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/gittip/dependency-injection/internal/model"
)

// dockerfileName is the name the rendered Dockerfile takes inside the
// build-context tar. It is deliberately not "Dockerfile" so a real
// Dockerfile checked into the project is never shadowed or clobbered.
const dockerfileName = ".runtests.dockerfile"

// BuildImage builds the test image described by params and streams the
// build output to out.
//
// The build context is a tar of the project directory with the rendered
// Dockerfile injected as an extra entry, so nothing is written into the
// project tree. The image is rebuilt unconditionally on every invocation;
// Docker's layer cache keeps the repeat cost down, and building against
// current sources every time is the point.
//
// Returns a CLIError with ExitBuildFailed when the daemon reports a build
// error.
func (c *Client) BuildImage(ctx context.Context, params model.BuildParams, out io.Writer) error {
	buildContext, err := tarBuildContext(params.ContextDir, params.Dockerfile, params.SkipDirs)
	if err != nil {
		return model.WrapCLIError(model.ExitBuildFailed,
			"failed to assemble build context", err)
	}

	uid := strconv.Itoa(params.HostUID)
	resp, err := c.inner.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:       []string{params.Tag},
		Dockerfile: dockerfileName,
		BuildArgs:  map[string]*string{"HOST_UID": &uid},
		Labels:     params.Labels,
		Remove:     true,
	})
	if err != nil {
		return model.WrapCLIError(model.ExitBuildFailed,
			fmt.Sprintf("failed to build image %q", params.Tag), err)
	}
	defer resp.Body.Close()

	if err := streamBuildOutput(resp.Body, out); err != nil {
		return model.WrapCLIError(model.ExitBuildFailed,
			fmt.Sprintf("build of image %q failed", params.Tag), err)
	}
	return nil
}

// streamBuildOutput decodes the daemon's JSON message stream, forwarding
// progress text to out. Build failures arrive inside the stream rather
// than as an HTTP error, so the stream must be drained to detect them.
func streamBuildOutput(body io.Reader, out io.Writer) error {
	dec := json.NewDecoder(body)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("malformed build output: %w", err)
		}
		if msg.Error != nil {
			return msg.Error
		}
		if msg.Stream != "" {
			fmt.Fprint(out, msg.Stream)
		}
	}
}

// tarBuildContext tars the project directory and injects the rendered
// Dockerfile as an extra entry. VCS metadata and the caller's skip
// directories (notably the host cache dir — large, and mounted at run
// time anyway) stay out of the context, which also keeps the image
// content stable across runs so layer caching actually helps.
func tarBuildContext(contextDir, dockerfile string, skipDirs []string) (io.Reader, error) {
	skip := map[string]bool{".git": true}
	for _, d := range skipDirs {
		skip[d] = true
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	err := filepath.WalkDir(contextDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(contextDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() && skip[d.Name()] {
			return filepath.SkipDir
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(p); err != nil {
				return err
			}
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		// Tar entries use forward slashes regardless of host platform.
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, err
	}

	hdr := &tar.Header{
		Name: dockerfileName,
		Mode: 0o600,
		Size: int64(len(dockerfile)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, err
	}
	if _, err := io.WriteString(tw, dockerfile); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}

	return &buf, nil
}

// ImageTag derives the image tag for a project: "runtests-<project>:latest",
// with the project name lowercased to satisfy Docker's reference grammar.
func ImageTag(project string) string {
	return "runtests-" + strings.ToLower(project) + ":latest"
}
