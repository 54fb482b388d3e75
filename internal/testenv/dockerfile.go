package testenv

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// hostUIDArg is the build argument carrying the invoking host user's
// numeric ID. The default keeps the Dockerfile buildable by hand.
const hostUIDArg = "HOST_UID"

// RenderDockerfile generates the Dockerfile for the test environment.
//
// The produced image:
//   - starts from the pinned base image and installs the system packages
//     and the test toolchain;
//   - creates a non-root user whose UID comes from the HOST_UID build
//     argument, so files the container writes into a bind-mounted cache
//     directory stay owned by the invoking host user;
//   - relocates the package manager's root-owned cache into that user's
//     home and re-owns it, so installs running as the user neither fail
//     on permissions nor re-download from scratch;
//   - copies the project sources in, re-owned to the user;
//   - ends as the non-root user with the orchestrator as entrypoint.
//     There is no privilege escalation after the USER instruction.
//
// The Dockerfile is returned as a string; the builder injects it into
// the build-context tar instead of writing it into the project tree.
func RenderDockerfile(cfg *Config, labels map[string]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "FROM %s\n\n", cfg.BaseImage)

	if len(labels) > 0 {
		// Sorted for a reproducible Dockerfile; map iteration order would
		// otherwise defeat Docker's layer cache.
		keys := make([]string, 0, len(labels))
		for k := range labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "LABEL %q=%q\n", k, labels[k])
		}
		b.WriteString("\n")
	}

	if len(cfg.SystemPackages) > 0 {
		fmt.Fprintf(&b,
			"RUN apt-get update \\\n    && apt-get install -y --no-install-recommends %s \\\n    && rm -rf /var/lib/apt/lists/*\n\n",
			strings.Join(cfg.SystemPackages, " "))
	}

	if len(cfg.Toolchain) > 0 {
		fmt.Fprintf(&b, "RUN pip3 install --break-system-packages %s\n\n",
			strings.Join(cfg.Toolchain, " "))
	}

	home := path.Join("/home", cfg.User)
	fmt.Fprintf(&b, "ARG %s=1000\n", hostUIDArg)
	fmt.Fprintf(&b, "RUN useradd --create-home --uid ${%s} %s\n\n", hostUIDArg, cfg.User)

	// The toolchain install above ran as root, so pip's download cache
	// sits under /root/.cache. Move it into the new user's home so runs
	// as that user reuse it instead of failing on permissions.
	fmt.Fprintf(&b,
		"RUN if [ -d /root/.cache ]; then mv /root/.cache %[1]s/.cache; else mkdir -p %[1]s/.cache; fi \\\n    && chown -R %[2]s %[1]s/.cache\n\n",
		home, cfg.User)

	fmt.Fprintf(&b, "COPY . %s\n", cfg.Workdir)
	fmt.Fprintf(&b, "RUN chown -R %s %s\n\n", cfg.User, cfg.Workdir)

	fmt.Fprintf(&b, "USER %s\n", cfg.User)
	fmt.Fprintf(&b, "WORKDIR %s\n", cfg.Workdir)
	fmt.Fprintf(&b, "ENTRYPOINT %s\n", jsonArgv(cfg.Entrypoint))

	return b.String()
}

// jsonArgv renders an argv in Dockerfile exec form: ["cmd", "arg"].
func jsonArgv(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = fmt.Sprintf("%q", a)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
