package docker

import (
	"strconv"
	"time"

	"github.com/docker/docker/api/types/filters"
)

// Label key constants for the runtests.* schema. Both the built image and
// every run container carry these labels, so leftover resources can be
// discovered and cleaned up with a single label filter — no state file is
// kept on the host.
const (
	// LabelPrefix namespaces all runner labels away from labels set by
	// other tooling on the same daemon.
	LabelPrefix = "runtests."

	// LabelManagedBy marks resources created by this wrapper.
	// Key: "runtests.managed-by", value: always ManagedByValue.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelProject stores the project name the resource belongs to.
	LabelProject = LabelPrefix + "project"

	// LabelHostUID stores the HOST_UID the image was built with. Useful
	// when diagnosing cache-ownership problems: a mismatch between this
	// and the invoking user explains unwritable cache files.
	LabelHostUID = LabelPrefix + "host-uid"

	// LabelCreatedAt stores the RFC3339 creation timestamp.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value of LabelManagedBy.
const ManagedByValue = "run-tests-with-docker"

// BuildLabels constructs the label set applied to the test image and to
// every run container.
func BuildLabels(project string, hostUID int, now time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelProject:   project,
		LabelHostUID:   strconv.Itoa(hostUID),
		LabelCreatedAt: now.UTC().Format(time.RFC3339),
	}
}

// ManagedFilter returns the Docker API filter matching every resource
// this wrapper created, optionally narrowed to one project. Filtering
// server-side keeps discovery cheap even on busy daemons.
func ManagedFilter(project string) filters.Args {
	args := filters.NewArgs(filters.Arg("label", LabelManagedBy+"="+ManagedByValue))
	if project != "" {
		args.Add("label", LabelProject+"="+project)
	}
	return args
}

// ParseHostUID extracts the HOST_UID a resource was built with from its
// labels. The boolean is false when the label is absent or malformed.
func ParseHostUID(labels map[string]string) (int, bool) {
	raw, ok := labels[LabelHostUID]
	if !ok {
		return 0, false
	}
	uid, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return uid, true
}
