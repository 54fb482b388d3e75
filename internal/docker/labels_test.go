package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLabels(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.FixedZone("JST", 9*3600))
	labels := BuildLabels("myproject", 1234, now)

	assert.Equal(t, "run-tests-with-docker", labels[LabelManagedBy])
	assert.Equal(t, "myproject", labels[LabelProject])
	assert.Equal(t, "1234", labels[LabelHostUID])
	assert.Equal(t, "2026-03-14T06:09:26Z", labels[LabelCreatedAt])
}

func TestParseHostUID(t *testing.T) {
	tests := []struct {
		name    string
		labels  map[string]string
		wantUID int
		wantOK  bool
	}{
		{
			name:    "present",
			labels:  map[string]string{LabelHostUID: "501"},
			wantUID: 501,
			wantOK:  true,
		},
		{
			name:   "absent",
			labels: map[string]string{},
		},
		{
			name:   "malformed",
			labels: map[string]string{LabelHostUID: "not-a-number"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uid, ok := ParseHostUID(tt.labels)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantUID, uid)
		})
	}
}

func TestManagedFilter(t *testing.T) {
	t.Run("all projects", func(t *testing.T) {
		args := ManagedFilter("")
		values := args.Get("label")
		require.Len(t, values, 1)
		assert.Contains(t, values, LabelManagedBy+"="+ManagedByValue)
	})

	t.Run("single project", func(t *testing.T) {
		args := ManagedFilter("myproject")
		values := args.Get("label")
		require.Len(t, values, 2)
		assert.Contains(t, values, LabelManagedBy+"="+ManagedByValue)
		assert.Contains(t, values, LabelProject+"=myproject")
	})
}

func TestImageTag(t *testing.T) {
	assert.Equal(t, "runtests-myproject:latest", ImageTag("MyProject"))
	assert.Equal(t, "runtests-dependency-injection:latest", ImageTag("dependency-injection"))
}
