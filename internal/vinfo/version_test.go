package vinfo_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omarluq/sse-relay/internal/vinfo"
)

func TestDefaultsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, vinfo.Version)
	assert.NotEmpty(t, vinfo.Commit)
	assert.NotEmpty(t, vinfo.BuildDate)
}

func TestString(t *testing.T) {
	origVersion, origCommit := vinfo.Version, vinfo.Commit
	t.Cleanup(func() {
		vinfo.Version = origVersion
		vinfo.Commit = origCommit
	})

	tests := []struct {
		version string
		commit  string
		want    string
	}{
		{version: "v0.0.11-20-ga961617-dirty", commit: "a961617", want: "v0.0.11-a961617-20"},
		{version: "v1.2.0-3-gdeadbee", commit: "deadbee", want: "v1.2.0-deadbee-3"},
		{version: "v1.2.0", commit: "deadbee", want: "v1.2.0"},
		{version: "dev", commit: "none", want: "dev"},
	}

	for _, tt := range tests {
		vinfo.Version = tt.version
		vinfo.Commit = tt.commit
		assert.Equal(t, tt.want, vinfo.String(), tt.version)
	}
}

func TestLong(t *testing.T) {
	got := vinfo.Long()
	assert.True(t, strings.HasPrefix(got, vinfo.String()))
	assert.Contains(t, got, "commit: "+vinfo.Commit)
}
