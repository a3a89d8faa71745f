// Package vinfo holds build version information for sse-relay.
package vinfo

import (
	"regexp"
	"runtime"
)

var (
	// Version is the git-describe version (injected at build time via ldflags).
	Version = "dev"
	// Commit is the short git commit hash (injected at build time via ldflags).
	Commit = "none"
	// BuildDate is the build timestamp (injected at build time via ldflags).
	BuildDate = "unknown"
)

// describeRe matches `git describe --tags --dirty` output past a tag:
// <tag>-<commits since tag>-g<hash>[-dirty].
var describeRe = regexp.MustCompile(`^(.+)-(\d+)-g[0-9a-f]+(?:-dirty)?$`)

// String returns a compact version: the tag for a tagged build, or
// <tag>-<commit>-<commits since tag> for a build between tags.
func String() string {
	if m := describeRe.FindStringSubmatch(Version); m != nil {
		return m[1] + "-" + Commit + "-" + m[2]
	}
	return Version
}

// Long returns version, commit, build date and Go runtime.
func Long() string {
	return String() + " (commit: " + Commit + ", built: " + BuildDate + ", " + runtime.Version() + ")"
}
