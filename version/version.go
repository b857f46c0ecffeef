// Package version provides build and version information for codetwin, read from ldflags or from the VCS metadata
// the Go toolchain embeds at build time.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Masterminds/semver"
)

// These variables can be set via ldflags. Unset VCS values are filled in from the embedded build info.
var (
	// Version is the semantic version of the build.
	Version = "0.3.0"
	// GitCommit is the git commit hash.
	GitCommit = ""
	// GitCommitTime is the RFC 3339 timestamp of the git commit.
	GitCommitTime = ""
	// GitTreeDirty is "true" if the git tree had uncommitted changes at build time.
	GitTreeDirty = ""
)

// Info describes a build of codetwin.
type Info struct {
	Version       string `json:"version"`
	GitCommit     string `json:"gitCommit,omitempty"`
	GitCommitTime string `json:"gitCommitTime,omitempty"`
	GitTreeDirty  bool   `json:"gitTreeDirty"`
	GoVersion     string `json:"goVersion"`
}

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	fillFromBuildSettings(info.Settings)
}

// fillFromBuildSettings sets every VCS variable which was not provided through ldflags from the build settings.
func fillFromBuildSettings(settings []debug.BuildSetting) {
	targets := map[string]*string{
		"vcs.revision": &GitCommit,
		"vcs.time":     &GitCommitTime,
		"vcs.modified": &GitTreeDirty,
	}
	for _, setting := range settings {
		if target, ok := targets[setting.Key]; ok && *target == "" {
			*target = setting.Value
		}
	}
}

// GetInfo returns the version information of the running binary.
func GetInfo() Info {
	return Info{
		Version:       Version,
		GitCommit:     GitCommit,
		GitCommitTime: GitCommitTime,
		GitTreeDirty:  GitTreeDirty == "true",
		GoVersion:     runtime.Version(),
	}
}

// Semver parses the version of the build. An error is returned if it was overridden with a non-semantic version.
func (i Info) Semver() (*semver.Version, error) {
	return semver.NewVersion(i.Version)
}

// ShortCommit returns the first 7 characters of the git commit hash.
func (i Info) ShortCommit() string {
	if len(i.GitCommit) > 7 {
		return i.GitCommit[:7]
	}
	return i.GitCommit
}

// commit returns the short commit hash, suffixed if the tree was dirty.
func (i Info) commit() string {
	if i.GitTreeDirty {
		return i.ShortCommit() + "-dirty"
	}
	return i.ShortCommit()
}

// String returns a multi-line description of the build.
func (i Info) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("codetwin version %s\n", i.Version))
	if i.GitCommit != "" {
		sb.WriteString(fmt.Sprintf("  Commit:     %s\n", i.commit()))
	}
	if i.GitCommitTime != "" {
		built := i.GitCommitTime
		if t, err := time.Parse(time.RFC3339, i.GitCommitTime); err == nil {
			built = t.Format("2006-01-02 15:04:05 MST")
		}
		sb.WriteString(fmt.Sprintf("  Built:      %s\n", built))
	}
	sb.WriteString(fmt.Sprintf("  Go version: %s\n", i.GoVersion))
	return sb.String()
}

// Short returns a single-line version, with build metadata appended if the commit is known.
func (i Info) Short() string {
	if i.GitCommit == "" {
		return i.Version
	}
	return i.Version + "+" + i.commit()
}
