package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoFormatting(t *testing.T) {
	info := Info{
		Version:       "1.2.3",
		GitCommit:     "0123456789abcdef",
		GitCommitTime: "2024-05-01T10:00:00Z",
		GitTreeDirty:  true,
		GoVersion:     "go1.23.0",
	}
	assert.Equal(t, "0123456", info.ShortCommit())
	assert.Equal(t, "1.2.3+0123456-dirty", info.Short())
	assert.Contains(t, info.String(), "codetwin version 1.2.3")
	assert.Contains(t, info.String(), "2024-05-01 10:00:00 UTC")

	clean := Info{Version: "1.2.3", GoVersion: "go1.23.0"}
	assert.Equal(t, "1.2.3", clean.Short())
	assert.NotContains(t, clean.String(), "Commit")

	v, err := info.Semver()
	require.NoError(t, err)
	assert.EqualValues(t, 2, v.Minor())
}

func TestFillFromBuildSettingsKeepsLdflags(t *testing.T) {
	defer func(commit, commitTime, dirty string) {
		GitCommit, GitCommitTime, GitTreeDirty = commit, commitTime, dirty
	}(GitCommit, GitCommitTime, GitTreeDirty)

	GitCommit, GitCommitTime, GitTreeDirty = "fromldflags", "", ""
	fillFromBuildSettings([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "fromvcs"},
		{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	})
	assert.Equal(t, "fromldflags", GitCommit)
	assert.Equal(t, "2024-05-01T10:00:00Z", GitCommitTime)
	assert.True(t, GetInfo().GitTreeDirty)
}
