package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestInfoString ensures commit and build time are rendered when present.
func TestInfoString(t *testing.T) {
	info := Info{
		Version:       "1.2.3",
		GitCommit:     "0123456789abcdef",
		GitCommitTime: "2024-05-01T10:20:30Z",
		GitTreeDirty:  true,
		GoVersion:     "go1.23.3",
		Platform:      "linux/amd64",
	}
	assert.Equal(t, "1.2.3+0123456-dirty", info.Short())
	assert.Equal(t, "solbuild version 1.2.3\n"+
		"  Commit:     0123456-dirty\n"+
		"  Built:      2024-05-01 10:20:30 UTC\n"+
		"  Go version: go1.23.3\n"+
		"  Platform:   linux/amd64\n", info.String())

	bare := Info{Version: "1.2.3", GoVersion: "go1.23.3", Platform: "linux/amd64"}
	assert.Equal(t, "1.2.3", bare.Short())
	assert.NotContains(t, bare.String(), "Commit")
}

// TestApplyBuildSettings ensures only unset variables are filled from build settings.
func TestApplyBuildSettings(t *testing.T) {
	oldCommit, oldTime, oldDirty := GitCommit, GitCommitTime, GitTreeDirty
	t.Cleanup(func() { GitCommit, GitCommitTime, GitTreeDirty = oldCommit, oldTime, oldDirty })

	GitCommit, GitCommitTime, GitTreeDirty = "fromldflags", "", ""
	applyBuildSettings([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "fromvcs"},
		{Key: "vcs.time", Value: "2024-05-01T10:20:30Z"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "GOOS", Value: "linux"},
	})
	assert.Equal(t, "fromldflags", GitCommit)
	assert.Equal(t, "2024-05-01T10:20:30Z", GitCommitTime)
	assert.True(t, GetInfo().GitTreeDirty)
}
