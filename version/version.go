// Package version provides build and version information for solbuild, taken from ldflags or from the VCS metadata
// Go embeds at build time.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// These variables can be set via ldflags at build time. If not set, the VCS fields are populated from
// runtime/debug.ReadBuildInfo().
var (
	// Version is the semantic version of the build.
	Version = "0.1.0"
	// GitCommit is the git commit hash.
	GitCommit = ""
	// GitCommitTime is the timestamp of the git commit.
	GitCommitTime = ""
	// GitTreeDirty indicates if the git tree was dirty at build time.
	GitTreeDirty = ""
)

// Info contains the full version information for the build.
type Info struct {
	Version       string
	GitCommit     string
	GitCommitTime string
	GitTreeDirty  bool
	GoVersion     string
	Platform      string
}

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	applyBuildSettings(info.Settings)
}

// applyBuildSettings fills unset VCS variables from build settings.
func applyBuildSettings(settings []debug.BuildSetting) {
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

// GetInfo returns the complete version information.
func GetInfo() Info {
	return Info{
		Version:       Version,
		GitCommit:     GitCommit,
		GitCommitTime: GitCommitTime,
		GitTreeDirty:  GitTreeDirty == "true",
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// commit returns the first 7 characters of the git commit hash, marked if the tree was dirty.
func (i Info) commit() string {
	commit := i.GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if commit != "" && i.GitTreeDirty {
		commit += "-dirty"
	}
	return commit
}

// String returns a formatted multi-line version string.
func (i Info) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("solbuild version %s\n", i.Version))
	if commit := i.commit(); commit != "" {
		sb.WriteString(fmt.Sprintf("  Commit:     %s\n", commit))
	}
	if i.GitCommitTime != "" {
		built := i.GitCommitTime
		if t, err := time.Parse(time.RFC3339, i.GitCommitTime); err == nil {
			built = t.UTC().Format("2006-01-02 15:04:05 MST")
		}
		sb.WriteString(fmt.Sprintf("  Built:      %s\n", built))
	}
	sb.WriteString(fmt.Sprintf("  Go version: %s\n", i.GoVersion))
	sb.WriteString(fmt.Sprintf("  Platform:   %s\n", i.Platform))
	return sb.String()
}

// Short returns a single-line version string suitable for --version output.
func (i Info) Short() string {
	if commit := i.commit(); commit != "" {
		return i.Version + "+" + commit
	}
	return i.Version
}
