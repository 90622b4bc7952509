package audiolib

import "runtime"

// Version is the semantic version of the audiolib module.
const Version = "0.3.0"

// VersionInfo contains build information.
type VersionInfo struct {
	Version   string
	GitCommit string // set via ldflags
	BuildTime string // set via ldflags
	GoVersion string
}

// GetVersionInfo returns the build information. GitCommit and BuildTime
// are populated at build time:
//
//	go build -ldflags="-X github.com/simonhull/audiolib.gitCommit=$(git rev-parse HEAD) \
//	  -X github.com/simonhull/audiolib.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

var (
	gitCommit = "unknown"
	buildTime = "unknown"
)
