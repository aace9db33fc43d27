// Package versions exposes the build version information stamped in at
// link time.
package versions

import (
	"fmt"
	"runtime"
)

// Values overridden at build time via ldflags.
var (
	// Version is the semantic version of this build.
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = "unknown"

	// BuildDate is the UTC timestamp of the build.
	BuildDate = "unknown"
)

// VersionInfo is the serializable description of this build.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information for this build.
func GetVersionInfo() VersionInfo {
	version := Version
	if version == "dev" && Commit != "unknown" && len(Commit) >= 8 {
		version = "build-" + Commit[:8]
	}

	return VersionInfo{
		Version:   version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
