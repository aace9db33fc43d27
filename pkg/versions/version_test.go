package versions

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) { //nolint:paralleltest // mutates package vars
	origVersion := Version
	origCommit := Commit
	origBuildDate := BuildDate
	defer func() {
		Version = origVersion
		Commit = origCommit
		BuildDate = origBuildDate
	}()

	t.Run("default dev build", func(t *testing.T) {
		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		info := GetVersionInfo()
		assert.Equal(t, "dev", info.Version)
		assert.Equal(t, "unknown", info.Commit)
		assert.Equal(t, runtime.Version(), info.GoVersion)
		assert.Equal(t, fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH), info.Platform)
	})

	t.Run("dev build with commit", func(t *testing.T) {
		Version = "dev"
		Commit = "abcdef1234567890"

		info := GetVersionInfo()
		assert.Equal(t, "build-abcdef12", info.Version)
	})

	t.Run("release build", func(t *testing.T) {
		Version = "0.2.0"
		Commit = "abcdef1234567890"
		BuildDate = "2026-08-30T00:00:00Z"

		info := GetVersionInfo()
		assert.Equal(t, "0.2.0", info.Version)
		assert.Equal(t, "2026-08-30T00:00:00Z", info.BuildDate)
	})
}
