// Package useragent builds the User-Agent header sent on API requests.
package useragent

import (
	"fmt"
	"runtime"

	"github.com/perchlabs/perch/pkg/versions"
)

// String returns the User-Agent value for outbound HTTP requests, for
// example "perch/0.1.0 (go go1.25.0; os linux; arch amd64)".
func String() string {
	info := versions.GetVersionInfo()
	return fmt.Sprintf("perch/%s (go %s; os %s; arch %s)",
		info.Version, info.GoVersion, runtime.GOOS, runtime.GOARCH)
}
