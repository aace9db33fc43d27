package useragent

import (
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	t.Parallel()

	ua := String()

	assert.True(t, strings.HasPrefix(ua, "perch/"), "user agent should start with the product token")
	assert.Contains(t, ua, runtime.Version())
	assert.Contains(t, ua, fmt.Sprintf("os %s", runtime.GOOS))
	assert.Contains(t, ua, fmt.Sprintf("arch %s", runtime.GOARCH))
}
