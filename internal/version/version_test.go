package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	assert.Equal(t, "vplug vdev (built unknown)", GetVersionInfo())

	Version, BuildTime = "1.2.0", "2026-10-01"
	t.Cleanup(func() { Version, BuildTime = "dev", "unknown" })
	assert.Equal(t, "1.2.0", GetVersion())
	assert.Equal(t, "2026-10-01", GetBuildTime())
	assert.Equal(t, "vplug v1.2.0 (built 2026-10-01)", GetVersionInfo())
}
