package mpv

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
)

// EnvSocketPath overrides the IPC socket location
const EnvSocketPath = "VPLUG_MPV_SOCKET"

// SocketPath returns the socket path for mpv IPC communication.  The environment variable wins over the configured
// path.  Without either, a path unique to this run is generated so several players can run side by side.
func SocketPath(configured string) string {
	if path := os.Getenv(EnvSocketPath); path != "" {
		return path
	}
	if configured != "" {
		return configured
	}

	name := "vplug-mpv-" + uuid.NewString()
	if runtime.GOOS == "windows" {
		return `\\.\pipe\` + name
	}

	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, name+".sock")
}
