//go:build !windows

package mpv

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/PizzaHomicide/vplug/internal/log"
)

// setupPlayerProcess puts mpv into its own process group so terminal signals reach only us
func setupPlayerProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// removeSocket deletes the unix socket file mpv leaves behind
func removeSocket(path string) {
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			log.Warn("Failed to remove mpv socket file", "path", path, "error", err)
		}
	}
}
