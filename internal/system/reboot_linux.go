//go:build linux

// internal/system/reboot_linux.go
package system

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// Reboot flushes filesystems and reboots the kernel. Requires
// CAP_SYS_BOOT.
type Reboot struct {
	Logger *slog.Logger
}

func (r Reboot) Restart(reason string) error {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Warn("restarting", "reason", reason, "method", "reboot")

	unix.Sync()
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART); err != nil {
		return fmt.Errorf("system: reboot: %w", err)
	}
	return nil
}
