//go:build !linux

// internal/system/reboot_other.go
package system

import (
	"errors"
	"log/slog"
)

// Reboot is only implemented on Linux.
type Reboot struct {
	Logger *slog.Logger
}

func (Reboot) Restart(string) error {
	return errors.New("system: reboot not supported on this platform")
}
