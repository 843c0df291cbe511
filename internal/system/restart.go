// internal/system/restart.go
package system

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Restarter restarts the device. On success Restart does not return.
type Restarter interface {
	Restart(reason string) error
}

// Exit ends the process and leaves the restart to a supervisor
// (systemd Restart=always or similar).
type Exit struct {
	Code   int
	Logger *slog.Logger
}

func (e Exit) Restart(reason string) error {
	log := e.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Warn("restarting", "reason", reason, "method", "exit")
	os.Exit(e.Code)
	return nil
}

// New returns the restarter for a configured method ("reboot" or "exit").
func New(method string, logger *slog.Logger) (Restarter, error) {
	switch method {
	case "", "exit":
		return Exit{Code: 0, Logger: logger}, nil
	case "reboot":
		return Reboot{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("system: unknown restart method %q", method)
	}
}

// RestartAfter waits delay and then restarts. Errors are logged; there
// is nothing else to do with them.
func RestartAfter(r Restarter, delay time.Duration, reason string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	time.Sleep(delay)
	if err := r.Restart(reason); err != nil {
		logger.Error("restart failed", "reason", reason, "err", err)
	}
}
