// internal/writer/serial/serial.go
package serial

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tamzrod/panel-controller/internal/status"
	bugst "go.bug.st/serial"
)

// Config is one UART, always 8N1.
type Config struct {
	Port     string
	BaudRate int
}

// Opener opens the underlying port. ONE attempt per call.
type Opener func() (io.WriteCloser, error)

// PortOpener returns an Opener for a real serial device.
func PortOpener(cfg Config) Opener {
	return func() (io.WriteCloser, error) {
		mode := &bugst.Mode{
			BaudRate: cfg.BaudRate,
			DataBits: 8,
			Parity:   bugst.NoParity,
			StopBits: bugst.OneStopBit,
		}
		port, err := bugst.Open(cfg.Port, mode)
		if err != nil {
			return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
		}
		return port, nil
	}
}

// ReopenInterval is the minimum gap between attempts to open a missing
// port.
const ReopenInterval = 5 * time.Second

// ErrUnavailable is returned while the port is closed and the next
// reopen attempt is not yet due.
var ErrUnavailable = errors.New("serial port unavailable")

// Writer sends each status line followed by '\n'. Writes are
// serialized. After an I/O error the port is closed and reopened on a
// later write, at most once per ReopenInterval.
type Writer struct {
	mu   sync.Mutex
	open Opener
	port io.WriteCloser
	log  *slog.Logger

	now      func() time.Time
	retry    time.Duration
	nextOpen time.Time
	down     bool
}

// New tries to open the port once. A failure is logged, not returned:
// the sink is best-effort and retries on a later write.
func New(open Opener, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{open: open, log: logger, now: time.Now, retry: ReopenInterval}

	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.reopen()
	return w
}

// reopen opens the port and logs only when availability changes.
func (w *Writer) reopen() error {
	port, err := w.open()
	if err != nil {
		w.nextOpen = w.now().Add(w.retry)
		if !w.down {
			w.log.Warn("serial sink unavailable", "err", err, "retry", w.retry)
			w.down = true
		}
		return err
	}
	if w.down {
		w.log.Info("serial sink reopened")
		w.down = false
	}
	w.port = port
	return nil
}

func (w *Writer) WriteStatus(_ status.Snapshot, line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.port == nil {
		if w.now().Before(w.nextOpen) {
			return ErrUnavailable
		}
		if err := w.reopen(); err != nil {
			return err
		}
	}

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	if _, err := w.port.Write(buf); err != nil {
		_ = w.port.Close()
		w.port = nil
		if !w.down {
			w.log.Warn("serial sink lost", "err", err)
			w.down = true
		}
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.port == nil {
		return nil
	}
	err := w.port.Close()
	w.port = nil
	return err
}
