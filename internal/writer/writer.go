// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tamzrod/panel-controller/internal/status"
)

type namedWriter struct {
	name string
	w    StatusWriter
}

// Fanout delivers every status to each registered writer in order.
// A failing writer does not stop the others; all failures are joined.
type Fanout struct {
	mu      sync.RWMutex
	writers []namedWriter
}

func NewFanout() *Fanout {
	return &Fanout{}
}

// Add registers a writer under a name used in error messages.
func (f *Fanout) Add(name string, w StatusWriter) {
	if w == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writers = append(f.writers, namedWriter{name: name, w: w})
}

// Len returns the number of registered writers.
func (f *Fanout) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.writers)
}

func (f *Fanout) WriteStatus(s status.Snapshot, line []byte) error {
	f.mu.RLock()
	writers := f.writers
	f.mu.RUnlock()

	var errs []error
	for _, nw := range writers {
		if err := nw.w.WriteStatus(s, line); err != nil {
			errs = append(errs, fmt.Errorf("writer %s: %w", nw.name, err))
		}
	}
	return errors.Join(errs...)
}
