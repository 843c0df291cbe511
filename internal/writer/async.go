// internal/writer/async.go
package writer

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/tamzrod/panel-controller/internal/status"
)

// ErrClosed is returned by an Async writer after Close.
var ErrClosed = errors.New("writer closed")

type pending struct {
	s    status.Snapshot
	line []byte
}

// Async runs a slow writer on its own goroutine. WriteStatus never
// blocks: it replaces any line the worker has not picked up yet, so the
// worker always delivers the most recent status.
type Async struct {
	name string
	w    StatusWriter
	log  *slog.Logger

	mail chan pending
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	mu      sync.Mutex
	failing bool
	dropped uint64
}

func NewAsync(name string, w StatusWriter, logger *slog.Logger) *Async {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Async{
		name: name,
		w:    w,
		log:  logger,
		mail: make(chan pending, 1),
		done: make(chan struct{}),
	}
	a.wg.Add(1)
	go a.loop()
	return a
}

func (a *Async) WriteStatus(s status.Snapshot, line []byte) error {
	select {
	case <-a.done:
		return ErrClosed
	default:
	}

	p := pending{s: s, line: append([]byte(nil), line...)}
	for {
		select {
		case a.mail <- p:
			return nil
		default:
		}
		// Mailbox full: discard the stale line and retry.
		select {
		case <-a.mail:
			a.mu.Lock()
			a.dropped++
			a.mu.Unlock()
		default:
		}
	}
}

// Dropped returns how many lines were superseded before delivery.
func (a *Async) Dropped() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Close stops the worker. A write already in progress is allowed to
// finish; a queued line is discarded.
func (a *Async) Close() error {
	a.once.Do(func() { close(a.done) })
	a.wg.Wait()
	return nil
}

func (a *Async) loop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.done:
			return
		case p := <-a.mail:
			a.deliver(p)
		}
	}
}

// deliver logs only when the writer changes between healthy and failing.
func (a *Async) deliver(p pending) {
	err := a.w.WriteStatus(p.s, p.line)

	a.mu.Lock()
	was := a.failing
	a.failing = err != nil
	a.mu.Unlock()

	switch {
	case err != nil && !was:
		a.log.Warn("status writer failing", "writer", a.name, "err", err)
	case err == nil && was:
		a.log.Info("status writer recovered", "writer", a.name)
	case err != nil:
		a.log.Debug("status writer still failing", "writer", a.name, "err", err)
	}
}
