// internal/connectivity/oneshot.go
package connectivity

import "sync"

// oneshot carries a single boolean outcome from the event loop to the
// waiting caller. Only the first fire counts.
type oneshot struct {
	once sync.Once
	done chan struct{}
	ok   bool
}

func newOneshot() *oneshot {
	return &oneshot{done: make(chan struct{})}
}

// fire records the outcome. It reports whether this call won.
func (o *oneshot) fire(ok bool) bool {
	won := false
	o.once.Do(func() {
		o.ok = ok
		close(o.done)
		won = true
	})
	return won
}

func (o *oneshot) fired() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// result must only be called after done is closed.
func (o *oneshot) result() bool {
	return o.ok
}
