// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/panel-controller/internal/status"
)

// Source tells where a PollResult came from.
type Source uint8

const (
	SourceTick   Source = iota // periodic cycle
	SourceDemand               // out-of-band request
)

func (s Source) String() string {
	if s == SourceDemand {
		return "demand"
	}
	return "tick"
}

// PollResult is what one cycle produced.
type PollResult struct {
	At       time.Time
	Source   Source
	Snapshot status.Snapshot

	// Payload is the encoded single-line status, without newline.
	Payload []byte

	// Err is the sink delivery error, if any. The snapshot is valid
	// regardless.
	Err error
}
