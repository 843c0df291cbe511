// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run starts the ticker loop. It also serves Snapshot requests, so every
// panel access happens on this goroutine. No overlap. No retries.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.log.Info("status synchronizer started", "interval", p.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce()
		case req := <-p.reqs:
			req.reply <- p.sampleOnce()
		}
	}
}

// Snapshot asks the Run goroutine for an out-of-band snapshot. The
// result is delivered to the sink like any other cycle and returned to
// the caller. It blocks until Run serves it or ctx ends.
func (p *Poller) Snapshot(ctx context.Context) (PollResult, error) {
	req := request{reply: make(chan PollResult, 1)}

	select {
	case p.reqs <- req:
	case <-ctx.Done():
		return PollResult{}, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res, nil
	case <-ctx.Done():
		return PollResult{}, ctx.Err()
	}
}
