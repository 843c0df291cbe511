// internal/poller/poller.go
package poller

import (
	"errors"
	"log/slog"
	"time"

	"github.com/tamzrod/panel-controller/internal/status"
)

// Evaluator abstracts the panel state machine.
// Evaluate may drive outputs; Sample must not.
type Evaluator interface {
	Evaluate() status.Snapshot
	Sample() status.Snapshot
}

// Sink receives every encoded snapshot. Delivery is best-effort.
type Sink interface {
	WriteStatus(s status.Snapshot, line []byte) error
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Interval time.Duration
}

// Poller is a clock-driven synchronizer. The evaluator is only ever
// touched from the goroutine running Run.
type Poller struct {
	cfg  Config
	eval Evaluator
	sink Sink
	log  *slog.Logger

	reqs chan request

	// Touched only from the goroutine running Run.
	sinkFailing bool
}

type request struct {
	reply chan PollResult
}

// New creates a poller with immutable config. sink may be nil.
func New(cfg Config, eval Evaluator, sink Sink, logger *slog.Logger) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if eval == nil {
		return nil, errors.New("poller: evaluator required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:  cfg,
		eval: eval,
		sink: sink,
		log:  logger,
		reqs: make(chan request),
	}, nil
}

// PollOnce performs exactly one control cycle and delivers the result.
func (p *Poller) PollOnce() PollResult {
	return p.deliver(SourceTick, p.eval.Evaluate())
}

// sampleOnce reads the panel without driving it and delivers the result.
func (p *Poller) sampleOnce() PollResult {
	return p.deliver(SourceDemand, p.eval.Sample())
}

func (p *Poller) deliver(src Source, s status.Snapshot) PollResult {
	res := PollResult{
		At:       time.Now(),
		Source:   src,
		Snapshot: s,
	}
	payload, err := status.Encode(s)
	if err != nil {
		res.Err = err
		p.log.Error("status encode failed", "source", src, "err", err)
		return res
	}
	res.Payload = payload

	if p.sink != nil {
		res.Err = p.sink.WriteStatus(s, res.Payload)
		p.noteDelivery(src, res.Err)
	}
	return res
}

// noteDelivery logs sink health changes, not every failed tick.
func (p *Poller) noteDelivery(src Source, err error) {
	switch {
	case err != nil && !p.sinkFailing:
		p.log.Warn("status delivery failed", "source", src, "err", err)
	case err == nil && p.sinkFailing:
		p.log.Info("status delivery recovered", "source", src)
	case err != nil:
		p.log.Debug("status delivery failed", "source", src, "err", err)
	}
	p.sinkFailing = err != nil
}
