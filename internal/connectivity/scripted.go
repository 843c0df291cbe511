// internal/connectivity/scripted.go
package connectivity

import (
	"context"
	"sync"
)

// Outcome is what a Scripted driver reports after one association.
type Outcome uint8

const (
	OutcomeConnect Outcome = iota
	OutcomeDisconnect
	OutcomeSilent // report nothing
)

// Scripted is a Driver that plays back a fixed list of outcomes, one per
// Associate call. When the list runs out the last outcome repeats; an
// empty list always connects. It backs hosts without a radio and tests.
type Scripted struct {
	mu       sync.Mutex
	events   chan Event
	script   []Outcome
	addr     string
	assoc    int
	stations []StationConfig
	stops    int
	aps      []APConfig
}

func NewScripted(addr string, script ...Outcome) *Scripted {
	return &Scripted{
		events: make(chan Event, 32),
		script: script,
		addr:   addr,
	}
}

func (d *Scripted) Events() <-chan Event { return d.events }

func (d *Scripted) StartStation(_ context.Context, cfg StationConfig) error {
	d.mu.Lock()
	d.stations = append(d.stations, cfg)
	d.mu.Unlock()
	d.events <- Event{Kind: StationStarted}
	return nil
}

func (d *Scripted) Associate(context.Context) error {
	d.mu.Lock()
	out := OutcomeConnect
	if n := len(d.script); n > 0 {
		i := d.assoc
		if i >= n {
			i = n - 1
		}
		out = d.script[i]
	}
	d.assoc++
	d.mu.Unlock()

	switch out {
	case OutcomeConnect:
		d.events <- Event{Kind: GotIP, Addr: d.addr}
	case OutcomeDisconnect:
		d.events <- Event{Kind: Disconnected}
	}
	return nil
}

func (d *Scripted) StopStation(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
	return nil
}

func (d *Scripted) StartAccessPoint(_ context.Context, cfg APConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.aps = append(d.aps, cfg)
	return nil
}

// Inject delivers an unsolicited event.
func (d *Scripted) Inject(ev Event) {
	d.events <- ev
}

// Associations returns how many times Associate was called.
func (d *Scripted) Associations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.assoc
}

// AccessPoints returns every access point started.
func (d *Scripted) AccessPoints() []APConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]APConfig(nil), d.aps...)
}

// Stations returns every station configuration started.
func (d *Scripted) Stations() []StationConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]StationConfig(nil), d.stations...)
}

// Stops returns how many times StopStation was called.
func (d *Scripted) Stops() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops
}
