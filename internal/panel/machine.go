// internal/panel/machine.go
package panel

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tamzrod/panel-controller/internal/pins"
	"github.com/tamzrod/panel-controller/internal/status"
)

// DefaultPulse is how long the feedback output stays high after a capture.
const DefaultPulse = 100 * time.Millisecond

// Options tunes a Machine. Zero values take defaults.
type Options struct {
	Pulse  time.Duration
	Sleep  func(time.Duration)
	Logger *slog.Logger
}

// Machine decodes panel inputs into indicator levels and stored values.
//
// A Machine is NOT safe for concurrent use. Evaluate must be called from
// a single goroutine; the stored array belongs to that goroutine.
type Machine struct {
	bus    pins.Bus
	layout Layout
	pulse  time.Duration
	sleep  func(time.Duration)
	log    *slog.Logger

	stored [3]int
}

// New validates the layout and configures every line on the bus.
func New(bus pins.Bus, layout Layout, opts Options) (*Machine, error) {
	if bus == nil {
		return nil, fmt.Errorf("panel: nil bus")
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if err := bus.Configure(layout.Pins()); err != nil {
		return nil, fmt.Errorf("panel: configure pins: %w", err)
	}

	m := &Machine{
		bus:    bus,
		layout: layout,
		pulse:  opts.Pulse,
		sleep:  opts.Sleep,
		log:    opts.Logger,
	}
	if m.pulse <= 0 {
		m.pulse = DefaultPulse
	}
	if m.sleep == nil {
		m.sleep = time.Sleep
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m, nil
}

// Evaluate runs one control cycle and returns the resulting snapshot.
func (m *Machine) Evaluate() status.Snapshot {
	l := m.layout

	mode := status.ModeFromSwitch(
		int(m.bus.Read(l.ModeSwitch[0])),
		int(m.bus.Read(l.ModeSwitch[1])),
	)

	for _, p := range l.Indicators {
		m.bus.Write(p, pins.Low)
	}
	if n := mode.Indicator(); n > 0 {
		m.bus.Write(l.Indicators[n-1], pins.High)
	}

	if mode == status.ModeManual {
		m.manual()
	}

	s := m.Sample()
	s.Mode = mode
	return s
}

// manual captures the selected analog channel into the selected slot
// while the momentary input is held.
func (m *Machine) manual() {
	l := m.layout

	slot := DecodeSlot(
		int(m.bus.Read(l.SlotSwitch[0])),
		int(m.bus.Read(l.SlotSwitch[1])),
	)
	ch := l.Analog[0]
	if m.bus.Read(l.ChannelToggle) == pins.High {
		ch = l.Analog[1]
	}

	if m.bus.Read(l.Momentary) != pins.High {
		return
	}

	v := pins.ClampAnalog(m.bus.Sample(ch))
	m.stored[slot] = v
	m.log.Debug("value stored", "slot", slot, "channel", ch.Name, "value", v)

	m.bus.Write(l.Feedback, pins.High)
	m.sleep(m.pulse)
	m.bus.Write(l.Feedback, pins.Low)
}

// Sample reads the current pin state into a snapshot. It writes nothing
// and leaves the stored array alone.
func (m *Machine) Sample() status.Snapshot {
	l := m.layout
	rd := func(p pins.LogicalPin) int { return int(m.bus.Read(p)) }

	s := status.Snapshot{
		ModeSwitch: [2]int{rd(l.ModeSwitch[0]), rd(l.ModeSwitch[1])},
		Indicators: [3]int{rd(l.Indicators[0]), rd(l.Indicators[1]), rd(l.Indicators[2])},
		SlotSwitch: [2]int{rd(l.SlotSwitch[0]), rd(l.SlotSwitch[1])},
		Toggle:     rd(l.ChannelToggle),
		Momentary:  rd(l.Momentary),
		Analog: [2]int{
			pins.ClampAnalog(m.bus.Sample(l.Analog[0])),
			pins.ClampAnalog(m.bus.Sample(l.Analog[1])),
		},
		Stored: m.stored,
	}
	for j, js := range l.Joysticks {
		lines := make([]int, len(js))
		for i, p := range js {
			lines[i] = rd(p)
		}
		s.Joysticks[j] = lines
	}
	s.Mode = status.ModeFromSwitch(s.ModeSwitch[0], s.ModeSwitch[1])
	return s
}

// Stored returns a copy of the stored-value array.
func (m *Machine) Stored() [3]int {
	return m.stored
}

// DecodeSlot maps the slot switch onto a stored-value index.
// The fourth combination (1,1) falls through to slot 0.
func DecodeSlot(b1, b2 int) int {
	switch {
	case b1 == 0 && b2 == 0:
		return 0
	case b1 == 0 && b2 != 0:
		return 1
	case b1 != 0 && b2 == 0:
		return 2
	default:
		return 0
	}
}
