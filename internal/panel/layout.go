// internal/panel/layout.go
package panel

import (
	"fmt"

	"github.com/tamzrod/panel-controller/internal/pins"
	"github.com/tamzrod/panel-controller/internal/status"
)

// Layout binds every panel function to a logical pin.
type Layout struct {
	ModeSwitch    [2]pins.LogicalPin // A1_1, A1_2
	Indicators    [3]pins.LogicalPin // A2 auto, A3 manual, A4 joystick
	SlotSwitch    [2]pins.LogicalPin // B1_1, B1_2
	ChannelToggle pins.LogicalPin    // B4
	Momentary     pins.LogicalPin    // B5
	Feedback      pins.LogicalPin    // B6
	Analog        [2]pins.LogicalPin // B2, B3 (ADC channels)
	Joysticks     [4][]pins.LogicalPin
}

func in(name string, line int) pins.LogicalPin {
	return pins.LogicalPin{Name: name, Line: line, Direction: pins.Input, Pull: pins.PullUp}
}

func out(name string, line int) pins.LogicalPin {
	return pins.LogicalPin{Name: name, Line: line, Direction: pins.Output}
}

func adc(name string, ch int) pins.LogicalPin {
	return pins.LogicalPin{Name: name, Line: ch, Direction: pins.Analog}
}

// DefaultLayout is the stock panel wiring on the 40-pin header (BCM
// numbering). GPIO 8-11 stay free for the MCP3208 on SPI0 with chip
// select 0; GPIO 7 (CE1) is reclaimed as a plain input. GPIO 14/15 are
// panel inputs, so the status link uses a USB serial adapter.
func DefaultLayout() Layout {
	return Layout{
		ModeSwitch:    [2]pins.LogicalPin{in("A1_1", 4), in("A1_2", 5)},
		Indicators:    [3]pins.LogicalPin{out("A2", 6), out("A3", 12), out("A4", 13)},
		SlotSwitch:    [2]pins.LogicalPin{in("B1_1", 16), in("B1_2", 17)},
		ChannelToggle: in("B4", 18),
		Momentary:     in("B5", 19),
		Feedback:      out("B6", 20),
		Analog:        [2]pins.LogicalPin{adc("B2", 0), adc("B3", 1)},
		Joysticks: [4][]pins.LogicalPin{
			{in("C1_1", 21), in("C1_2", 22), in("C1_3", 23), in("C1_4", 24)},
			{in("C2_1", 25), in("C2_2", 26), in("C2_3", 27), in("C2_4", 7)},
			{in("C3_1", 0), in("C3_2", 1), in("C3_3", 2), in("C3_4", 3)},
			{in("C4_1", 14), in("C4_2", 15)},
		},
	}
}

// Pins returns every pin in the layout, inputs first.
func (l Layout) Pins() []pins.LogicalPin {
	all := []pins.LogicalPin{
		l.ModeSwitch[0], l.ModeSwitch[1],
		l.SlotSwitch[0], l.SlotSwitch[1],
		l.ChannelToggle, l.Momentary,
	}
	for _, js := range l.Joysticks {
		all = append(all, js...)
	}
	all = append(all, l.Analog[0], l.Analog[1])
	all = append(all, l.Indicators[0], l.Indicators[1], l.Indicators[2], l.Feedback)
	return all
}

// Validate checks directions, joystick widths and that no line is bound
// twice. Analog channels live in their own namespace.
func (l Layout) Validate() error {
	seen := map[string]string{}
	for _, p := range l.Pins() {
		if p.Name == "" {
			return fmt.Errorf("panel: unnamed pin on line %d", p.Line)
		}
		key := fmt.Sprintf("digital|%d", p.Line)
		if p.Direction == pins.Analog {
			key = fmt.Sprintf("analog|%d", p.Line)
		}
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("panel: line %d used by %s and %s", p.Line, prev, p.Name)
		}
		seen[key] = p.Name
	}

	want := func(p pins.LogicalPin, d pins.Direction) error {
		if p.Direction != d {
			return fmt.Errorf("panel: %s must be %s, got %s", p.Name, d, p.Direction)
		}
		return nil
	}

	inputs := []pins.LogicalPin{
		l.ModeSwitch[0], l.ModeSwitch[1],
		l.SlotSwitch[0], l.SlotSwitch[1],
		l.ChannelToggle, l.Momentary,
	}
	for _, js := range l.Joysticks {
		inputs = append(inputs, js...)
	}
	for _, p := range inputs {
		if err := want(p, pins.Input); err != nil {
			return err
		}
	}
	for _, p := range append(l.Indicators[:], l.Feedback) {
		if err := want(p, pins.Output); err != nil {
			return err
		}
	}
	for _, p := range l.Analog {
		if err := want(p, pins.Analog); err != nil {
			return err
		}
	}

	for j, js := range l.Joysticks {
		if len(js) != status.JoystickWidths[j] {
			return fmt.Errorf("panel: joystick C%d needs %d lines, got %d", j+1, status.JoystickWidths[j], len(js))
		}
	}
	return nil
}

// Override returns a copy of the layout with per-name line and pull
// changes applied. Unknown names are rejected.
func (l Layout) Override(lines map[string]int, pulls map[string]pins.Pull) (Layout, error) {
	out := l
	for j, js := range l.Joysticks {
		out.Joysticks[j] = append([]pins.LogicalPin(nil), js...)
	}

	byName := map[string]*pins.LogicalPin{}
	for _, p := range out.refs() {
		byName[p.Name] = p
	}

	for name, line := range lines {
		p, ok := byName[name]
		if !ok {
			return Layout{}, fmt.Errorf("panel: unknown pin %q", name)
		}
		p.Line = line
	}
	for name, pull := range pulls {
		p, ok := byName[name]
		if !ok {
			return Layout{}, fmt.Errorf("panel: unknown pin %q", name)
		}
		if p.Direction != pins.Input {
			return Layout{}, fmt.Errorf("panel: pull on non-input pin %s", name)
		}
		p.Pull = pull
	}
	return out, nil
}

func (l *Layout) refs() []*pins.LogicalPin {
	r := []*pins.LogicalPin{
		&l.ModeSwitch[0], &l.ModeSwitch[1],
		&l.Indicators[0], &l.Indicators[1], &l.Indicators[2],
		&l.SlotSwitch[0], &l.SlotSwitch[1],
		&l.ChannelToggle, &l.Momentary, &l.Feedback,
		&l.Analog[0], &l.Analog[1],
	}
	for j := range l.Joysticks {
		for i := range l.Joysticks[j] {
			r = append(r, &l.Joysticks[j][i])
		}
	}
	return r
}
