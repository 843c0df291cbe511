// internal/status/decode.go
package status

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload is returned for payloads that do not follow the
// locked schema.
var ErrMalformedPayload = errors.New("status: malformed payload")

// inbound mirrors wire with pointer fields so missing keys are detected.
type inbound struct {
	A1_1   *int   `json:"A1_1"`
	A1_2   *int   `json:"A1_2"`
	A2     *int   `json:"A2"`
	A3     *int   `json:"A3"`
	A4     *int   `json:"A4"`
	B1_1   *int   `json:"B1_1"`
	B1_2   *int   `json:"B1_2"`
	B4     *int   `json:"B4"`
	B5     *int   `json:"B5"`
	B2_pot *int   `json:"B2_pot"`
	B3_pot *int   `json:"B3_pot"`
	C1     *[]int `json:"C1"`
	C2     *[]int `json:"C2"`
	C3     *[]int `json:"C3"`
	C4     *[]int `json:"C4"`
}

// Decode parses one payload line. Every field is required; digital fields
// must be 0 or 1, analog fields 0..4095 and joystick arrays must have
// their locked widths. Mode is derived from the mode switch.
func Decode(line []byte) (Snapshot, error) {
	var in inbound
	if err := json.Unmarshal(bytes.TrimSpace(line), &in); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var (
		s    Snapshot
		errs []error
	)

	digital := func(name string, p *int, dst *int) {
		switch {
		case p == nil:
			errs = append(errs, fmt.Errorf("%s missing", name))
		case *p != 0 && *p != 1:
			errs = append(errs, fmt.Errorf("%s=%d not a digital level", name, *p))
		default:
			*dst = *p
		}
	}
	analog := func(name string, p *int, dst *int) {
		switch {
		case p == nil:
			errs = append(errs, fmt.Errorf("%s missing", name))
		case *p < 0 || *p > AnalogMax:
			errs = append(errs, fmt.Errorf("%s=%d out of range", name, *p))
		default:
			*dst = *p
		}
	}
	lines := func(name string, p *[]int, width int, dst *[]int) {
		if p == nil {
			errs = append(errs, fmt.Errorf("%s missing", name))
			return
		}
		if len(*p) != width {
			errs = append(errs, fmt.Errorf("%s has %d lines, want %d", name, len(*p), width))
			return
		}
		out := make([]int, width)
		for i, v := range *p {
			if v != 0 && v != 1 {
				errs = append(errs, fmt.Errorf("%s[%d]=%d not a digital level", name, i, v))
				return
			}
			out[i] = v
		}
		*dst = out
	}

	digital("A1_1", in.A1_1, &s.ModeSwitch[0])
	digital("A1_2", in.A1_2, &s.ModeSwitch[1])
	digital("A2", in.A2, &s.Indicators[0])
	digital("A3", in.A3, &s.Indicators[1])
	digital("A4", in.A4, &s.Indicators[2])
	digital("B1_1", in.B1_1, &s.SlotSwitch[0])
	digital("B1_2", in.B1_2, &s.SlotSwitch[1])
	digital("B4", in.B4, &s.Toggle)
	digital("B5", in.B5, &s.Momentary)
	analog("B2_pot", in.B2_pot, &s.Analog[0])
	analog("B3_pot", in.B3_pot, &s.Analog[1])
	lines("C1", in.C1, JoystickWidths[0], &s.Joysticks[0])
	lines("C2", in.C2, JoystickWidths[1], &s.Joysticks[1])
	lines("C3", in.C3, JoystickWidths[2], &s.Joysticks[2])
	lines("C4", in.C4, JoystickWidths[3], &s.Joysticks[3])

	if len(errs) > 0 {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedPayload, errors.Join(errs...))
	}

	s.Mode = ModeFromSwitch(s.ModeSwitch[0], s.ModeSwitch[1])
	return s, nil
}

// ModeFromSwitch decodes the two mode-switch levels.
//
//	m1 m2  mode
//	 1  1  AUTO
//	 1  0  MANUAL
//	 0  1  JOYSTICK
//	 0  0  OFF
func ModeFromSwitch(m1, m2 int) Mode {
	switch {
	case m1 != 0 && m2 != 0:
		return ModeAuto
	case m1 != 0:
		return ModeManual
	case m2 != 0:
		return ModeJoystick
	default:
		return ModeOff
	}
}
