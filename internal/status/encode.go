// internal/status/encode.go
package status

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// wire is the payload layout. Field order is protocol-locked:
// consumers parse by name, but the order must not change either.
// C4 always carries two elements (C4_1, C4_2), not four: the fourth
// joystick is wired with two lines only. See JoystickWidths.
type wire struct {
	A1_1   int   `json:"A1_1"`
	A1_2   int   `json:"A1_2"`
	A2     int   `json:"A2"`
	A3     int   `json:"A3"`
	A4     int   `json:"A4"`
	B1_1   int   `json:"B1_1"`
	B1_2   int   `json:"B1_2"`
	B4     int   `json:"B4"`
	B5     int   `json:"B5"`
	B2_pot int   `json:"B2_pot"`
	B3_pot int   `json:"B3_pot"`
	C1     []int `json:"C1"`
	C2     []int `json:"C2"`
	C3     []int `json:"C3"`
	C4     []int `json:"C4"`
}

func toWire(s Snapshot) wire {
	return wire{
		A1_1:   bit(s.ModeSwitch[0]),
		A1_2:   bit(s.ModeSwitch[1]),
		A2:     bit(s.Indicators[0]),
		A3:     bit(s.Indicators[1]),
		A4:     bit(s.Indicators[2]),
		B1_1:   bit(s.SlotSwitch[0]),
		B1_2:   bit(s.SlotSwitch[1]),
		B4:     bit(s.Toggle),
		B5:     bit(s.Momentary),
		B2_pot: clamp12(s.Analog[0]),
		B3_pot: clamp12(s.Analog[1]),
		C1:     fixed(s.Joysticks[0], JoystickWidths[0]),
		C2:     fixed(s.Joysticks[1], JoystickWidths[1]),
		C3:     fixed(s.Joysticks[2], JoystickWidths[2]),
		C4:     fixed(s.Joysticks[3], JoystickWidths[3]),
	}
}

// Encode converts a Snapshot into the single-line JSON payload.
// No IO. No side effects. The result carries no trailing newline.
func Encode(s Snapshot) ([]byte, error) {
	b, err := json.Marshal(toWire(s))
	if err != nil {
		return nil, fmt.Errorf("status: encode: %w", err)
	}
	return b, nil
}

// EncodeCBOR converts a Snapshot into a CBOR map with the same keys and
// key order as Encode.
func EncodeCBOR(s Snapshot) ([]byte, error) {
	b, err := cbor.Marshal(toWire(s))
	if err != nil {
		return nil, fmt.Errorf("status: cbor encode: %w", err)
	}
	return b, nil
}

// EncodeRegisters converts a Snapshot into a full status block.
// Layout is protocol-locked, see constants.go.
func EncodeRegisters(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerBlock)

	regs[SlotMode] = uint16(s.Mode)
	regs[SlotModeSwitch] = uint16(bit(s.ModeSwitch[0]))
	regs[SlotModeSwitch+1] = uint16(bit(s.ModeSwitch[1]))
	for i := 0; i < 3; i++ {
		regs[SlotIndicators+i] = uint16(bit(s.Indicators[i]))
		regs[SlotStored+i] = uint16(clamp12(s.Stored[i]))
	}
	regs[SlotSlotSwitch] = uint16(bit(s.SlotSwitch[0]))
	regs[SlotSlotSwitch+1] = uint16(bit(s.SlotSwitch[1]))
	regs[SlotToggle] = uint16(bit(s.Toggle))
	regs[SlotMomentary] = uint16(bit(s.Momentary))
	regs[SlotAnalog] = uint16(clamp12(s.Analog[0]))
	regs[SlotAnalog+1] = uint16(clamp12(s.Analog[1]))

	// One register per joystick, line i in bit i.
	for j := 0; j < 4; j++ {
		var mask uint16
		for i, v := range fixed(s.Joysticks[j], JoystickWidths[j]) {
			if v != 0 {
				mask |= 1 << uint(i)
			}
		}
		regs[SlotJoysticks+j] = mask
	}

	return regs
}

func bit(v int) int {
	if v != 0 {
		return 1
	}
	return 0
}

func clamp12(v int) int {
	if v < 0 {
		return 0
	}
	if v > AnalogMax {
		return AnalogMax
	}
	return v
}

// fixed returns a copy of lines with exactly n normalized entries.
func fixed(lines []int, n int) []int {
	out := make([]int, n)
	for i := 0; i < n && i < len(lines); i++ {
		out[i] = bit(lines[i])
	}
	return out
}
