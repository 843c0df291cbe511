// internal/status/snapshot.go
package status

import "fmt"

// Mode is the decoded output mode. Exactly one indicator belongs to each
// mode except ModeOff, which asserts none.
type Mode uint8

const (
	ModeOff Mode = iota
	ModeAuto
	ModeManual
	ModeJoystick
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "OFF"
	case ModeAuto:
		return "AUTO"
	case ModeManual:
		return "MANUAL"
	case ModeJoystick:
		return "JOYSTICK"
	default:
		return fmt.Sprintf("MODE(%d)", uint8(m))
	}
}

// Indicator returns the 1-based indicator asserted by the mode, or 0.
func (m Mode) Indicator() int {
	switch m {
	case ModeAuto:
		return 1
	case ModeManual:
		return 2
	case ModeJoystick:
		return 3
	default:
		return 0
	}
}

// JoystickWidths is the locked line count of C1..C4.
var JoystickWidths = [4]int{4, 4, 4, 2}

// Snapshot is the complete decoded state of the panel at one instant.
// It contains no logic and no memory of the past beyond Stored.
// Digital fields hold 0 or 1; Analog holds 0..4095.
type Snapshot struct {
	ModeSwitch [2]int // A1_1, A1_2
	Indicators [3]int // A2, A3, A4
	SlotSwitch [2]int // B1_1, B1_2
	Toggle     int    // B4
	Momentary  int    // B5
	Analog     [2]int // B2_pot, B3_pot
	Joysticks  [4][]int

	// Not part of the wire payload.
	Mode   Mode
	Stored [3]int
}
