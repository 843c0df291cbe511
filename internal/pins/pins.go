// internal/pins/pins.go
package pins

import "fmt"

// Level is a discrete line level. Only Low and High exist.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

// LevelOf maps a boolean line state onto a Level.
func LevelOf(b bool) Level {
	if b {
		return High
	}
	return Low
}

// Direction is the electrical role of a line.
type Direction uint8

const (
	Input Direction = iota
	Output
	Analog
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	case Analog:
		return "analog"
	default:
		return fmt.Sprintf("direction(%d)", d)
	}
}

// Pull is the bias applied to an input line.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// ParsePull accepts "up", "down" and "none" (empty means none).
func ParsePull(s string) (Pull, error) {
	switch s {
	case "", "none":
		return PullNone, nil
	case "up":
		return PullUp, nil
	case "down":
		return PullDown, nil
	default:
		return PullNone, fmt.Errorf("pins: unknown pull %q", s)
	}
}

// AnalogMax is the largest value a 12-bit channel can report.
const AnalogMax = 4095

// LogicalPin identifies one physical line.
// Line is backend-specific: a BCM GPIO number, a Modbus address or a sim slot.
type LogicalPin struct {
	Name      string
	Line      int
	Direction Direction
	Pull      Pull
}

func (p LogicalPin) String() string {
	return fmt.Sprintf("%s(line=%d %s)", p.Name, p.Line, p.Direction)
}

// Bus is the contract the core uses for pin access.
// Read, Write and Sample never fail: backends log transport errors and
// report the last known value instead.
type Bus interface {
	Configure(pins []LogicalPin) error
	Read(p LogicalPin) Level
	Write(p LogicalPin, l Level)
	Sample(p LogicalPin) int
	Close() error
}

// ClampAnalog pins a raw sample into [0, AnalogMax].
func ClampAnalog(v int) int {
	if v < 0 {
		return 0
	}
	if v > AnalogMax {
		return AnalogMax
	}
	return v
}
