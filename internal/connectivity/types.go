// internal/connectivity/types.go
package connectivity

import (
	"context"
	"fmt"
)

// State is the active network mode.
type State int32

const (
	Connecting State = iota
	StationConnected
	RescueAP
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case StationConnected:
		return "STATION_CONNECTED"
	case RescueAP:
		return "RESCUE_AP"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// EventKind is a radio driver notification.
type EventKind uint8

const (
	StationStarted EventKind = iota
	Disconnected
	GotIP
)

func (k EventKind) String() string {
	switch k {
	case StationStarted:
		return "station_started"
	case Disconnected:
		return "disconnected"
	case GotIP:
		return "got_ip"
	default:
		return fmt.Sprintf("event(%d)", k)
	}
}

// Event is delivered on the driver's event channel.
type Event struct {
	Kind EventKind
	Addr string // set for GotIP
}

// StationConfig is the network to join. Addressing is always static.
type StationConfig struct {
	SSID     string
	Password string
	Address  string
	Gateway  string
	Netmask  string
	DNS      string
}

// APConfig describes the rescue access point.
type APConfig struct {
	SSID    string
	Address string
	Netmask string
	Channel int
}

// Driver controls the radio. Events are delivered asynchronously on the
// channel returned by Events; the Manager is the only consumer.
type Driver interface {
	Events() <-chan Event
	StartStation(ctx context.Context, cfg StationConfig) error
	Associate(ctx context.Context) error
	StopStation(ctx context.Context) error
	StartAccessPoint(ctx context.Context, cfg APConfig) error
}

// Fixed network parameters.
const (
	MaxRetry = 5
	DNS      = "8.8.8.8"

	RescueSSID    = "Panel-Controller-Rescue"
	RescueAddress = "192.168.4.1"
	RescueNetmask = "255.255.255.0"
	RescueChannel = 1
)

// RescueConfig returns the fixed rescue access point configuration.
func RescueConfig() APConfig {
	return APConfig{
		SSID:    RescueSSID,
		Address: RescueAddress,
		Netmask: RescueNetmask,
		Channel: RescueChannel,
	}
}
