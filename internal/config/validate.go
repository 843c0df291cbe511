// internal/config/validate.go
package config

import (
	"fmt"
	"net"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values are accepted wherever Normalize supplies a default.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	p := cfg.Panel

	// ------------------------------------------------------------
	// PIN BACKEND
	// ------------------------------------------------------------

	switch p.Pins.Backend {
	case "", "rpio", "sim":
	case "modbus":
		m := p.Pins.Modbus
		if m.Endpoint == "" && m.Device == "" {
			return fmt.Errorf("pins: modbus backend needs endpoint or device")
		}
		if m.Endpoint != "" && m.Device != "" {
			return fmt.Errorf("pins: modbus endpoint and device are mutually exclusive")
		}
		if m.TimeoutMs < 0 || m.BaudRate < 0 {
			return fmt.Errorf("pins: modbus timeout_ms and baud_rate must be >= 0")
		}
	default:
		return fmt.Errorf("pins: unknown backend %q", p.Pins.Backend)
	}

	if p.Pins.RPIO.SPIChipSelect > 1 {
		return fmt.Errorf("pins: spi_chip_select must be 0 or 1")
	}

	// line 0 is a valid address, only negative lines are rejected here;
	// names and collisions are checked against the panel layout at build time
	for name, line := range p.Pins.Lines {
		if line < 0 {
			return fmt.Errorf("pins: line for %s must be >= 0, got %d", name, line)
		}
	}
	for name, pull := range p.Pins.Pulls {
		switch pull {
		case "up", "down", "none":
		default:
			return fmt.Errorf("pins: pull for %s must be up, down or none, got %q", name, pull)
		}
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	if p.Poll.IntervalMs < 0 || p.Poll.PulseMs < 0 {
		return fmt.Errorf("poll: interval_ms and pulse_ms must be >= 0")
	}
	if p.Serial.BaudRate < 0 {
		return fmt.Errorf("serial: baud_rate must be >= 0")
	}
	if p.Network.TimeoutMs < 0 || p.OTA.TimeoutMs < 0 || p.Restart.DelayMs < 0 {
		return fmt.Errorf("timeouts and delays must be >= 0")
	}

	// ------------------------------------------------------------
	// NETWORK / RESTART
	// ------------------------------------------------------------

	switch p.Network.Driver {
	case "", "nmcli", "none":
	default:
		return fmt.Errorf("network: unknown driver %q", p.Network.Driver)
	}

	switch p.Restart.Method {
	case "", "exit", "reboot":
	default:
		return fmt.Errorf("restart: unknown method %q", p.Restart.Method)
	}

	if p.HTTP.Addr != "" {
		if _, _, err := net.SplitHostPort(p.HTTP.Addr); err != nil {
			return fmt.Errorf("http: addr %q: %w", p.HTTP.Addr, err)
		}
	}

	// ------------------------------------------------------------
	// STATUS MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if m := p.Mirror; m != nil {
		if m.Endpoint == "" {
			return fmt.Errorf("mirror: endpoint required")
		}
		if _, _, err := net.SplitHostPort(m.Endpoint); err != nil {
			return fmt.Errorf("mirror: endpoint %q: %w", m.Endpoint, err)
		}
		if m.TimeoutMs < 0 {
			return fmt.Errorf("mirror: timeout_ms must be >= 0")
		}
	}

	return nil
}
