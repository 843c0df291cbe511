// internal/poller/builder.go
package poller

import (
	"fmt"
	"log/slog"
	"time"

	cfg "github.com/tamzrod/panel-controller/internal/config"
	"github.com/tamzrod/panel-controller/internal/panel"
	"github.com/tamzrod/panel-controller/internal/pins"
)

// BuildBus opens the configured pin backend. ONE attempt per call.
func BuildBus(p cfg.PinsConfig, logger *slog.Logger) (pins.Bus, error) {
	switch p.Backend {
	case "rpio":
		b, err := pins.OpenRPIO(pins.RPIOConfig{
			SPIChipSelect: p.RPIO.SPIChipSelect,
			SPISpeedHz:    p.RPIO.SPISpeedHz,
		}, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "modbus":
		b, err := pins.OpenModbus(pins.ModbusConfig{
			Endpoint: p.Modbus.Endpoint,
			Device:   p.Modbus.Device,
			BaudRate: p.Modbus.BaudRate,
			UnitID:   p.Modbus.UnitID,
			Timeout:  time.Duration(p.Modbus.TimeoutMs) * time.Millisecond,
		}, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "sim":
		return pins.NewSim(), nil
	default:
		return nil, fmt.Errorf("poller: unknown pin backend %q", p.Backend)
	}
}

// BuildLayout applies the configured overrides to the stock wiring.
func BuildLayout(p cfg.PinsConfig) (panel.Layout, error) {
	pulls := make(map[string]pins.Pull, len(p.Pulls))
	for name, s := range p.Pulls {
		pull, err := pins.ParsePull(s)
		if err != nil {
			return panel.Layout{}, err
		}
		pulls[name] = pull
	}

	layout, err := panel.DefaultLayout().Override(p.Lines, pulls)
	if err != nil {
		return panel.Layout{}, err
	}
	if err := layout.Validate(); err != nil {
		return panel.Layout{}, err
	}
	return layout, nil
}

// Build constructs the pin bus, the panel machine and the Poller.
// The returned closer releases the pin bus.
// No retries, no loops.
func Build(c cfg.PanelConfig, sink Sink, logger *slog.Logger) (*Poller, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	layout, err := BuildLayout(c.Pins)
	if err != nil {
		return nil, nil, err
	}

	bus, err := BuildBus(c.Pins, logger)
	if err != nil {
		return nil, nil, err
	}

	m, err := panel.New(bus, layout, panel.Options{
		Pulse:  time.Duration(c.Poll.PulseMs) * time.Millisecond,
		Logger: logger,
	})
	if err != nil {
		bus.Close()
		return nil, nil, err
	}

	p, err := New(
		Config{Interval: time.Duration(c.Poll.IntervalMs) * time.Millisecond},
		m,
		sink,
		logger,
	)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}

	return p, bus.Close, nil
}
