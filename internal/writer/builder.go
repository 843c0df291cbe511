// internal/writer/builder.go
package writer

import (
	"log/slog"
	"time"

	cfg "github.com/tamzrod/panel-controller/internal/config"
	wmodbus "github.com/tamzrod/panel-controller/internal/writer/modbus"
	wserial "github.com/tamzrod/panel-controller/internal/writer/serial"
)

// BuildSerial creates the serial line sink. It returns nil when no port
// is configured.
func BuildSerial(c cfg.SerialConfig, logger *slog.Logger) *wserial.Writer {
	if c.Port == "" {
		return nil
	}
	return wserial.New(wserial.PortOpener(wserial.Config{
		Port:     c.Port,
		BaudRate: c.BaudRate,
	}), logger)
}

// BuildMirror connects the Modbus status mirror. It returns a nil writer
// and a no-op closer when the mirror is not configured.
// Assumes config has already passed validation.
func BuildMirror(m *cfg.MirrorConfig) (*MirrorWriter, func() error, error) {
	if m == nil {
		return nil, func() error { return nil }, nil
	}

	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: m.Endpoint,
		Timeout:  time.Duration(m.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	plan := MirrorPlan{
		Endpoint:    m.Endpoint,
		UnitID:      m.UnitID,
		BaseAddress: m.BaseAddress,
	}
	return NewMirrorWriter(plan, c), c.Close, nil
}
