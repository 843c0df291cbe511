// internal/pins/modbus.go
package pins

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// ModbusConfig describes a remote I/O module.
// Exactly one of Endpoint (Modbus TCP) or Device (Modbus RTU) is set.
type ModbusConfig struct {
	Endpoint string
	Device   string
	BaudRate int
	UnitID   uint8
	Timeout  time.Duration
}

// modbusClient is the subset of modbus.Client the backend uses.
type modbusClient interface {
	ReadCoils(address, quantity uint16) ([]byte, error)
	ReadDiscreteInputs(address, quantity uint16) ([]byte, error)
	WriteSingleCoil(address, value uint16) ([]byte, error)
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
}

// Modbus maps logical lines onto a Modbus I/O module:
// inputs are discrete inputs (FC2), outputs are coils (FC1/FC5) and
// analog lines are input registers (FC4).
//
// Transport errors are logged and the last known value is returned.
type Modbus struct {
	mu     sync.Mutex
	client modbusClient
	closer io.Closer
	log    *slog.Logger

	levels map[int]Level
	analog map[int]int
}

// OpenModbus connects to the I/O module. ONE attempt per call.
func OpenModbus(cfg ModbusConfig, logger *slog.Logger) (*Modbus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}

	var (
		client modbusClient
		closer io.Closer
	)

	switch {
	case cfg.Endpoint != "":
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("pins modbus: connect %s: %w", cfg.Endpoint, err)
		}
		client, closer = modbus.NewClient(h), h

	case cfg.Device != "":
		h := modbus.NewRTUClientHandler(cfg.Device)
		h.BaudRate = cfg.BaudRate
		if h.BaudRate <= 0 {
			h.BaudRate = 19200
		}
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.SlaveId = cfg.UnitID
		h.Timeout = cfg.Timeout
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("pins modbus: open %s: %w", cfg.Device, err)
		}
		client, closer = modbus.NewClient(h), h

	default:
		return nil, errors.New("pins modbus: endpoint or device required")
	}

	return newModbus(client, closer, logger), nil
}

func newModbus(client modbusClient, closer io.Closer, logger *slog.Logger) *Modbus {
	return &Modbus{
		client: client,
		closer: closer,
		log:    logger,
		levels: map[int]Level{},
		analog: map[int]int{},
	}
}

// Configure only checks addressing; pull and direction are fixed by the
// module's own wiring.
func (m *Modbus) Configure(pins []LogicalPin) error {
	for _, p := range pins {
		if p.Line < 0 || p.Line > 0xFFFF {
			return fmt.Errorf("pins modbus: %s: address out of range", p)
		}
	}
	return nil
}

func (m *Modbus) Read(p LogicalPin) Level {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		raw []byte
		err error
	)
	if p.Direction == Output {
		raw, err = m.client.ReadCoils(uint16(p.Line), 1)
	} else {
		raw, err = m.client.ReadDiscreteInputs(uint16(p.Line), 1)
	}
	if err != nil || len(raw) < 1 {
		m.log.Warn("pins modbus: read failed", "pin", p.Name, "err", err)
		return m.levels[p.Line]
	}

	l := LevelOf(unpackBits(raw, 1)[0])
	m.levels[p.Line] = l
	return l
}

func (m *Modbus) Write(p LogicalPin, l Level) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value := uint16(0x0000)
	if l == High {
		value = 0xFF00
	}
	if _, err := m.client.WriteSingleCoil(uint16(p.Line), value); err != nil {
		m.log.Warn("pins modbus: write failed", "pin", p.Name, "err", err)
		return
	}
	m.levels[p.Line] = l
}

func (m *Modbus) Sample(p LogicalPin) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.client.ReadInputRegisters(uint16(p.Line), 1)
	if err != nil || len(raw) < 2 {
		m.log.Warn("pins modbus: sample failed", "pin", p.Name, "err", err)
		return m.analog[p.Line]
	}

	v := ClampAnalog(int(unpackRegisters(raw)[0]))
	m.analog[p.Line] = v
	return v
}

func (m *Modbus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

// ---- helpers (pure geometry) ----

func unpackBits(data []byte, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		byteIdx := i / 8
		bitIdx := i % 8
		if byteIdx >= len(data) {
			continue
		}
		out[i] = data[byteIdx]&(1<<bitIdx) != 0
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
