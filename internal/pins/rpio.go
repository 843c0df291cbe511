// internal/pins/rpio.go
package pins

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPIOConfig selects the SPI device and chip select used by the MCP3208
// converter that backs the analog channels.
type RPIOConfig struct {
	SPIChipSelect uint8
	SPISpeedHz    int
}

// RPIO drives BCM GPIO lines through /dev/gpiomem. Analog lines are
// channels 0..7 of an MCP3208 (12-bit) on SPI0.
type RPIO struct {
	cfg RPIOConfig
	log *slog.Logger

	spiMu   sync.Mutex
	spiOpen bool
}

// OpenRPIO maps GPIO memory. The caller owns Close.
func OpenRPIO(cfg RPIOConfig, logger *slog.Logger) (*RPIO, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio: open: %w", err)
	}
	if cfg.SPISpeedHz <= 0 {
		cfg.SPISpeedHz = 1_000_000
	}
	return &RPIO{cfg: cfg, log: logger}, nil
}

// HeaderMaxLine is the highest BCM GPIO routed to the 40-pin header.
const HeaderMaxLine = 27

// SPI0 lines as claimed by rpio.SpiBegin(rpio.Spi0).
const (
	spi0CE1  = 7
	spi0CE0  = 8
	spi0MISO = 9
	spi0MOSI = 10
	spi0SCLK = 11
)

// CheckSPI0 rejects digital lines the MCP3208 link needs. It applies only
// when the layout has analog lines. The chip enable not selected by cs
// is left to the panel.
func CheckSPI0(pins []LogicalPin, cs uint8) error {
	needSPI := false
	for _, p := range pins {
		if p.Direction == Analog {
			needSPI = true
			break
		}
	}
	if !needSPI {
		return nil
	}

	reserved := map[int]string{
		spi0MISO: "SPI0 MISO",
		spi0MOSI: "SPI0 MOSI",
		spi0SCLK: "SPI0 SCLK",
	}
	if cs == 0 {
		reserved[spi0CE0] = "SPI0 CE0"
	} else {
		reserved[spi0CE1] = "SPI0 CE1"
	}

	for _, p := range pins {
		if p.Direction == Analog {
			continue
		}
		if use, ok := reserved[p.Line]; ok {
			return fmt.Errorf("rpio: %s: line is %s while analog inputs are in use", p, use)
		}
	}
	return nil
}

// Configure starts SPI first so digital lines on the unused chip enable
// are switched back to GPIO afterwards.
func (r *RPIO) Configure(pins []LogicalPin) error {
	if err := CheckSPI0(pins, r.cfg.SPIChipSelect); err != nil {
		return err
	}

	needSPI := false
	for _, p := range pins {
		switch p.Direction {
		case Analog:
			if p.Line < 0 || p.Line > 7 {
				return fmt.Errorf("rpio: %s: mcp3208 channel out of range", p)
			}
			needSPI = true
		default:
			if p.Line < 0 || p.Line > HeaderMaxLine {
				return fmt.Errorf("rpio: %s: not a header GPIO", p)
			}
		}
	}

	if needSPI && !r.spiOpen {
		if err := rpio.SpiBegin(rpio.Spi0); err != nil {
			return fmt.Errorf("rpio: spi begin: %w", err)
		}
		rpio.SpiChipSelect(r.cfg.SPIChipSelect)
		rpio.SpiSpeed(r.cfg.SPISpeedHz)
		r.spiOpen = true
	}

	for _, p := range pins {
		switch p.Direction {
		case Input:
			pin := rpio.Pin(p.Line)
			pin.Input()
			switch p.Pull {
			case PullUp:
				pin.PullUp()
			case PullDown:
				pin.PullDown()
			default:
				pin.PullOff()
			}
		case Output:
			pin := rpio.Pin(p.Line)
			pin.Output()
			pin.Low()
		}
	}
	return nil
}

func (r *RPIO) Read(p LogicalPin) Level {
	return LevelOf(rpio.Pin(p.Line).Read() == rpio.High)
}

func (r *RPIO) Write(p LogicalPin, l Level) {
	if l == High {
		rpio.Pin(p.Line).High()
		return
	}
	rpio.Pin(p.Line).Low()
}

// Sample performs one single-ended MCP3208 conversion.
func (r *RPIO) Sample(p LogicalPin) int {
	r.spiMu.Lock()
	defer r.spiMu.Unlock()

	if !r.spiOpen {
		r.log.Warn("rpio: analog sample without spi", "pin", p.Name)
		return 0
	}

	ch := byte(p.Line)
	buf := []byte{0x06 | (ch >> 2), (ch & 0x03) << 6, 0x00}
	rpio.SpiExchange(buf)

	return ClampAnalog(int(buf[1]&0x0F)<<8 | int(buf[2]))
}

func (r *RPIO) Close() error {
	r.spiMu.Lock()
	if r.spiOpen {
		rpio.SpiEnd(rpio.Spi0)
		r.spiOpen = false
	}
	r.spiMu.Unlock()
	return rpio.Close()
}
