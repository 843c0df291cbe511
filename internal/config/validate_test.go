// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

// helper to build a config quickly
func base() *Config {
	return &Config{
		Panel: PanelConfig{
			Pins: PinsConfig{Backend: "sim"},
		},
	}
}

// ---- tests ----

func TestValidate_ZeroConfigAccepted(t *testing.T) {
	if err := Validate(&Config{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := base()
	cfg.Panel.Pins.Backend = "i2c"

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestValidate_ModbusBackendNeedsTransport(t *testing.T) {
	cfg := base()
	cfg.Panel.Pins.Backend = "modbus"

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected missing transport error")
	}

	cfg.Panel.Pins.Modbus.Endpoint = "10.0.0.9:502"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Panel.Pins.Modbus.Device = "/dev/ttyUSB0"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected mutually exclusive transport error")
	}
}

func TestValidate_LinesAndPulls(t *testing.T) {
	cfg := base()
	cfg.Panel.Pins.Lines = map[string]int{"A1_1": -1}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected negative line error")
	}

	cfg = base()
	cfg.Panel.Pins.Pulls = map[string]string{"B5": "sideways"}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected bad pull error")
	}
}

func TestValidate_NetworkAndRestart(t *testing.T) {
	cfg := base()
	cfg.Panel.Network.Driver = "wpa_supplicant"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected unknown driver error")
	}

	cfg = base()
	cfg.Panel.Restart.Method = "halt"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected unknown restart method error")
	}
}

func TestValidate_HTTPAddr(t *testing.T) {
	cfg := base()
	cfg.Panel.HTTP.Addr = "localhost"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected bad addr error")
	}
}

func TestValidate_Mirror(t *testing.T) {
	cfg := base()
	cfg.Panel.Mirror = &MirrorConfig{}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected missing mirror endpoint error")
	}

	cfg.Panel.Mirror.Endpoint = "10.0.0.9:502"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := &Config{}
	Normalize(cfg)
	p := cfg.Panel

	if p.Pins.Backend != DefaultBackend {
		t.Fatalf("backend: got=%q", p.Pins.Backend)
	}
	if p.Poll.IntervalMs != 200 || p.Poll.PulseMs != 100 {
		t.Fatalf("poll: got=%+v", p.Poll)
	}
	if p.Serial.BaudRate != 0 {
		t.Fatalf("serial baud set without a port: %d", p.Serial.BaudRate)
	}
	if p.Network.Driver != "nmcli" || p.Network.Interface != "wlan0" {
		t.Fatalf("network: got=%+v", p.Network)
	}
	if p.Restart.Method != "exit" || p.Restart.DelayMs != 1000 {
		t.Fatalf("restart: got=%+v", p.Restart)
	}
	if p.Mirror != nil {
		t.Fatalf("mirror enabled by normalize")
	}
}

func TestNormalize_SerialAndMirror(t *testing.T) {
	cfg := base()
	cfg.Panel.Serial.Port = "/dev/ttyS0"
	cfg.Panel.Mirror = &MirrorConfig{Endpoint: "10.0.0.9:502"}
	Normalize(cfg)

	if cfg.Panel.Serial.BaudRate != 115200 {
		t.Fatalf("serial baud: got=%d", cfg.Panel.Serial.BaudRate)
	}
	if cfg.Panel.Mirror.UnitID != 1 || cfg.Panel.Mirror.TimeoutMs != DefaultMirrorTimeout {
		t.Fatalf("mirror: got=%+v", *cfg.Panel.Mirror)
	}
}

func TestParse(t *testing.T) {
	doc := `
panel:
  pins:
    backend: sim
    lines:
      B5: 24
  serial:
    port: /dev/ttyAMA0
  poll:
    interval_ms: 250
  mirror:
    endpoint: 127.0.0.1:1502
    base_address: 48
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	Normalize(cfg)

	p := cfg.Panel
	if p.Pins.Lines["B5"] != 24 || p.Poll.IntervalMs != 250 || p.Serial.BaudRate != 115200 {
		t.Fatalf("parsed: %+v", p)
	}
	if p.Mirror == nil || p.Mirror.BaseAddress != 48 {
		t.Fatalf("mirror: %+v", p.Mirror)
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("panel:\n  pollz: {}\n"))
	if err == nil || !strings.Contains(err.Error(), "pollz") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil || cfg == nil {
		t.Fatalf("empty document: cfg=%v err=%v", cfg, err)
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load("../../configs/panel.example.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Panel.Mirror != nil {
		t.Fatalf("mirror should be commented out in the example")
	}
}
