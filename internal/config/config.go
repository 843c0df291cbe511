// internal/config/config.go
package config

type Config struct {
	Panel PanelConfig `yaml:"panel"`
}

type PanelConfig struct {
	Pins     PinsConfig     `yaml:"pins"`
	Serial   SerialConfig   `yaml:"serial"`
	HTTP     HTTPConfig     `yaml:"http"`
	Poll     PollConfig     `yaml:"poll"`
	Network  NetworkConfig  `yaml:"network"`
	OTA      OTAConfig      `yaml:"ota"`
	Settings SettingsConfig `yaml:"settings"`
	Restart  RestartConfig  `yaml:"restart"`

	// Status mirror (optional, opt-in)
	Mirror *MirrorConfig `yaml:"mirror"`
}

// ---- PINS ----

type PinsConfig struct {
	Backend string            `yaml:"backend"` // rpio | modbus | sim
	RPIO    RPIOConfig        `yaml:"rpio"`
	Modbus  ModbusPinsConfig  `yaml:"modbus"`
	Lines   map[string]int    `yaml:"lines"` // per-pin line overrides, keyed by pin name
	Pulls   map[string]string `yaml:"pulls"` // per-pin pull overrides: up | down | none
}

type RPIOConfig struct {
	SPIChipSelect uint8 `yaml:"spi_chip_select"`
	SPISpeedHz    int   `yaml:"spi_speed_hz"`
}

type ModbusPinsConfig struct {
	Endpoint  string `yaml:"endpoint"` // host:port (TCP)
	Device    string `yaml:"device"`   // serial device (RTU)
	BaudRate  int    `yaml:"baud_rate"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- SERIAL SINK ----

type SerialConfig struct {
	Port     string `yaml:"port"` // empty disables the sink
	BaudRate int    `yaml:"baud_rate"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Addr    string `yaml:"addr"`
	WebRoot string `yaml:"web_root"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
	PulseMs    int `yaml:"pulse_ms"`
}

// ---- NETWORK ----

type NetworkConfig struct {
	Driver    string `yaml:"driver"` // nmcli | none
	Interface string `yaml:"interface"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- OTA ----

type OTAConfig struct {
	SlotDir   string `yaml:"slot_dir"`
	CABundle  string `yaml:"ca_bundle"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- SETTINGS ----

type SettingsConfig struct {
	Path string `yaml:"path"`
}

// ---- RESTART ----

type RestartConfig struct {
	Method  string `yaml:"method"` // exit | reboot
	DelayMs int    `yaml:"delay_ms"`
}

// ---- MIRROR ----

type MirrorConfig struct {
	Endpoint    string `yaml:"endpoint"`
	UnitID      uint8  `yaml:"unit_id"`
	BaseAddress uint16 `yaml:"base_address"`
	TimeoutMs   int    `yaml:"timeout_ms"`
}
