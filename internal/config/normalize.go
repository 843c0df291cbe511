// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultBackend        = "rpio"
	DefaultSPISpeedHz     = 1_000_000
	DefaultModbusBaud     = 115200
	DefaultModbusUnitID   = 1
	DefaultModbusTimeout  = 500
	DefaultSerialBaud     = 115200
	DefaultHTTPAddr       = ":80"
	DefaultWebRoot        = "web"
	DefaultIntervalMs     = 200
	DefaultPulseMs        = 100
	DefaultNetworkDriver  = "nmcli"
	DefaultInterface      = "wlan0"
	DefaultNetworkTimeout = 15000
	DefaultSlotDir        = "/var/lib/panel-controller/firmware"
	DefaultOTATimeout     = 10000
	DefaultSettingsPath   = "/var/lib/panel-controller/settings.db"
	DefaultRestartMethod  = "exit"
	DefaultRestartDelay   = 1000
	DefaultMirrorTimeout  = 1000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	p := &cfg.Panel

	str := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	num := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}

	str(&p.Pins.Backend, DefaultBackend)
	num(&p.Pins.RPIO.SPISpeedHz, DefaultSPISpeedHz)
	if p.Pins.Backend == "modbus" {
		num(&p.Pins.Modbus.TimeoutMs, DefaultModbusTimeout)
		if p.Pins.Modbus.UnitID == 0 {
			p.Pins.Modbus.UnitID = DefaultModbusUnitID
		}
		if p.Pins.Modbus.Device != "" {
			num(&p.Pins.Modbus.BaudRate, DefaultModbusBaud)
		}
	}

	// The serial sink stays disabled when no port is configured.
	if p.Serial.Port != "" {
		num(&p.Serial.BaudRate, DefaultSerialBaud)
	}

	str(&p.HTTP.Addr, DefaultHTTPAddr)
	str(&p.HTTP.WebRoot, DefaultWebRoot)

	num(&p.Poll.IntervalMs, DefaultIntervalMs)
	num(&p.Poll.PulseMs, DefaultPulseMs)

	str(&p.Network.Driver, DefaultNetworkDriver)
	str(&p.Network.Interface, DefaultInterface)
	num(&p.Network.TimeoutMs, DefaultNetworkTimeout)

	str(&p.OTA.SlotDir, DefaultSlotDir)
	num(&p.OTA.TimeoutMs, DefaultOTATimeout)

	str(&p.Settings.Path, DefaultSettingsPath)

	str(&p.Restart.Method, DefaultRestartMethod)
	num(&p.Restart.DelayMs, DefaultRestartDelay)

	if p.Mirror != nil {
		num(&p.Mirror.TimeoutMs, DefaultMirrorTimeout)
		if p.Mirror.UnitID == 0 {
			p.Mirror.UnitID = DefaultModbusUnitID
		}
	}
}
