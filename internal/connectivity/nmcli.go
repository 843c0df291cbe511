// internal/connectivity/nmcli.go
package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Runner executes one external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

const (
	stationProfile = "panel-sta"
	rescueProfile  = "panel-rescue"
)

// NMCLI drives a NetworkManager-managed wifi interface with nmcli.
//
// nmcli reports association results synchronously, so Associate runs the
// activation on its own goroutine and translates the exit status into a
// GotIP or Disconnected event.
type NMCLI struct {
	run     Runner
	iface   string
	timeout time.Duration
	log     *slog.Logger
	events  chan Event
	station StationConfig
}

func NewNMCLI(run Runner, iface string, timeout time.Duration, logger *slog.Logger) *NMCLI {
	if run == nil {
		run = ExecRunner{}
	}
	if iface == "" {
		iface = "wlan0"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NMCLI{
		run:     run,
		iface:   iface,
		timeout: timeout,
		log:     logger,
		events:  make(chan Event, 8),
	}
}

func (d *NMCLI) Events() <-chan Event { return d.events }

func (d *NMCLI) StartStation(ctx context.Context, cfg StationConfig) error {
	prefix, err := maskPrefix(cfg.Netmask)
	if err != nil {
		return err
	}
	if net.ParseIP(cfg.Address) == nil {
		return fmt.Errorf("nmcli: invalid station address %q", cfg.Address)
	}

	// A stale profile is not an error.
	_, _ = d.nmcli(ctx, "connection", "delete", stationProfile)

	args := []string{
		"connection", "add",
		"type", "wifi",
		"ifname", d.iface,
		"con-name", stationProfile,
		"ssid", cfg.SSID,
		"connection.autoconnect", "no",
		"ipv4.method", "manual",
		"ipv4.addresses", cfg.Address + "/" + strconv.Itoa(prefix),
		"ipv4.gateway", cfg.Gateway,
		"ipv4.dns", cfg.DNS,
		"ipv6.method", "disabled",
	}
	if cfg.Password != "" {
		args = append(args, "wifi-sec.key-mgmt", "wpa-psk", "wifi-sec.psk", cfg.Password)
	}
	if _, err := d.nmcli(ctx, args...); err != nil {
		return err
	}

	d.station = cfg
	d.events <- Event{Kind: StationStarted}
	return nil
}

func (d *NMCLI) Associate(ctx context.Context) error {
	go func() {
		_, err := d.nmcli(ctx,
			"--wait", strconv.Itoa(int(d.timeout/time.Second)),
			"connection", "up", stationProfile,
		)
		if err != nil {
			d.log.Debug("nmcli activation failed", "err", err)
			d.emit(ctx, Event{Kind: Disconnected})
			return
		}
		d.emit(ctx, Event{Kind: GotIP, Addr: d.station.Address})
	}()
	return nil
}

func (d *NMCLI) StopStation(ctx context.Context) error {
	_, err := d.nmcli(ctx, "connection", "down", stationProfile)
	return err
}

func (d *NMCLI) StartAccessPoint(ctx context.Context, cfg APConfig) error {
	prefix, err := maskPrefix(cfg.Netmask)
	if err != nil {
		return err
	}

	_, _ = d.nmcli(ctx, "connection", "delete", rescueProfile)

	if _, err := d.nmcli(ctx,
		"connection", "add",
		"type", "wifi",
		"ifname", d.iface,
		"con-name", rescueProfile,
		"ssid", cfg.SSID,
		"connection.autoconnect", "no",
		"802-11-wireless.mode", "ap",
		"802-11-wireless.band", "bg",
		"802-11-wireless.channel", strconv.Itoa(cfg.Channel),
		"ipv4.method", "shared",
		"ipv4.addresses", cfg.Address+"/"+strconv.Itoa(prefix),
	); err != nil {
		return err
	}

	_, err = d.nmcli(ctx, "connection", "up", rescueProfile)
	return err
}

func (d *NMCLI) emit(ctx context.Context, ev Event) {
	select {
	case d.events <- ev:
	case <-ctx.Done():
	}
}

func (d *NMCLI) nmcli(ctx context.Context, args ...string) ([]byte, error) {
	out, err := d.run.Run(ctx, "nmcli", args...)
	if err != nil {
		return out, fmt.Errorf("nmcli %s: %w: %s", strings.Join(args[:min(len(args), 3)], " "), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// maskPrefix converts a dotted IPv4 netmask to a prefix length.
func maskPrefix(mask string) (int, error) {
	ip := net.ParseIP(mask).To4()
	if ip == nil {
		return 0, fmt.Errorf("nmcli: invalid netmask %q", mask)
	}
	ones, bits := net.IPMask(ip).Size()
	if bits == 0 {
		return 0, fmt.Errorf("nmcli: non-contiguous netmask %q", mask)
	}
	return ones, nil
}
