// cmd/panelctl/run.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/panel-controller/internal/config"
	"github.com/tamzrod/panel-controller/internal/connectivity"
	"github.com/tamzrod/panel-controller/internal/httpapi"
	"github.com/tamzrod/panel-controller/internal/ota"
	"github.com/tamzrod/panel-controller/internal/poller"
	"github.com/tamzrod/panel-controller/internal/settings"
	"github.com/tamzrod/panel-controller/internal/system"
	"github.com/tamzrod/panel-controller/internal/writer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller",
	Long: `Connect to the stored network (falling back to the rescue access point),
then sample the panel forever, publishing each status line to the serial
port, the websocket feed and the optional Modbus mirror.`,
	RunE: runController,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runController(cmd *cobra.Command, args []string) error {
	log := slog.Default()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	pc := cfg.Panel

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Stored network settings
	// --------------------

	var store httpapi.SettingsSaver = unavailableStore{}
	network := settings.Defaults()

	if st, err := settings.Open(pc.Settings.Path); err != nil {
		log.Warn("settings store unavailable, using defaults", "path", pc.Settings.Path, "err", err)
	} else {
		defer st.Close()
		store = st
		network = loadNetwork(ctx, st, log)
	}

	restarter, err := system.New(pc.Restart.Method, log)
	if err != nil {
		return err
	}
	restartDelay := time.Duration(pc.Restart.DelayMs) * time.Millisecond

	// --------------------
	// Sinks
	// --------------------

	fan := writer.NewFanout()

	// Serial and Modbus can block; each gets its own worker so the
	// synchronizer cadence never waits on them.
	if sw := writer.BuildSerial(pc.Serial, log); sw != nil {
		defer sw.Close()
		as := writer.NewAsync("serial", sw, log)
		defer as.Close()
		fan.Add("serial", as)
	}

	mirror, closeMirror, err := writer.BuildMirror(pc.Mirror)
	if err != nil {
		return fmt.Errorf("mirror build failed: %w", err)
	}
	defer closeMirror()
	if mirror != nil {
		am := writer.NewAsync("mirror", mirror, log)
		defer am.Close()
		fan.Add("mirror", am)
	}

	hub := httpapi.NewHub(log)
	fan.Add("ws", hub)

	// --------------------
	// Panel + synchronizer
	// --------------------

	p, closePins, err := poller.Build(pc, fan, log)
	if err != nil {
		return fmt.Errorf("poller build failed: %w", err)
	}
	defer closePins()

	// --------------------
	// Connectivity (blocks until connected or rescue)
	// --------------------

	drv := buildDriver(pc.Network, network, log)
	mgr := connectivity.NewManager(drv, connectivity.StationConfig{
		SSID:     network.SSID,
		Password: network.Password,
		Address:  network.IP,
		Gateway:  network.Gateway,
		Netmask:  network.Netmask,
	}, log)

	state, err := mgr.Connect(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("connectivity: %w", err)
	}
	log.Info("network ready", "state", state)

	// --------------------
	// OTA
	// --------------------

	slots, err := ota.OpenSlotStore(pc.OTA.SlotDir)
	if err != nil {
		return err
	}
	if active, err := slots.Active(); err == nil {
		log.Info("firmware slot", "active", active)
	}

	sup, err := ota.New(ota.Options{
		Store:        slots,
		Restarter:    restarter,
		CABundle:     pc.OTA.CABundle,
		Timeout:      time.Duration(pc.OTA.TimeoutMs) * time.Millisecond,
		RestartDelay: restartDelay,
		Logger:       log,
	})
	if err != nil {
		return err
	}

	// --------------------
	// HTTP + synchronizer loops
	// --------------------

	srv := httpapi.New(httpapi.Deps{
		Status:       p,
		OTA:          sup,
		Settings:     store,
		Restarter:    restarter,
		RestartDelay: restartDelay,
		WebRoot:      pc.HTTP.WebRoot,
		Hub:          hub,
		Logger:       log,
	})

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- srv.ListenAndServe(ctx, pc.HTTP.Addr)
	}()

	go p.Run(ctx)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		<-httpErr
		return nil
	case err := <-httpErr:
		return fmt.Errorf("http server: %w", err)
	}
}

// loadNetwork reads the stored settings. A failed load yields the
// factory defaults so the device can still reach the rescue path.
func loadNetwork(ctx context.Context, st *settings.Store, log *slog.Logger) settings.Network {
	n, err := st.Load(ctx)
	if err != nil {
		log.Warn("settings load failed, using defaults", "err", err)
		return settings.Defaults()
	}
	return n
}

func buildDriver(nc config.NetworkConfig, n settings.Network, log *slog.Logger) connectivity.Driver {
	if nc.Driver == "none" {
		// Network is managed outside the controller; report it as up.
		return connectivity.NewScripted(n.IP, connectivity.OutcomeConnect)
	}
	return connectivity.NewNMCLI(
		connectivity.ExecRunner{},
		nc.Interface,
		time.Duration(nc.TimeoutMs)*time.Millisecond,
		log,
	)
}

type unavailableStore struct{}

func (unavailableStore) Save(context.Context, settings.Network) error {
	return errors.New("settings store unavailable")
}
