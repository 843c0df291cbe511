// internal/connectivity/manager.go
package connectivity

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

// ErrAlreadyStarted is returned by a second Connect on the same Manager.
var ErrAlreadyStarted = errors.New("connectivity: already started")

// Manager joins the station network with bounded retry and falls back
// to the rescue access point. The fallback is terminal.
type Manager struct {
	drv     Driver
	station StationConfig
	log     *slog.Logger

	state   atomic.Int32
	started atomic.Bool
}

func NewManager(drv Driver, station StationConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if station.DNS == "" {
		station.DNS = DNS
	}
	return &Manager{drv: drv, station: station, log: logger}
}

// State returns the current mode. Safe from any goroutine.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Connect starts the station and blocks until it either acquires an
// address or exhausts its retries. It returns the active mode.
//
// There is no timeout: ctx only ends the wait on shutdown. The event
// loop keeps running until ctx is cancelled.
func (m *Manager) Connect(ctx context.Context) (State, error) {
	if !m.started.CompareAndSwap(false, true) {
		return m.State(), ErrAlreadyStarted
	}
	m.state.Store(int32(Connecting))

	done := newOneshot()
	go m.loop(ctx, done)

	m.log.Info("station starting", "ssid", m.station.SSID, "ip", m.station.Address)
	if err := m.drv.StartStation(ctx, m.station); err != nil {
		m.log.Error("station start failed", "err", err)
		done.fire(false)
	}

	select {
	case <-ctx.Done():
		return m.State(), ctx.Err()
	case <-done.done:
	}

	if done.result() {
		m.state.Store(int32(StationConnected))
		m.log.Info("station connected", "ssid", m.station.SSID)
		return StationConnected, nil
	}

	m.log.Warn("station failed, starting rescue access point", "ssid", RescueSSID)
	m.state.Store(int32(RescueAP))
	if err := m.drv.StopStation(ctx); err != nil {
		m.log.Warn("station stop failed", "err", err)
	}
	if err := m.drv.StartAccessPoint(ctx, RescueConfig()); err != nil {
		m.log.Error("rescue access point failed", "err", err)
	}
	return RescueAP, nil
}

// loop owns the retry counter.
func (m *Manager) loop(ctx context.Context, done *oneshot) {
	events := m.drv.Events()
	retries := 0

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				done.fire(false)
				return
			}
			m.handle(ctx, ev, &retries, done)
		}
	}
}

func (m *Manager) handle(ctx context.Context, ev Event, retries *int, done *oneshot) {
	if m.State() == RescueAP || (done.fired() && !done.result()) {
		m.log.Debug("event ignored in rescue mode", "event", ev.Kind)
		return
	}

	switch ev.Kind {
	case StationStarted:
		m.associate(ctx, retries, done)

	case Disconnected:
		m.retry(ctx, retries, done)

	case GotIP:
		*retries = 0
		m.log.Info("address acquired", "addr", ev.Addr)
		done.fire(true)
	}
}

// associate asks the driver to join. A synchronous driver error counts
// as a disconnect.
func (m *Manager) associate(ctx context.Context, retries *int, done *oneshot) {
	if err := m.drv.Associate(ctx); err != nil {
		m.log.Warn("associate failed", "err", err)
		m.retry(ctx, retries, done)
	}
}

func (m *Manager) retry(ctx context.Context, retries *int, done *oneshot) {
	if *retries >= MaxRetry {
		if done.fire(false) {
			m.log.Warn("retries exhausted", "retry", *retries)
		} else {
			// Already connected once; the caller is no longer waiting.
			m.log.Warn("station lost after retries", "retry", *retries)
		}
		return
	}
	*retries++
	m.log.Info("retrying association", "retry", *retries)
	m.associate(ctx, retries, done)
}
