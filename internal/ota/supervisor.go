// internal/ota/supervisor.go
package ota

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tamzrod/panel-controller/internal/system"
)

var (
	// ErrMissingURL is returned when StartUpdate gets an empty URL.
	ErrMissingURL = errors.New("ota: missing url")
	// ErrUpdateInProgress is returned while another attempt is running.
	ErrUpdateInProgress = errors.New("ota: update already in progress")
)

const (
	DefaultRestartDelay = time.Second
	DefaultTimeout      = 10 * time.Second
)

// Options configures a Supervisor.
type Options struct {
	Store     *SlotStore
	Restarter system.Restarter

	// Client overrides the HTTP client. When nil one is built from
	// CABundle (system roots when empty) and Timeout.
	Client   *http.Client
	CABundle string
	Timeout  time.Duration

	RestartDelay time.Duration
	Logger       *slog.Logger
}

// Supervisor runs firmware updates. At most one attempt is in flight.
type Supervisor struct {
	store     *SlotStore
	restarter system.Restarter
	client    *http.Client
	delay     time.Duration
	log       *slog.Logger

	busy atomic.Bool
	wg   sync.WaitGroup
}

func New(opts Options) (*Supervisor, error) {
	if opts.Store == nil {
		return nil, errors.New("ota: nil slot store")
	}
	if opts.Restarter == nil {
		return nil, errors.New("ota: nil restarter")
	}

	s := &Supervisor{
		store:     opts.Store,
		restarter: opts.Restarter,
		client:    opts.Client,
		delay:     opts.RestartDelay,
		log:       opts.Logger,
	}
	if s.delay <= 0 {
		s.delay = DefaultRestartDelay
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.client == nil {
		c, err := NewClient(opts.CABundle, opts.Timeout)
		if err != nil {
			return nil, err
		}
		s.client = c
	}
	return s, nil
}

// NewClient builds an HTTPS client trusting the PEM bundle at caPath
// (system roots when empty). timeout bounds connect, handshake and
// response headers; the body transfer itself is not bounded.
func NewClient(caPath string, timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caPath != "" {
		pem, err := os.ReadFile(caPath)
		if err != nil {
			return nil, fmt.Errorf("ota: read ca bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ota: no certificates in %s", caPath)
		}
		tlsCfg.RootCAs = pool
	}

	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
			TLSClientConfig:       tlsCfg,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
		},
	}, nil
}

// StartUpdate launches one update attempt and returns immediately.
// The outcome is only visible in the log and, on success, a restart.
func (s *Supervisor) StartUpdate(rawURL string) error {
	if rawURL == "" {
		return ErrMissingURL
	}
	if !s.busy.CompareAndSwap(false, true) {
		return ErrUpdateInProgress
	}

	s.wg.Add(1)
	go func(u string) {
		defer s.wg.Done()
		s.attempt(u)
	}(rawURL)
	return nil
}

// InProgress reports whether an attempt is running.
func (s *Supervisor) InProgress() bool {
	return s.busy.Load()
}

// Wait blocks until the current attempt, if any, has finished.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) attempt(rawURL string) {
	s.log.Info("update starting", "url", rawURL)

	slot, n, err := s.flash(context.Background(), rawURL)
	if err != nil {
		s.log.Error("update failed", "url", rawURL, "err", err)
		s.busy.Store(false)
		return
	}

	s.log.Info("update succeeded, restarting", "slot", slot, "bytes", n, "delay", s.delay)
	system.RestartAfter(s.restarter, s.delay, "ota", s.log)

	// Only reached when the restarter could not restart.
	s.busy.Store(false)
}

// flash downloads rawURL into the inactive slot and marks it bootable.
// Nothing outside the partial file is touched until the image is complete.
func (s *Supervisor) flash(ctx context.Context, rawURL string) (Slot, int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "https" {
		return "", 0, fmt.Errorf("refusing %q scheme, https required", u.Scheme)
	}

	slot, err := s.store.Inactive()
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("fetch: unexpected status %s", resp.Status)
	}

	f, err := s.store.Create(slot)
	if err != nil {
		return "", 0, err
	}

	n, err := io.Copy(f, resp.Body)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = verify(n, resp.ContentLength)
	}
	if err != nil {
		s.store.Discard(slot)
		return "", 0, fmt.Errorf("write slot %s: %w", slot, err)
	}

	if err := s.store.Commit(slot); err != nil {
		s.store.Discard(slot)
		return "", 0, err
	}
	if err := s.store.MarkBootable(slot); err != nil {
		return "", 0, err
	}
	return slot, n, nil
}

func verify(got, declared int64) error {
	if got == 0 {
		return errors.New("empty image")
	}
	if declared >= 0 && got != declared {
		return fmt.Errorf("short image: got %d of %d bytes", got, declared)
	}
	return nil
}
