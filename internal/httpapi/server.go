// internal/httpapi/server.go
package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tamzrod/panel-controller/internal/ota"
	"github.com/tamzrod/panel-controller/internal/poller"
	"github.com/tamzrod/panel-controller/internal/settings"
	"github.com/tamzrod/panel-controller/internal/status"
	"github.com/tamzrod/panel-controller/internal/system"
)

// DefaultRestartDelay separates the save reply from the restart.
const DefaultRestartDelay = time.Second

const contentTypeCBOR = "application/cbor"

// Snapshotter produces an out-of-band status snapshot.
type Snapshotter interface {
	Snapshot(ctx context.Context) (poller.PollResult, error)
}

// Updater starts a firmware update.
type Updater interface {
	StartUpdate(rawURL string) error
}

// SettingsSaver commits network settings.
type SettingsSaver interface {
	Save(ctx context.Context, n settings.Network) error
}

type Deps struct {
	Status       Snapshotter
	OTA          Updater
	Settings     SettingsSaver
	Restarter    system.Restarter
	RestartDelay time.Duration

	// WebRoot holds index.html. Empty disables GET /.
	WebRoot string

	// Hub serves GET /ws when set.
	Hub *Hub

	Logger *slog.Logger
}

// Server is the HTTP boundary. No authentication.
type Server struct {
	deps Deps
	log  *slog.Logger
	mux  *http.ServeMux
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.RestartDelay <= 0 {
		deps.RestartDelay = DefaultRestartDelay
	}

	s := &Server{
		deps: deps,
		log:  deps.Logger,
		mux:  http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("POST /ota", s.handleOTA)
	s.mux.HandleFunc("POST /api/save_wifi", s.handleSaveWifi)
	if deps.Hub != nil {
		s.mux.Handle("GET /ws", deps.Hub)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.deps.Hub != nil {
		s.deps.Hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.deps.WebRoot == "" {
		http.NotFound(w, r)
		return
	}
	page, err := os.ReadFile(filepath.Join(s.deps.WebRoot, "index.html"))
	if err != nil {
		s.log.Warn("index page unavailable", "err", err)
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// handleStatus goes through the synchronizer, so the serial peer sees
// the same line the HTTP client gets.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Status.Snapshot(r.Context())
	if err != nil {
		http.Error(w, "status unavailable", http.StatusServiceUnavailable)
		return
	}
	if res.Err != nil {
		s.log.Warn("status delivery failed", "source", res.Source, "err", res.Err)
	}

	if strings.Contains(r.Header.Get("Accept"), contentTypeCBOR) {
		body, err := status.EncodeCBOR(res.Snapshot)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentTypeCBOR)
		_, _ = w.Write(body)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(res.Payload)
}

func (s *Server) handleOTA(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := ExtractUpdateURL(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch err := s.deps.OTA.StartUpdate(u); {
	case errors.Is(err, ota.ErrMissingURL):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ota.ErrUpdateInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_, _ = io.WriteString(w, "OTA Starting...")
}

func (s *Server) handleSaveWifi(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n, err := ParseSaveWifi(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.deps.Settings.Save(r.Context(), n); err != nil {
		s.log.Error("settings save failed", "err", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	s.log.Info("network settings saved", "ssid", n.SSID, "ip", n.IP, "gw", n.Gateway)

	_, _ = io.WriteString(w, "Saved. Rebooting...")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	go system.RestartAfter(s.deps.Restarter, s.deps.RestartDelay, "network settings saved", s.log)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrMalformedRequest
	}
	return body, nil
}
