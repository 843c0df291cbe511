// cmd/panelctl/monitor.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
)

var (
	monPort string
	monBaud int
	monURL  string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live view of the status feed",
	Long: `Decode status lines as they arrive and show the panel state.

Sources:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://192.168.2.123/ws`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVarP(&monPort, "port", "p", "", "Serial port device")
	monitorCmd.Flags().IntVarP(&monBaud, "baud", "b", 115200, "Baud rate (serial only)")
	monitorCmd.Flags().StringVarP(&monURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.AddCommand(monitorCmd)
}

// lineSource yields one status line per call.
type lineSource interface {
	ReadLine() ([]byte, error)
	Close() error
}

type serialSource struct {
	port serial.Port
	sc   *bufio.Scanner
}

func openSerialSource(portName string, baud int) (*serialSource, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return &serialSource{port: port, sc: bufio.NewScanner(port)}, nil
}

func (s *serialSource) ReadLine() ([]byte, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return s.sc.Bytes(), nil
}

func (s *serialSource) Close() error { return s.port.Close() }

type wsSource struct {
	conn *websocket.Conn
}

func openWSSource(wsURL string) (*wsSource, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}
	return &wsSource{conn: conn}, nil
}

func (w *wsSource) ReadLine() ([]byte, error) {
	for {
		kind, msg, err := w.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage {
			return msg, nil
		}
	}
}

func (w *wsSource) Close() error { return w.conn.Close() }

func openSource() (lineSource, string, error) {
	if monURL != "" {
		src, err := openWSSource(monURL)
		if err != nil {
			return nil, "", err
		}
		return src, "WebSocket: " + monURL, nil
	}
	if monPort != "" {
		src, err := openSerialSource(monPort, monBaud)
		if err != nil {
			return nil, "", err
		}
		return src, fmt.Sprintf("Serial: %s @ %d baud", monPort, monBaud), nil
	}
	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	src, info, err := openSource()
	if err != nil {
		return err
	}
	defer src.Close()

	p := tea.NewProgram(newMonitorModel(info), tea.WithAltScreen())

	go func() {
		for {
			line, err := src.ReadLine()
			if err != nil {
				p.Send(sourceClosedMsg{err: err})
				return
			}
			p.Send(decodeLine(line, time.Now()))
		}
	}()

	_, err = p.Run()
	return err
}
