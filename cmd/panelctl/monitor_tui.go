// cmd/panelctl/monitor_tui.go
package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tamzrod/panel-controller/internal/status"
)

const maxMonitorErrors = 8

// Messages
type statusLineMsg struct {
	at   time.Time
	snap status.Snapshot
	err  error
	raw  string
}

type sourceClosedMsg struct {
	err error
}

func decodeLine(line []byte, at time.Time) statusLineMsg {
	snap, err := status.Decode(line)
	return statusLineMsg{at: at, snap: snap, err: err, raw: string(line)}
}

type monitorModel struct {
	source   string
	last     *status.Snapshot
	lastAt   time.Time
	good     int
	bad      int
	errors   []string
	closed   error
	quitting bool
}

func newMonitorModel(source string) monitorModel {
	return monitorModel{source: source}
}

func (m monitorModel) Init() tea.Cmd {
	return nil
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case statusLineMsg:
		if msg.err != nil {
			m.bad++
			m.errors = append(m.errors, fmt.Sprintf("[%s] %v", msg.at.Format("15:04:05.000"), msg.err))
			if len(m.errors) > maxMonitorErrors {
				m.errors = m.errors[len(m.errors)-maxMonitorErrors:]
			}
			return m, nil
		}
		m.good++
		snap := msg.snap
		m.last = &snap
		m.lastAt = msg.at

	case sourceClosedMsg:
		m.closed = msg.err
	}
	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m monitorModel) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("panelctl monitor"))
	s.WriteString("  ")
	s.WriteString(dimStyle.Render(m.source))
	s.WriteString("\n\n")

	if m.last == nil {
		s.WriteString(dimStyle.Render("waiting for status..."))
		s.WriteString("\n")
	} else {
		s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			boxStyle.Render(m.renderSwitches()),
			" ",
			boxStyle.Render(m.renderInputs()),
		))
		s.WriteString("\n")
	}

	s.WriteString(fmt.Sprintf("\n%s %s  %s %s",
		labelStyle.Render("lines ok"), valueStyle.Render(fmt.Sprint(m.good)),
		labelStyle.Render("rejected"), errorStyle.Render(fmt.Sprint(m.bad))))
	if !m.lastAt.IsZero() {
		s.WriteString(dimStyle.Render(fmt.Sprintf("  last %s", m.lastAt.Format("15:04:05.000"))))
	}
	s.WriteString("\n")

	for _, e := range m.errors {
		s.WriteString(errorStyle.Render(e))
		s.WriteString("\n")
	}
	if m.closed != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("source closed: %v", m.closed)))
		s.WriteString("\n")
	}

	s.WriteString(dimStyle.Render("\nq to quit"))
	return s.String()
}

func (m monitorModel) renderSwitches() string {
	snap := m.last
	rows := []string{
		row("mode", snap.Mode.String()),
		row("mode switch", fmt.Sprintf("%d %d", snap.ModeSwitch[0], snap.ModeSwitch[1])),
		row("indicators", lamps(snap.Indicators[:])),
		row("slot switch", fmt.Sprintf("%d %d", snap.SlotSwitch[0], snap.SlotSwitch[1])),
		row("toggle", fmt.Sprint(snap.Toggle)),
		row("momentary", fmt.Sprint(snap.Momentary)),
	}
	return strings.Join(rows, "\n")
}

func (m monitorModel) renderInputs() string {
	snap := m.last
	rows := []string{
		row("B2 pot", bar(snap.Analog[0])),
		row("B3 pot", bar(snap.Analog[1])),
	}
	for j, lines := range snap.Joysticks {
		rows = append(rows, row(fmt.Sprintf("C%d", j+1), lamps(lines)))
	}
	return strings.Join(rows, "\n")
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func lamps(v []int) string {
	var b strings.Builder
	for i, x := range v {
		if i > 0 {
			b.WriteByte(' ')
		}
		if x != 0 {
			b.WriteString("●")
		} else {
			b.WriteString("○")
		}
	}
	return b.String()
}

const barWidth = 20

func bar(v int) string {
	n := v * barWidth / status.AnalogMax
	if n < 0 {
		n = 0
	}
	if n > barWidth {
		n = barWidth
	}
	return fmt.Sprintf("%s%s %4d", strings.Repeat("█", n), strings.Repeat("░", barWidth-n), v)
}
