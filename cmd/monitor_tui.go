// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/padlink/pkg/config"
	"github.com/Thermoquad/padlink/pkg/dispatch"
	"github.com/Thermoquad/padlink/pkg/feed"
	"github.com/Thermoquad/padlink/pkg/padproto"
)

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type monitorTickMsg time.Time

// monitorBatchMsg carries results collected since the last batch
type monitorBatchMsg []feed.Result

// linkClosedMsg reports the end of the result stream
type linkClosedMsg struct {
	err error
}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

type monitorModel struct {
	connInfo string
	board    *dispatch.Board
	stats    *padproto.Statistics
	arming   *padproto.ArmingState
	input    textinput.Model
	send     func(padproto.Message) error // nil when read-only
	closed   bool
	width    int
	height   int
	quitting bool
}

func newMonitorModel(connInfo string, c config.Config, send func(padproto.Message) error) monitorModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "open N | close N | arm LEVEL"
	ti.CharLimit = 32
	ti.Width = 32
	if send != nil {
		ti.Focus()
	}

	board := dispatch.NewBoard(c.Plot.TimeRange, c.Heartbeat.Timeout, 200)
	board.Labels = c.ActuatorLabel

	return monitorModel{
		connInfo: connInfo,
		board:    board,
		stats:    padproto.NewStatistics(),
		input:    ti,
		send:     send,
		width:    80,
		height:   24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(monitorTickCmd(), textinput.Blink)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			m.submit()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		m.stats.CalculateRates()
		m.board.Tick()
		return m, monitorTickCmd()

	case monitorBatchMsg:
		for _, res := range msg {
			m.apply(res)
		}

	case linkClosedMsg:
		m.closed = true
		if msg.err != nil {
			m.board.Log(fmt.Sprintf("Link closed: %v", msg.err))
		} else {
			m.board.Log("Link closed")
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// apply folds one framed result into the board and statistics.
func (m *monitorModel) apply(res feed.Result) {
	if res.Err != nil {
		m.stats.Update(nil, res.Err, nil)
		m.board.Log(fmt.Sprintf("DECODE ERROR: %v", res.Err))
		return
	}

	// Calibrated results come from legacy frames, live or recorded
	legacyFrame := res.Calibrated
	if res.Serial != nil {
		m.stats.RecordSerialFrame()
	}
	if legacyFrame {
		m.board.ResetHeartbeat()
	}

	for _, ev := range res.Events {
		verrs := padproto.ValidateEvent(ev)
		m.stats.Update(&ev, nil, verrs)
		for _, verr := range verrs {
			m.board.Log(verr.Message)
		}

		// Legacy frames repeat every valve; only changes are worth a log line
		if st, ok := ev.Message.(padproto.ActuatorStatePacket); ok && legacyFrame {
			if prev, seen := m.board.Actuators[st.ID]; seen && prev == st.State {
				continue
			}
		}

		dispatch.Dispatch(m.board, ev, !legacyFrame)
		m.observe(ev)
	}
}

// observe handles the subtypes dispatch ignores.
func (m *monitorModel) observe(ev padproto.Event) {
	switch v := ev.Message.(type) {
	case padproto.ArmingStatePacket:
		if m.arming == nil || *m.arming != v.State {
			m.board.Log(fmt.Sprintf("Arming state: %s", v.State))
		}
		state := v.State
		m.arming = &state
	case padproto.ActuationAcknowledgement:
		m.board.Log(fmt.Sprintf("%s request: %s", m.board.ActuatorLabel(v.ID), v.Status))
	case padproto.ArmingAcknowledgement:
		m.board.Log(fmt.Sprintf("Arming request: %s", v.Status))
	}
}

// submit sends the command typed on the input line.
func (m *monitorModel) submit() {
	text := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if text == "" {
		return
	}
	if m.send == nil {
		m.board.Log("Read-only session: commands are disabled")
		return
	}

	req, err := parseControlCommand(text)
	if err != nil {
		m.board.Log(fmt.Sprintf("Invalid command: %v", err))
		return
	}
	if err := m.send(req); err != nil {
		m.board.Log(fmt.Sprintf("Failed to send command: %v", err))
		return
	}
	m.board.Log(fmt.Sprintf("Sent %s %s", req.Header().SubType, padproto.FormatMessage(req)))
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

var sensorUnits = map[byte]string{'m': "kg", 'p': "psi", 't': "°C"}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("PADLINK - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Esc to quit", m.connInfo)))
	s.WriteString("\n\n")

	// Link status
	switch {
	case m.closed:
		s.WriteString(errorStyle.Render("✗ Link closed"))
	case m.board.Heartbeat.Alive():
		s.WriteString(valueStyle.Render("✓ Heartbeat OK"))
	default:
		s.WriteString(errorStyle.Render("✗ Heartbeat lost"))
	}
	if m.arming != nil {
		s.WriteString("   ")
		s.WriteString(labelStyle.Render("Arming:"))
		s.WriteString(" ")
		s.WriteString(warningStyle.Render(m.arming.String()))
	}
	s.WriteString("\n")

	// Readings
	readings := strings.Builder{}
	for _, group := range []byte{'m', 'p', 't'} {
		var cells []string
		for _, key := range m.board.Plots.Keys() {
			if key[0] != group {
				continue
			}
			p, _ := m.board.Plots.Latest(key)
			cells = append(cells, fmt.Sprintf("%s %s",
				labelStyle.Render(key+":"),
				valueStyle.Render(fmt.Sprintf("%.2f %s", p.Value, sensorUnits[group]))))
		}
		if len(cells) > 0 {
			readings.WriteString(strings.Join(cells, "   "))
			readings.WriteString("\n")
		}
	}
	if readings.Len() == 0 {
		readings.WriteString(headerStyle.Render("(no readings yet)"))
	}
	s.WriteString(boxStyle.Render(strings.TrimRight(readings.String(), "\n")))
	s.WriteString("\n")

	// Actuators
	ids := make([]int, 0, len(m.board.Actuators))
	for id := range m.board.Actuators {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	actuators := strings.Builder{}
	for i, id := range ids {
		state := m.board.Actuators[uint8(id)]
		text := fmt.Sprintf("%s %s", m.board.ActuatorLabel(uint8(id)), state)
		if state == padproto.ActuatorOn {
			actuators.WriteString(valueStyle.Render(text))
		} else {
			actuators.WriteString(headerStyle.Render(text))
		}
		if (i+1)%6 == 0 {
			actuators.WriteString("\n")
		} else {
			actuators.WriteString("  ")
		}
	}
	if len(ids) == 0 {
		actuators.WriteString(headerStyle.Render("(no actuator states yet)"))
	}
	s.WriteString(boxStyle.Render(strings.TrimRight(actuators.String(), "\n ")))
	s.WriteString("\n")

	// Statistics
	var validPercent float64
	if m.stats.TotalPackets > 0 {
		validPercent = float64(m.stats.ValidPackets) * 100.0 / float64(m.stats.TotalPackets)
	}
	errorText := valueStyle.Render(fmt.Sprintf("%d", m.stats.Errors()))
	if m.stats.Errors() > 0 {
		errorText = errorStyle.Render(fmt.Sprintf("%d", m.stats.Errors()))
	}
	stats := fmt.Sprintf("%s %s   %s %s   %s %s   %s %s   %s %s",
		labelStyle.Render("Total:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.TotalPackets)),
		labelStyle.Render("Valid:"), valueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidPackets, validPercent)),
		labelStyle.Render("Errors:"), errorText,
		labelStyle.Render("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.AnomalousValues)),
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f pkts/s", m.stats.PacketRate)),
	)
	s.WriteString(boxStyle.Render(stats))
	s.WriteString("\n")

	// Log
	logHeight := m.height - 18
	if logHeight < 5 {
		logHeight = 5
	}
	logContent := strings.Builder{}
	start := len(m.board.Entries) - logHeight
	if start < 0 {
		start = 0
	}
	if len(m.board.Entries) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	}
	for _, entry := range m.board.Entries[start:] {
		logContent.WriteString(fmt.Sprintf("%s %s\n",
			headerStyle.Render(entry.Time.Format("15:04:05.000")),
			entry.Line,
		))
	}
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	s.WriteString(boxStyle.Width(width).Render(strings.TrimRight(logContent.String(), "\n")))
	s.WriteString("\n")

	if m.send != nil {
		s.WriteString(m.input.View())
	} else {
		s.WriteString(headerStyle.Render("read-only session"))
	}

	return s.String()
}
