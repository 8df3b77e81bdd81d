package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-seqevent/midi"
	"go-seqevent/seq"
	"go-seqevent/theme"
)

type Model struct {
	DeviceMgr *midi.DeviceManager
	Theme     *theme.Theme
	feed      chan midi.Snapshot
	rows      []midi.Snapshot
	maxRows   int
	inputs    map[string]bool
	paused    bool
	showWire  bool
	dropped   int
	quitting  bool
}

type SnapshotMsg midi.Snapshot

type DeviceEventMsg midi.DeviceEvent

func NewModel(deviceMgr *midi.DeviceManager, th *theme.Theme, maxRows int) Model {
	if maxRows <= 0 {
		maxRows = 20
	}
	return Model{
		DeviceMgr: deviceMgr,
		Theme:     th,
		feed:      make(chan midi.Snapshot, 256),
		maxRows:   maxRows,
		inputs:    make(map[string]bool),
	}
}

func ListenForEvents(feed <-chan midi.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg(<-feed)
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForEvents(m.feed)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "p", " ":
			m.paused = !m.paused

		case "c":
			m.rows = nil
			m.dropped = 0

		case "w":
			m.showWire = !m.showWire
		}

	case SnapshotMsg:
		if m.paused {
			m.dropped++
		} else {
			m.rows = append(m.rows, midi.Snapshot(msg))
			if len(m.rows) > m.maxRows {
				m.rows = m.rows[len(m.rows)-m.maxRows:]
			}
		}
		return m, ListenForEvents(m.feed)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		if event.Type == midi.DeviceConnected {
			m.inputs[event.ID] = true

			// Forward decoded events from the input
			feed := m.feed
			go func() {
				for snap := range event.Input.Events() {
					feed <- snap
				}
			}()
		} else if event.Type == midi.DeviceDisconnected {
			delete(m.inputs, event.ID)
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

// Feed returns the channel the model reads snapshots from
func (m Model) Feed() chan<- midi.Snapshot {
	return m.feed
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	state := "LIVE"
	if m.paused {
		state = fmt.Sprintf("PAUSED (%d dropped)", m.dropped)
	}
	header := headerStyle.Render(fmt.Sprintf("go-seqevent  %s  inputs:%d  events:%d", state, len(m.inputs), len(m.rows)))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")

	if len(m.rows) == 0 {
		out.WriteString(dimStyle.Render("  waiting for events..."))
		out.WriteString("\n")
	}
	for _, row := range m.rows {
		out.WriteString(m.renderRow(row))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render("p:pause  c:clear  w:wire bytes  q:quit"))
	return out.String()
}

func (m Model) renderRow(s midi.Snapshot) string {
	class := seq.ClassOf(s.Common.Type)
	style := lipgloss.NewStyle().Foreground(m.Theme.ClassColor(class))
	line := fmt.Sprintf("%c %-12s %-10s t=%-12d q=%-3d %d:%d->%d:%d %s",
		m.Theme.ClassSymbol(class), truncate(s.Port, 12), s.Common.Type, s.Common.Timestamp, s.Common.Queue,
		s.Common.Source.Client, s.Common.Source.Port, s.Common.Dest.Client, s.Common.Dest.Port,
		seq.FormatPayload(s.Payload))
	if m.showWire {
		line += fmt.Sprintf("\n    % x", s.Wire)
	}
	return style.Render(line)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
