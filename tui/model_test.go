package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-seqevent/midi"
	"go-seqevent/seq"
	"go-seqevent/theme"
)

func newTestModel() Model {
	return NewModel(nil, theme.New(theme.DefaultPalette()), 2)
}

func snapshot(note int32) SnapshotMsg {
	return SnapshotMsg(midi.Snapshot{
		Port:    "Midi Through Port-0",
		Common:  seq.Common{Type: seq.EventNoteOn, Queue: seq.QueueDirect, Timestamp: 1000},
		Payload: seq.Note{Note: note, Velocity: 100},
		Wire:    []byte{0x06, 0x00},
	})
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm
}

func TestModel_KeepsLastRows(t *testing.T) {
	m := newTestModel()
	for _, n := range []int32{60, 61, 62} {
		m = update(t, m, snapshot(n))
	}

	require.Len(t, m.rows, 2)
	assert.Equal(t, seq.Note{Note: 61, Velocity: 100}, m.rows[0].Payload)
	assert.Contains(t, m.View(), "note=62")
	assert.NotContains(t, m.View(), "note=60")
}

func TestModel_PauseAndClear(t *testing.T) {
	m := newTestModel()
	m = update(t, m, key("p"))
	m = update(t, m, snapshot(60))
	assert.Empty(t, m.rows)
	assert.Contains(t, m.View(), "PAUSED (1 dropped)")

	m = update(t, m, key("p"))
	m = update(t, m, snapshot(60))
	require.Len(t, m.rows, 1)

	m = update(t, m, key("c"))
	assert.Empty(t, m.rows)
	assert.Contains(t, m.View(), "waiting for events")
}

func TestModel_WireToggle(t *testing.T) {
	m := newTestModel()
	m = update(t, m, snapshot(60))
	assert.NotContains(t, m.View(), "06 00")

	m = update(t, m, key("w"))
	assert.Contains(t, m.View(), "06 00")
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Empty(t, next.View())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 12))
	assert.Equal(t, "Midi Throug…", truncate("Midi Through Port-0", 12))
}
