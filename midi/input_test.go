package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-seqevent/config"
	"go-seqevent/seq"
)

func TestInput_Handle(t *testing.T) {
	in, err := NewInput("test", nil, nil, 4)
	require.NoError(t, err)
	defer in.Close()

	in.Handle(gomidi.NoteOn(1, 64, 80), 1500)
	in.Handle(gomidi.Message{0xF1, 0x00}, 1501) // skipped
	in.Handle(gomidi.Message{0xF0, 0x01, 0xF7}, 1502)

	snap := <-in.Events()
	assert.Equal(t, "test", snap.Port)
	assert.Equal(t, seq.EventNoteOn, snap.Common.Type)
	assert.Equal(t, int64(1_500_000_000), snap.Common.Timestamp)
	assert.Equal(t, seq.Addr{Port: 4}, snap.Common.Source)
	assert.Equal(t, seq.Note{Channel: 1, Note: 64, Velocity: 80}, snap.Payload)
	assert.Len(t, snap.Wire, seq.WireSize)

	snap = <-in.Events()
	assert.Equal(t, seq.EventSysex, snap.Common.Type)
	assert.Equal(t, seq.Variable{Data: []byte{0xF0, 0x01, 0xF7}}, snap.Payload)
	assert.Len(t, snap.Wire, seq.WireSize+3)
}

func TestInput_Close(t *testing.T) {
	in, err := NewInput("test", nil, nil, 0)
	require.NoError(t, err)
	require.NoError(t, in.Close())
	require.NoError(t, in.Close())

	// late messages after close are ignored
	in.Handle(gomidi.NoteOn(0, 60, 1), 0)
	_, ok := <-in.Events()
	assert.False(t, ok)
}

func TestMatchName(t *testing.T) {
	assert.True(t, MatchName("Launchpad X LPX MIDI", "lpx midi"))
	assert.True(t, MatchName("Midi Through Port-0", ""))
	assert.False(t, MatchName("Midi Through Port-0", "launchpad"))
}

func TestInput_LargeSysexWithDefaultConfig(t *testing.T) {
	alloc, closeAlloc, err := config.DefaultConfig().Allocator()
	require.NoError(t, err)
	defer closeAlloc()

	in, err := NewInput("test", nil, alloc, 0)
	require.NoError(t, err)
	defer in.Close()

	msg := make(gomidi.Message, 600)
	msg[0], msg[len(msg)-1] = 0xF0, 0xF7
	for i := 1; i < len(msg)-1; i++ {
		msg[i] = byte(i % 0x80)
	}
	in.Handle(msg, 0)

	select {
	case snap := <-in.Events():
		assert.Equal(t, seq.EventSysex, snap.Common.Type)
		assert.Equal(t, seq.Variable{Data: []byte(msg)}, snap.Payload)
		assert.Len(t, snap.Wire, seq.WireSize+600)
	default:
		t.Fatal("sysex was dropped")
	}
}
