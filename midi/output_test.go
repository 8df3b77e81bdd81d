package midi

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-seqevent/seq"
)

// recordSink keeps a decoded copy of every event it receives
type recordSink struct {
	commons  []seq.Common
	payloads []seq.Payload
	err      error
}

func (r *recordSink) Send(ev *seq.Event) error {
	if r.err != nil {
		return r.err
	}
	c, err := ev.Common()
	if err != nil {
		return err
	}
	p, err := ev.Payload()
	if err != nil {
		return err
	}
	r.commons = append(r.commons, c)
	r.payloads = append(r.payloads, p)
	return nil
}

func TestOutput_Queued(t *testing.T) {
	sink := &recordSink{}
	out, err := NewOutput(nil, sink, OutputConfig{SourcePort: 3, Queue: 1})
	require.NoError(t, err)
	defer out.Close()

	require.NoError(t, out.Enqueue(gomidi.NoteOn(0, 60, 127), 1000))

	require.Len(t, sink.commons, 1)
	assert.Equal(t, seq.Common{
		Type:      seq.EventNoteOn,
		Flags:     seq.TimeStampTick | seq.TimeModeAbs,
		Queue:     1,
		Timestamp: 1000,
		Source:    seq.Addr{Port: 3},
		Dest:      seq.Addr{Client: seq.AddressSubscribers, Port: seq.AddressUnknown},
	}, sink.commons[0])
	assert.Equal(t, seq.Note{Note: 60, Velocity: 127}, sink.payloads[0])
}

func TestOutput_Immediate(t *testing.T) {
	sink := &recordSink{}
	out, err := NewOutput(nil, sink, OutputConfig{SourcePort: 0, Queue: 1, Immediate: true})
	require.NoError(t, err)
	defer out.Close()

	require.NoError(t, out.Enqueue(gomidi.ControlChange(1, 7, 90), 5000))

	c := sink.commons[0]
	assert.Equal(t, seq.TimeStampReal|seq.TimeModeRel, c.Flags)
	assert.Equal(t, int32(seq.QueueDirect), c.Queue)
	assert.Equal(t, int64(0), c.Timestamp)
}

func TestOutput_SysexIsVariable(t *testing.T) {
	sink := &recordSink{}
	out, err := NewOutput(nil, sink, OutputConfig{Queue: 1})
	require.NoError(t, err)
	defer out.Close()

	require.NoError(t, out.Enqueue(gomidi.Message{0xF0, 0x01, 0xF7}, 10))
	require.NoError(t, out.Enqueue(gomidi.NoteOn(0, 1, 1), 20))

	assert.Equal(t, seq.LengthVariable, sink.commons[0].Flags&seq.LengthMask)
	assert.Equal(t, seq.Variable{Data: []byte{0xF0, 0x01, 0xF7}}, sink.payloads[0])
	assert.Equal(t, seq.LengthFixed, sink.commons[1].Flags&seq.LengthMask)
}

func TestOutput_Meta(t *testing.T) {
	sink := &recordSink{}
	out, err := NewOutput(nil, sink, OutputConfig{Queue: 1})
	require.NoError(t, err)
	defer out.Close()

	require.NoError(t, out.EnqueueMeta(0x51, []byte{0x07, 0xA1, 0x20}, 0))
	assert.Empty(t, sink.commons, "meta ignored unless enabled")

	out.cfg.HandleMeta = true
	require.NoError(t, out.EnqueueMeta(0x51, []byte{0x07, 0xA1, 0x20}, 0))
	require.Len(t, sink.commons, 1)
	assert.Equal(t, seq.EventUsrVar4, sink.commons[0].Type)
	assert.Equal(t, seq.Variable{Data: []byte{0x51, 0x07, 0xA1, 0x20}}, sink.payloads[0])
}

func TestOutput_Errors(t *testing.T) {
	sink := &recordSink{}
	out, err := NewOutput(nil, sink, OutputConfig{})
	require.NoError(t, err)

	err = out.Enqueue(gomidi.Message{0xF1, 0x00}, 0)
	assert.ErrorIs(t, err, ErrUnsupported)

	sink.err = errors.New("port gone")
	err = out.Enqueue(gomidi.NoteOn(0, 60, 1), 0)
	assert.ErrorContains(t, err, "port gone")

	require.NoError(t, out.Close())
	require.NoError(t, out.Close())
	err = out.Enqueue(gomidi.NoteOn(0, 60, 1), 0)
	assert.ErrorIs(t, err, seq.ErrInvalidState)
}

func TestOutput_WireSink(t *testing.T) {
	var buf bytes.Buffer
	out, err := NewOutput(nil, WireSink{W: &buf}, OutputConfig{SourcePort: 2, Queue: 1})
	require.NoError(t, err)
	defer out.Close()

	require.NoError(t, out.Enqueue(gomidi.NoteOn(0, 60, 127), 1000))
	require.NoError(t, out.Enqueue(gomidi.Message{0xF0, 0x7D, 0xF7}, 1001))
	assert.Equal(t, seq.WireSize*2+3, buf.Len())

	ev, err := seq.NewEvent(nil)
	require.NoError(t, err)
	defer ev.Free()

	_, err = ev.ReadFrom(&buf)
	require.NoError(t, err)
	msg, err := Message(ev)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x90, 60, 127}, []byte(msg))

	_, err = ev.ReadFrom(&buf)
	require.NoError(t, err)
	ts, err := ev.Timestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1001), ts)
	data, err := ev.VariablePayload()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF0, 0x7D, 0xF7}, data)
}

func TestOutput_ArenaReuse(t *testing.T) {
	arena, err := seq.NewArena(2, 128)
	require.NoError(t, err)
	defer arena.Close()

	out, err := NewOutput(arena, SinkFunc(func(*seq.Event) error { return nil }), OutputConfig{})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, out.Enqueue(gomidi.Message{0xF0, byte(i), 0xF7}, int64(i)))
	}
	assert.Equal(t, 0, arena.Available(), "record plus one payload")

	require.NoError(t, out.Close())
	assert.Equal(t, 2, arena.Available())
}

func TestOutput_NoteOffVelocityOnWire(t *testing.T) {
	var buf bytes.Buffer
	out, err := NewOutput(nil, WireSink{W: &buf}, OutputConfig{Queue: 1})
	require.NoError(t, err)
	defer out.Close()

	require.NoError(t, out.Enqueue(gomidi.NoteOffVelocity(2, 60, 64), 0))

	wire := buf.Bytes()
	require.Len(t, wire, seq.WireSize)
	assert.Equal(t, byte(seq.EventNoteOff), wire[0])
	// note payload starts at 16: channel, note, velocity, off velocity
	assert.Equal(t, []byte{2, 60, 64, 0}, wire[16:20])
}
