package midi

import (
	"errors"
	"fmt"
	"io"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-seqevent/debug"
	"go-seqevent/seq"
)

// Sink receives fully populated events from an Output
type Sink interface {
	Send(ev *seq.Event) error
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(ev *seq.Event) error

func (f SinkFunc) Send(ev *seq.Event) error {
	return f(ev)
}

// WireSink writes each event in kernel layout to W
type WireSink struct {
	W io.Writer
}

func (s WireSink) Send(ev *seq.Event) error {
	_, err := ev.WriteTo(s.W)
	return err
}

// PortSink converts events back to MIDI messages and sends them to a port
// right away. Timestamps are not honoured.
type PortSink struct {
	send func(msg gomidi.Message) error
}

// NewPortSink opens out for sending
func NewPortSink(out drivers.Out) (*PortSink, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return &PortSink{send: send}, nil
}

func (s *PortSink) Send(ev *seq.Event) error {
	msg, err := Message(ev)
	if err != nil {
		return err
	}
	return s.send(msg)
}

// OutputConfig selects how an Output stamps and routes events
type OutputConfig struct {
	SourcePort int32
	Queue      int32 // ignored when Immediate
	Immediate  bool  // bypass the queue and deliver now
	HandleMeta bool  // forward meta messages as USR_VAR4 events
}

// Output turns MIDI messages into sequencer events addressed to all
// subscribers of the source port. One event record is reused for every send.
type Output struct {
	mu   sync.Mutex
	cfg  OutputConfig
	ev   *seq.Event
	sink Sink
}

// NewOutput allocates the output's event record from alloc
func NewOutput(alloc seq.Allocator, sink Sink, cfg OutputConfig) (*Output, error) {
	ev, err := seq.NewEvent(alloc)
	if err != nil {
		return nil, fmt.Errorf("output event: %w", err)
	}
	return &Output{cfg: cfg, ev: ev, sink: sink}, nil
}

// Enqueue sends msg at tick (ignored for immediate outputs). Messages
// without an event form are dropped and reported as ErrUnsupported.
func (o *Output) Enqueue(msg gomidi.Message, tick int64) error {
	typ, payload, err := Translate(msg)
	if err != nil {
		debug.LogEvery(32, "output", "dropped %v: %v", msg, err)
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send(typ, payload, tick)
}

// EnqueueMeta sends an SMF meta message with its type byte in front of the
// data. A no-op unless HandleMeta is set.
func (o *Output) EnqueueMeta(metaType byte, data []byte, tick int64) error {
	if !o.cfg.HandleMeta {
		return nil
	}
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, metaType)
	buf = append(buf, data...)

	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send(seq.EventUsrVar4, seq.Variable{Data: buf}, tick)
}

// caller holds o.mu
func (o *Output) send(typ seq.EventType, payload seq.Payload, tick int64) error {
	if o.ev == nil {
		return fmt.Errorf("send: output closed: %w", seq.ErrInvalidState)
	}
	if err := o.ev.Clear(); err != nil {
		return err
	}
	if err := o.ev.SetCommon(o.common(typ, tick)); err != nil {
		return err
	}
	if err := o.ev.SetPayload(payload); err != nil {
		return err
	}
	if err := o.sink.Send(o.ev); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func (o *Output) common(typ seq.EventType, tick int64) seq.Common {
	c := seq.Common{
		Type:   typ,
		Source: seq.Addr{Port: o.cfg.SourcePort},
		Dest:   seq.Addr{Client: seq.AddressSubscribers, Port: seq.AddressUnknown},
	}
	if o.cfg.Immediate {
		c.Flags = seq.TimeStampReal | seq.TimeModeRel
		c.Queue = seq.QueueDirect
	} else {
		c.Flags = seq.TimeStampTick | seq.TimeModeAbs
		c.Queue = o.cfg.Queue
		c.Timestamp = tick
	}
	if seq.ClassOf(typ) == seq.ClassVariable {
		c.Flags |= seq.LengthVariable
	}
	return c
}

// Close releases the event record. Further sends fail.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ev == nil {
		return nil
	}
	err := o.ev.Free()
	o.ev = nil
	return err
}

// IsUnsupported reports whether err came from a message with no event form
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
