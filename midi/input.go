package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-seqevent/debug"
	"go-seqevent/seq"
)

// Snapshot is a decoded copy of an event, safe to keep after the record
// it came from has been reused
type Snapshot struct {
	Port    string
	Common  seq.Common
	Payload seq.Payload
	Wire    []byte // kernel layout
}

// Input listens on a MIDI port and decodes every message into a
// sequencer event
type Input struct {
	id       string
	inPort   drivers.In
	stopFunc func()

	mu     sync.Mutex
	ev     *seq.Event
	port   int32
	events chan Snapshot
	closed bool
}

// NewInput creates an input. inPort may be nil, in which case events are
// only produced by Handle.
func NewInput(id string, inPort drivers.In, alloc seq.Allocator, port int32) (*Input, error) {
	ev, err := seq.NewEvent(alloc)
	if err != nil {
		return nil, fmt.Errorf("input event: %w", err)
	}
	in := &Input{
		id:     id,
		inPort: inPort,
		ev:     ev,
		port:   port,
		events: make(chan Snapshot, 64),
	}

	// Open input
	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, in.Handle, gomidi.UseSysEx())
		if err != nil {
			ev.Free()
			return nil, fmt.Errorf("open input: %w", err)
		}
		in.stopFunc = stop
	}

	return in, nil
}

func (in *Input) ID() string {
	return in.id
}

func (in *Input) Events() <-chan Snapshot {
	return in.events
}

// Handle decodes one message received at timestampms milliseconds.
// Unsupported messages are skipped; a full channel drops the event.
func (in *Input) Handle(msg gomidi.Message, timestampms int32) {
	typ, payload, err := Translate(msg)
	if err != nil {
		debug.LogEvery(32, "input", "%s: skipped %v", in.id, msg)
		return
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return
	}
	snap, err := in.decode(typ, payload, timestampms)
	if err != nil {
		debug.Error("input", err)
		return
	}

	select {
	case in.events <- snap:
	default:
		debug.LogEvery(16, "input", "%s: channel full", in.id)
	}
}

// caller holds in.mu
func (in *Input) decode(typ seq.EventType, payload seq.Payload, timestampms int32) (Snapshot, error) {
	c := seq.Common{
		Type:      typ,
		Flags:     seq.TimeStampReal | seq.TimeModeAbs,
		Queue:     seq.QueueDirect,
		Timestamp: int64(timestampms) * 1_000_000,
		Source:    seq.Addr{Port: in.port},
		Dest:      seq.Addr{Client: seq.AddressSubscribers, Port: seq.AddressUnknown},
	}
	if seq.ClassOf(typ) == seq.ClassVariable {
		c.Flags |= seq.LengthVariable
	}

	if err := in.ev.Clear(); err != nil {
		return Snapshot{}, err
	}
	if err := in.ev.SetCommon(c); err != nil {
		return Snapshot{}, err
	}
	if err := in.ev.SetPayload(payload); err != nil {
		return Snapshot{}, err
	}

	// read back through the record so the snapshot shows what it stores
	common, err := in.ev.Common()
	if err != nil {
		return Snapshot{}, err
	}
	p, err := in.ev.Payload()
	if err != nil {
		return Snapshot{}, err
	}
	wire, err := in.ev.MarshalBinary()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Port: in.id, Common: common, Payload: p, Wire: wire}, nil
}

func (in *Input) Close() error {
	if in.stopFunc != nil {
		in.stopFunc()
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return nil
	}
	in.closed = true
	close(in.events)
	return in.ev.Free()
}
