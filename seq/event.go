package seq

import (
	"fmt"
	"runtime"

	"go-seqevent/debug"
)

type state uint8

const (
	stateUnallocated state = iota
	stateLive
	stateFreed
)

// noCopy makes go vet's copylocks check reject copies of an Event.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// blocks are the allocations an event owns. Kept apart from Event so the
// cleanup attached to an Event can reach them without reaching the Event.
type blocks struct {
	alloc Allocator
	rec   []byte
	ext   []byte
}

func (b *blocks) releaseExt() error {
	if b.ext == nil {
		return nil
	}
	err := b.alloc.Free(b.ext)
	b.ext = nil
	return err
}

func (b *blocks) release() error {
	extErr := b.releaseExt()
	recErr := b.alloc.Free(b.rec)
	b.rec = nil
	if recErr != nil {
		return recErr
	}
	return extErr
}

// Event owns one sequencer event record. The zero value is unallocated;
// Alloc makes it live and Free releases it for good. An Event must not be
// copied, pass *Event around instead. It is not safe for concurrent use.
type Event struct {
	_       noCopy
	mem     *blocks
	state   state
	cleanup runtime.Cleanup
}

// NewEvent allocates a live event from a, or DefaultAllocator when a is nil.
func NewEvent(a Allocator) (*Event, error) {
	e := &Event{}
	if err := e.Alloc(a); err != nil {
		return nil, err
	}
	return e, nil
}

// Alloc binds a freshly allocated record to e. On failure e stays unallocated.
func (e *Event) Alloc(a Allocator) error {
	if e.state != stateUnallocated {
		return fmt.Errorf("alloc: %w", ErrInvalidState)
	}
	if a == nil {
		a = DefaultAllocator
	}

	rec, err := a.Alloc(RecordSize)
	if err != nil {
		return fmt.Errorf("alloc event: %w", err)
	}
	if len(rec) < RecordSize {
		if err := a.Free(rec); err != nil {
			debug.Error("event", err)
		}
		return fmt.Errorf("alloc event: got %d bytes: %w", len(rec), ErrAllocation)
	}
	rec = rec[:RecordSize]
	clear(rec)

	e.mem = &blocks{alloc: a, rec: rec}
	e.state = stateLive
	// Records dropped without Free go back to the allocator at GC time
	e.cleanup = runtime.AddCleanup(e, func(b *blocks) {
		debug.Log("event", "collected without Free")
		b.release()
	}, e.mem)
	return nil
}

// Free releases the record and any attached variable payload. After Free
// every operation on e fails with ErrInvalidState, including another Free.
func (e *Event) Free() error {
	if e.state != stateLive {
		return fmt.Errorf("free: %w", ErrInvalidState)
	}
	e.cleanup.Stop()
	err := e.mem.release()
	e.mem = nil
	e.state = stateFreed
	if err != nil {
		return fmt.Errorf("free event: %w", err)
	}
	return nil
}

// Live reports whether e holds a record.
func (e *Event) Live() bool {
	return e != nil && e.state == stateLive
}

func (e *Event) record(op string) ([]byte, error) {
	if !e.Live() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidState)
	}
	return e.mem.rec, nil
}

// Clear zeroes the record and drops the variable payload, keeping e live.
func (e *Event) Clear() error {
	rec, err := e.record("clear")
	if err != nil {
		return err
	}
	clear(rec)
	if err := e.mem.releaseExt(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// Common holds the scalar fields shared by every event.
// The source client is assigned by the sequencer when the event is sent,
// so SetCommon ignores Source.Client.
type Common struct {
	Type      EventType
	Flags     Flags
	Tag       int32
	Queue     int32
	Timestamp int64 // ticks or nanoseconds, see Flags.RealTime
	Source    Addr
	Dest      Addr
}

// SetCommon writes all common fields. Flags are stored before the timestamp
// is encoded, so the timestamp is always read with the flags given here.
func (e *Event) SetCommon(c Common) error {
	rec, err := e.record("set common")
	if err != nil {
		return err
	}
	putI32(rec, offType, int32(c.Type))
	putI32(rec, offFlags, int32(c.Flags))
	putI32(rec, offTag, c.Tag)
	putI32(rec, offQueue, c.Queue)
	encodeTime(rec, offTimeSec, offTimeNs, Flags(getI32(rec, offFlags)), c.Timestamp)
	putI32(rec, offSrcPort, c.Source.Port)
	putI32(rec, offDstCli, c.Dest.Client)
	putI32(rec, offDstPort, c.Dest.Port)
	return nil
}

// Common reads all common fields.
func (e *Event) Common() (Common, error) {
	rec, err := e.record("common")
	if err != nil {
		return Common{}, err
	}
	flags := Flags(getI32(rec, offFlags))
	return Common{
		Type:      EventType(getI32(rec, offType)),
		Flags:     flags,
		Tag:       getI32(rec, offTag),
		Queue:     getI32(rec, offQueue),
		Timestamp: decodeTime(rec, offTimeSec, offTimeNs, flags),
		Source:    Addr{Client: getI32(rec, offSrcCli), Port: getI32(rec, offSrcPort)},
		Dest:      Addr{Client: getI32(rec, offDstCli), Port: getI32(rec, offDstPort)},
	}, nil
}

func (e *Event) Type() (EventType, error) {
	rec, err := e.record("type")
	if err != nil {
		return 0, err
	}
	return EventType(getI32(rec, offType)), nil
}

func (e *Event) Flags() (Flags, error) {
	rec, err := e.record("flags")
	if err != nil {
		return 0, err
	}
	return Flags(getI32(rec, offFlags)), nil
}

func (e *Event) Tag() (int32, error) {
	rec, err := e.record("tag")
	if err != nil {
		return 0, err
	}
	return getI32(rec, offTag), nil
}

func (e *Event) Queue() (int32, error) {
	rec, err := e.record("queue")
	if err != nil {
		return 0, err
	}
	return getI32(rec, offQueue), nil
}

// Timestamp returns ticks or nanoseconds depending on the current flags.
func (e *Event) Timestamp() (int64, error) {
	rec, err := e.record("timestamp")
	if err != nil {
		return 0, err
	}
	return decodeTime(rec, offTimeSec, offTimeNs, Flags(getI32(rec, offFlags))), nil
}

// RealTime returns the timestamp as stored seconds and nanoseconds.
// Only meaningful when the flags select real-time stamps.
func (e *Event) RealTime() (sec int64, nsec int32, err error) {
	rec, err := e.record("real time")
	if err != nil {
		return 0, 0, err
	}
	return getI64(rec, offTimeSec), getI32(rec, offTimeNs), nil
}

func (e *Event) Source() (Addr, error) {
	rec, err := e.record("source")
	if err != nil {
		return Addr{}, err
	}
	return Addr{Client: getI32(rec, offSrcCli), Port: getI32(rec, offSrcPort)}, nil
}

func (e *Event) Dest() (Addr, error) {
	rec, err := e.record("dest")
	if err != nil {
		return Addr{}, err
	}
	return Addr{Client: getI32(rec, offDstCli), Port: getI32(rec, offDstPort)}, nil
}

func (e *Event) SetNote(n Note) error {
	rec, err := e.record("set note")
	if err != nil {
		return err
	}
	putI32(rec, offNoteChannel, n.Channel)
	putI32(rec, offNoteNote, n.Note)
	putI32(rec, offNoteVelocity, n.Velocity)
	putI32(rec, offNoteOffVel, n.OffVelocity)
	putI32(rec, offNoteDuration, n.Duration)
	return nil
}

func (e *Event) Note() (Note, error) {
	rec, err := e.record("note")
	if err != nil {
		return Note{}, err
	}
	return Note{
		Channel:     getI32(rec, offNoteChannel),
		Note:        getI32(rec, offNoteNote),
		Velocity:    getI32(rec, offNoteVelocity),
		OffVelocity: getI32(rec, offNoteOffVel),
		Duration:    getI32(rec, offNoteDuration),
	}, nil
}

// NoteValues fills dst with channel, note, velocity, off velocity and
// duration. dst must have exactly 5 elements.
func (e *Event) NoteValues(dst []int32) error {
	if len(dst) != 5 {
		return fmt.Errorf("note values: len %d, want 5: %w", len(dst), ErrBufferSize)
	}
	n, err := e.Note()
	if err != nil {
		return err
	}
	dst[0], dst[1], dst[2], dst[3], dst[4] = n.Channel, n.Note, n.Velocity, n.OffVelocity, n.Duration
	return nil
}

func (e *Event) SetControl(c Control) error {
	rec, err := e.record("set control")
	if err != nil {
		return err
	}
	putI32(rec, offCtlChannel, c.Channel)
	putI32(rec, offCtlParam, c.Param)
	putI32(rec, offCtlValue, c.Value)
	return nil
}

func (e *Event) Control() (Control, error) {
	rec, err := e.record("control")
	if err != nil {
		return Control{}, err
	}
	return Control{
		Channel: getI32(rec, offCtlChannel),
		Param:   getI32(rec, offCtlParam),
		Value:   getI32(rec, offCtlValue),
	}, nil
}

// ControlValues fills dst with channel, param and value.
// dst must have exactly 3 elements.
func (e *Event) ControlValues(dst []int32) error {
	if len(dst) != 3 {
		return fmt.Errorf("control values: len %d, want 3: %w", len(dst), ErrBufferSize)
	}
	c, err := e.Control()
	if err != nil {
		return err
	}
	dst[0], dst[1], dst[2] = c.Channel, c.Param, c.Value
	return nil
}

// SetQueueControl writes the queue payload. The event type set via
// SetCommon decides how the numbers are stored:
//
//	EventTempo       value
//	EventSetPosTick  t as a tick count
//	EventSetPosTime  t as nanoseconds, split into seconds + nanoseconds
//
// Any other type only stores the queue id and leaves the rest of the
// payload as it was.
func (e *Event) SetQueueControl(queue, value int32, t int64) error {
	rec, err := e.record("set queue control")
	if err != nil {
		return err
	}
	putI32(rec, offQueueID, queue)
	switch EventType(getI32(rec, offType)) {
	case EventTempo:
		putI32(rec, offQueueValue, value)
	case EventSetPosTick:
		encodeTime(rec, offQueueTick, offQueueTimeNs, TimeStampTick, t)
	case EventSetPosTime:
		encodeTime(rec, offQueueTimeSec, offQueueTimeNs, TimeStampReal, t)
	default:
		// queue id only
	}
	return nil
}

// QueueControl reads the queue payload, filling only the member the
// current type selects.
func (e *Event) QueueControl() (QueueControl, error) {
	rec, err := e.record("queue control")
	if err != nil {
		return QueueControl{}, err
	}
	q := QueueControl{Queue: getI32(rec, offQueueID)}
	switch EventType(getI32(rec, offType)) {
	case EventTempo:
		q.Value = getI32(rec, offQueueValue)
	case EventSetPosTick:
		q.Tick = decodeTime(rec, offQueueTick, offQueueTimeNs, TimeStampTick)
	case EventSetPosTime:
		q.Time = decodeTime(rec, offQueueTimeSec, offQueueTimeNs, TimeStampReal)
	}
	return q, nil
}

// SetVariablePayload copies b into a buffer owned by the event, replacing
// and releasing any previous one. The record is unchanged if the
// allocation fails.
func (e *Event) SetVariablePayload(b []byte) error {
	rec, err := e.record("set variable payload")
	if err != nil {
		return err
	}

	ext, err := e.newExt(b)
	if err != nil {
		return fmt.Errorf("set variable payload: %w", err)
	}
	e.attachExt(rec, ext)
	return nil
}

// newExt allocates a buffer holding a copy of b. Empty payloads need none.
func (e *Event) newExt(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	ext, err := e.mem.alloc.Alloc(len(b))
	if err != nil {
		return nil, err
	}
	if len(ext) < len(b) {
		if ferr := e.mem.alloc.Free(ext); ferr != nil {
			debug.Error("event", ferr)
		}
		return nil, fmt.Errorf("got %d of %d bytes: %w", len(ext), len(b), ErrAllocation)
	}
	ext = ext[:len(b)]
	copy(ext, b)
	return ext, nil
}

// attachExt replaces the payload buffer with ext, which came from newExt.
// It cannot fail, so callers run it only after every allocation succeeded.
func (e *Event) attachExt(rec, ext []byte) {
	if err := e.mem.releaseExt(); err != nil {
		debug.Log("event", "release previous payload: %v", err)
	}
	e.mem.ext = ext
	putI32(rec, offExtLen, int32(len(ext)))
}

// VariablePayload returns a copy of the attached payload, or an empty
// slice when there is none.
func (e *Event) VariablePayload() ([]byte, error) {
	rec, err := e.record("variable payload")
	if err != nil {
		return nil, err
	}
	n := int(uint32(getI32(rec, offExtLen)))
	if n > len(e.mem.ext) {
		n = len(e.mem.ext)
	}
	out := make([]byte, n)
	copy(out, e.mem.ext)
	return out, nil
}

// Payload returns the payload member selected by the current type.
func (e *Event) Payload() (Payload, error) {
	typ, err := e.Type()
	if err != nil {
		return nil, err
	}
	switch ClassOf(typ) {
	case ClassNote:
		return e.Note()
	case ClassControl:
		return e.Control()
	case ClassQueueControl:
		return e.QueueControl()
	case ClassVariable:
		data, err := e.VariablePayload()
		if err != nil {
			return nil, err
		}
		return Variable{Data: data}, nil
	default:
		return Unknown{Type: typ}, nil
	}
}

// SetPayload writes p through the matching setter. Unknown is a no-op.
func (e *Event) SetPayload(p Payload) error {
	if !e.Live() {
		return fmt.Errorf("set payload: %w", ErrInvalidState)
	}
	switch p := p.(type) {
	case Note:
		return e.SetNote(p)
	case Control:
		return e.SetControl(p)
	case QueueControl:
		t := p.Time
		if typ, _ := e.Type(); typ == EventSetPosTick {
			t = p.Tick
		}
		return e.SetQueueControl(p.Queue, p.Value, t)
	case Variable:
		return e.SetVariablePayload(p.Data)
	case Unknown, nil:
		return nil
	default:
		return fmt.Errorf("set payload: unsupported %T", p)
	}
}

func (e *Event) String() string {
	c, err := e.Common()
	if err != nil {
		return "<no event>"
	}
	p, _ := e.Payload()
	return fmt.Sprintf("%s flags=%#x tag=%d queue=%d time=%d %d:%d->%d:%d %s",
		c.Type, int32(c.Flags), c.Tag, c.Queue, c.Timestamp,
		c.Source.Client, c.Source.Port, c.Dest.Client, c.Dest.Port, FormatPayload(p))
}

// FormatPayload renders a payload for logs and monitors.
func FormatPayload(p Payload) string {
	switch p := p.(type) {
	case Note:
		return fmt.Sprintf("ch=%d note=%d vel=%d off=%d dur=%d", p.Channel, p.Note, p.Velocity, p.OffVelocity, p.Duration)
	case Control:
		return fmt.Sprintf("ch=%d param=%d value=%d", p.Channel, p.Param, p.Value)
	case QueueControl:
		return fmt.Sprintf("q=%d value=%d tick=%d time=%d", p.Queue, p.Value, p.Tick, p.Time)
	case Variable:
		return fmt.Sprintf("len=%d % x", len(p.Data), p.Data)
	default:
		return ""
	}
}
