package seq

// EventType selects which payload member of a record is meaningful.
// Values follow the ALSA sequencer protocol; this package only branches on them.
type EventType int32

// System and result events
const (
	EventSystem EventType = 0
	EventResult EventType = 1
)

// Note events (payload: Note)
const (
	EventNote     EventType = 5
	EventNoteOn   EventType = 6
	EventNoteOff  EventType = 7
	EventKeyPress EventType = 8
)

// Control events (payload: Control)
const (
	EventController EventType = 10
	EventPgmChange  EventType = 11
	EventChanPress  EventType = 12
	EventPitchBend  EventType = 13 // -8192 to 8191
	EventControl14  EventType = 14
	EventNonRegParm EventType = 15
	EventRegParam   EventType = 16
	EventSongPos    EventType = 20
	EventSongSel    EventType = 21
	EventQFrame     EventType = 22
	EventTimeSign   EventType = 23
	EventKeySign    EventType = 24
)

// Queue control events (payload: QueueControl)
const (
	EventStart      EventType = 30
	EventContinue   EventType = 31
	EventStop       EventType = 32
	EventSetPosTick EventType = 33
	EventSetPosTime EventType = 34
	EventTempo      EventType = 35
	EventClock      EventType = 36
	EventTick       EventType = 37
	EventSync       EventType = 38
	EventSyncPos    EventType = 39
)

// Misc
const (
	EventTuneRequest EventType = 40
	EventReset       EventType = 41
	EventSensing     EventType = 42
	EventEcho        EventType = 50
	EventOSS         EventType = 51
)

// Variable length events (payload: Variable, flags must carry LengthVariable)
const (
	EventSysex   EventType = 130
	EventBounce  EventType = 131
	EventUsrVar0 EventType = 135
	EventUsrVar1 EventType = 136
	EventUsrVar2 EventType = 137
	EventUsrVar3 EventType = 138
	EventUsrVar4 EventType = 139
)

const EventNone EventType = 255

var typeNames = map[EventType]string{
	EventSystem:      "SYSTEM",
	EventResult:      "RESULT",
	EventNote:        "NOTE",
	EventNoteOn:      "NOTEON",
	EventNoteOff:     "NOTEOFF",
	EventKeyPress:    "KEYPRESS",
	EventController:  "CONTROLLER",
	EventPgmChange:   "PGMCHANGE",
	EventChanPress:   "CHANPRESS",
	EventPitchBend:   "PITCHBEND",
	EventControl14:   "CONTROL14",
	EventNonRegParm:  "NONREGPARAM",
	EventRegParam:    "REGPARAM",
	EventSongPos:     "SONGPOS",
	EventSongSel:     "SONGSEL",
	EventQFrame:      "QFRAME",
	EventTimeSign:    "TIMESIGN",
	EventKeySign:     "KEYSIGN",
	EventStart:       "START",
	EventContinue:    "CONTINUE",
	EventStop:        "STOP",
	EventSetPosTick:  "SETPOS_TICK",
	EventSetPosTime:  "SETPOS_TIME",
	EventTempo:       "TEMPO",
	EventClock:       "CLOCK",
	EventTick:        "TICK",
	EventSync:        "SYNC",
	EventSyncPos:     "SYNC_POS",
	EventTuneRequest: "TUNE_REQUEST",
	EventReset:       "RESET",
	EventSensing:     "SENSING",
	EventEcho:        "ECHO",
	EventOSS:         "OSS",
	EventSysex:       "SYSEX",
	EventBounce:      "BOUNCE",
	EventUsrVar0:     "USR_VAR0",
	EventUsrVar1:     "USR_VAR1",
	EventUsrVar2:     "USR_VAR2",
	EventUsrVar3:     "USR_VAR3",
	EventUsrVar4:     "USR_VAR4",
	EventNone:        "NONE",
}

func (t EventType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Class identifies the payload union member a type selects
type Class int

const (
	ClassUnknown Class = iota
	ClassNote
	ClassControl
	ClassQueueControl
	ClassVariable
)

func (c Class) String() string {
	switch c {
	case ClassNote:
		return "note"
	case ClassControl:
		return "control"
	case ClassQueueControl:
		return "queue"
	case ClassVariable:
		return "var"
	default:
		return "unknown"
	}
}

// ClassOf maps an event type to its payload class.
func ClassOf(t EventType) Class {
	switch {
	case t >= EventNote && t <= EventKeyPress:
		return ClassNote
	case t >= EventController && t <= EventKeySign:
		return ClassControl
	case t >= EventStart && t <= EventSyncPos:
		return ClassQueueControl
	case t >= EventSysex && t <= EventUsrVar4:
		return ClassVariable
	default:
		return ClassUnknown
	}
}

// Flags is the event flag bit field.
type Flags int32

const (
	TimeStampTick Flags = 0 << 0 // timestamp in clock ticks
	TimeStampReal Flags = 1 << 0 // timestamp in real time
	TimeStampMask Flags = 1 << 0

	TimeModeAbs  Flags = 0 << 1 // absolute timestamp
	TimeModeRel  Flags = 1 << 1 // relative to current time
	TimeModeMask Flags = 1 << 1

	LengthFixed    Flags = 0 << 2
	LengthVariable Flags = 1 << 2
	LengthVarUsr   Flags = 2 << 2
	LengthVarIPC   Flags = 3 << 2
	LengthMask     Flags = 3 << 2

	PriorityNormal Flags = 0 << 4
	PriorityHigh   Flags = 1 << 4
	PriorityMask   Flags = 1 << 4
)

// RealTime reports whether the timestamp is stored as seconds + nanoseconds.
func (f Flags) RealTime() bool {
	return f&TimeStampMask == TimeStampReal
}

// Special addresses and queues
const (
	ClientSystem = 0
	ClientDummy  = 62
	ClientOSS    = 63

	AddressUnknown     = 253
	AddressSubscribers = 254
	AddressBroadcast   = 255

	QueueDirect = 253
)

// Addr is a (client, port) sequencer endpoint.
type Addr struct {
	Client int32
	Port   int32
}
