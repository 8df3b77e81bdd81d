package seq

// Payload is one interpretation of the record's data union:
// Note, Control, QueueControl, Variable or Unknown.
type Payload interface {
	payloadClass() Class
}

// Note is the payload of note on/off/keypress events.
type Note struct {
	Channel     int32
	Note        int32
	Velocity    int32
	OffVelocity int32
	Duration    int32
}

// Control is the payload of controller style events.
type Control struct {
	Channel int32
	Param   int32
	Value   int32
}

// QueueControl is the payload of queue events. Which of Value, Tick or Time
// is meaningful depends on the event type: Tempo reads Value, SetPosTick
// reads Tick, SetPosTime reads Time (nanoseconds). Other queue events carry
// only the queue id.
type QueueControl struct {
	Queue int32
	Value int32
	Tick  int64
	Time  int64
}

// Variable is the payload of variable length events.
type Variable struct {
	Data []byte
}

// Unknown is returned for types without a payload interpretation.
type Unknown struct {
	Type EventType
}

func (Note) payloadClass() Class         { return ClassNote }
func (Control) payloadClass() Class      { return ClassControl }
func (QueueControl) payloadClass() Class { return ClassQueueControl }
func (Variable) payloadClass() Class     { return ClassVariable }
func (Unknown) payloadClass() Class      { return ClassUnknown }

// ClassOfPayload returns the class a payload value belongs to.
func ClassOfPayload(p Payload) Class {
	if p == nil {
		return ClassUnknown
	}
	return p.payloadClass()
}
