package midi

import (
	"errors"
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-seqevent/seq"
)

// ErrUnsupported is returned for messages that have no sequencer event form
var ErrUnsupported = errors.New("midi: unsupported message")

// Realtime status bytes
const (
	statusSysEx    = 0xF0
	statusClock    = 0xF8
	statusStart    = 0xFA
	statusContinue = 0xFB
	statusStop     = 0xFC
	statusSensing  = 0xFE
	statusReset    = 0xFF
	statusTune     = 0xF6
)

var realtimeTypes = map[byte]seq.EventType{
	statusClock:    seq.EventClock,
	statusStart:    seq.EventStart,
	statusContinue: seq.EventContinue,
	statusStop:     seq.EventStop,
	statusSensing:  seq.EventSensing,
	statusReset:    seq.EventReset,
	statusTune:     seq.EventTuneRequest,
}

// Translate maps a MIDI message to a sequencer event type and payload.
// Pitch bend values are signed (-8192..8191).
func Translate(msg gomidi.Message) (seq.EventType, seq.Payload, error) {
	if len(msg) == 0 {
		return 0, nil, fmt.Errorf("empty message: %w", ErrUnsupported)
	}

	var channel, key, value uint8
	var rel int16
	var abs uint16

	status := msg[0]
	switch {
	case status == statusSysEx:
		data := make([]byte, len(msg))
		copy(data, msg)
		return seq.EventSysex, seq.Variable{Data: data}, nil

	case status >= 0xF0:
		if typ, ok := realtimeTypes[status]; ok {
			if seq.ClassOf(typ) == seq.ClassQueueControl {
				return typ, seq.QueueControl{}, nil
			}
			return typ, seq.Unknown{Type: typ}, nil
		}
		return 0, nil, fmt.Errorf("status %#x: %w", status, ErrUnsupported)

	// note on with velocity 0 stays a note on, the receiver decides
	case status&0xF0 == 0x90 && len(msg) >= 3:
		return seq.EventNoteOn, note(status, msg[1], msg[2]), nil

	// release velocity travels in the velocity field, as ALSA's encoder does
	case status&0xF0 == 0x80 && len(msg) >= 3:
		return seq.EventNoteOff, note(status, msg[1], msg[2]), nil

	case msg.GetPolyAfterTouch(&channel, &key, &value):
		return seq.EventKeyPress, seq.Note{Channel: int32(channel), Note: int32(key), Velocity: int32(value)}, nil

	case msg.GetControlChange(&channel, &key, &value):
		return seq.EventController, seq.Control{Channel: int32(channel), Param: int32(key), Value: int32(value)}, nil

	case msg.GetProgramChange(&channel, &value):
		return seq.EventPgmChange, seq.Control{Channel: int32(channel), Value: int32(value)}, nil

	case msg.GetAfterTouch(&channel, &value):
		return seq.EventChanPress, seq.Control{Channel: int32(channel), Value: int32(value)}, nil

	case msg.GetPitchBend(&channel, &rel, &abs):
		return seq.EventPitchBend, seq.Control{Channel: int32(channel), Value: int32(rel)}, nil
	}

	return 0, nil, fmt.Errorf("status %#x: %w", status, ErrUnsupported)
}

func note(status, key, velocity byte) seq.Note {
	return seq.Note{
		Channel:  int32(status & 0x0F),
		Note:     int32(key),
		Velocity: int32(velocity),
	}
}

// Message converts a live event back to a MIDI message.
func Message(ev *seq.Event) (gomidi.Message, error) {
	typ, err := ev.Type()
	if err != nil {
		return nil, err
	}

	switch typ {
	case seq.EventNoteOn, seq.EventNoteOff, seq.EventKeyPress:
		n, err := ev.Note()
		if err != nil {
			return nil, err
		}
		ch, key := clamp7(n.Channel)&0x0F, clamp7(n.Note)
		switch typ {
		case seq.EventNoteOn:
			return gomidi.NoteOn(ch, key, clamp7(n.Velocity)), nil
		case seq.EventNoteOff:
			return gomidi.NoteOffVelocity(ch, key, clamp7(n.Velocity)), nil
		default:
			return gomidi.PolyAfterTouch(ch, key, clamp7(n.Velocity)), nil
		}

	case seq.EventController, seq.EventPgmChange, seq.EventChanPress, seq.EventPitchBend:
		c, err := ev.Control()
		if err != nil {
			return nil, err
		}
		ch := clamp7(c.Channel) & 0x0F
		switch typ {
		case seq.EventController:
			return gomidi.ControlChange(ch, clamp7(c.Param), clamp7(c.Value)), nil
		case seq.EventPgmChange:
			return gomidi.ProgramChange(ch, clamp7(c.Value)), nil
		case seq.EventChanPress:
			return gomidi.AfterTouch(ch, clamp7(c.Value)), nil
		default:
			return gomidi.Pitchbend(ch, int16(clampRange(c.Value, -8192, 8191))), nil
		}

	case seq.EventSysex:
		data, err := ev.VariablePayload()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 || data[0] != statusSysEx {
			return nil, fmt.Errorf("sysex without start byte: %w", ErrUnsupported)
		}
		return gomidi.Message(data), nil
	}

	for status, rt := range realtimeTypes {
		if rt == typ {
			return gomidi.Message{status}, nil
		}
	}
	return nil, fmt.Errorf("event %s: %w", typ, ErrUnsupported)
}

func clamp7(v int32) uint8 {
	return uint8(clampRange(v, 0, 127))
}

func clampRange(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
