package seq

import (
	"fmt"
	"io"
)

// WireSize is the size of a packed snd_seq_event as the kernel reads and
// writes it. Variable length events are followed by their data.
const WireSize = 28

// Kernel layout offsets
const (
	wType    = 0
	wFlags   = 1
	wTag     = 2
	wQueue   = 3
	wTime    = 4 // tick u32 | sec u32 + nsec u32
	wTimeNs  = 8
	wSrcCli  = 12
	wSrcPort = 13
	wDstCli  = 14
	wDstPort = 15
	wData    = 16

	maxWirePayload = 1 << 24
)

func (f Flags) variable() bool {
	return f&LengthMask == LengthVariable
}

// MarshalBinary packs the event into the kernel layout. Fields are narrowed
// to their kernel widths (8 bit addresses and note fields, 32 bit ticks and
// seconds). When the flags select LengthVariable the payload bytes follow
// the header.
func (e *Event) MarshalBinary() ([]byte, error) {
	rec, err := e.record("marshal")
	if err != nil {
		return nil, err
	}
	flags := Flags(getI32(rec, offFlags))
	typ := EventType(getI32(rec, offType))

	var ext []byte
	if flags.variable() {
		ext, _ = e.VariablePayload()
	}

	buf := make([]byte, WireSize+len(ext))
	buf[wType] = byte(typ)
	buf[wFlags] = byte(flags)
	buf[wTag] = byte(getI32(rec, offTag))
	buf[wQueue] = byte(getI32(rec, offQueue))
	le.PutUint32(buf[wTime:], uint32(getI64(rec, offTimeSec)))
	if flags.RealTime() {
		le.PutUint32(buf[wTimeNs:], uint32(getI32(rec, offTimeNs)))
	}
	buf[wSrcCli] = byte(getI32(rec, offSrcCli))
	buf[wSrcPort] = byte(getI32(rec, offSrcPort))
	buf[wDstCli] = byte(getI32(rec, offDstCli))
	buf[wDstPort] = byte(getI32(rec, offDstPort))

	data := buf[wData:WireSize]
	switch {
	case flags.variable():
		le.PutUint32(data[0:], uint32(len(ext)))
		copy(buf[WireSize:], ext)
	default:
		switch ClassOf(typ) {
		case ClassNote:
			data[0] = byte(getI32(rec, offNoteChannel))
			data[1] = byte(getI32(rec, offNoteNote))
			data[2] = byte(getI32(rec, offNoteVelocity))
			data[3] = byte(getI32(rec, offNoteOffVel))
			le.PutUint32(data[4:], uint32(getI32(rec, offNoteDuration)))
		case ClassControl:
			data[0] = byte(getI32(rec, offCtlChannel))
			le.PutUint32(data[4:], uint32(getI32(rec, offCtlParam)))
			le.PutUint32(data[8:], uint32(getI32(rec, offCtlValue)))
		case ClassQueueControl:
			data[0] = byte(getI32(rec, offQueueID))
			switch typ {
			case EventTempo:
				le.PutUint32(data[4:], uint32(getI32(rec, offQueueValue)))
			case EventSetPosTick:
				le.PutUint32(data[4:], uint32(getI64(rec, offQueueTick)))
			case EventSetPosTime:
				le.PutUint32(data[4:], uint32(getI64(rec, offQueueTimeSec)))
				le.PutUint32(data[8:], uint32(getI32(rec, offQueueTimeNs)))
			}
		}
	}
	return buf, nil
}

// UnmarshalBinary loads a kernel layout event into e, which must be live.
// All fields are replaced, including the source client. On error e is
// left unchanged.
func (e *Event) UnmarshalBinary(buf []byte) error {
	rec, err := e.record("unmarshal")
	if err != nil {
		return err
	}
	if len(buf) < WireSize {
		return fmt.Errorf("unmarshal: %d bytes, want %d: %w", len(buf), WireSize, ErrBufferSize)
	}

	flags := Flags(buf[wFlags])
	typ := EventType(buf[wType])
	data := buf[wData:WireSize]

	// Allocate before touching the record so a failure leaves e as it was
	var ext []byte
	if flags.variable() {
		n := int(le.Uint32(data[0:]))
		if len(buf)-WireSize < n {
			return fmt.Errorf("unmarshal: payload %d bytes, have %d: %w", n, len(buf)-WireSize, ErrBufferSize)
		}
		ext, err = e.newExt(buf[WireSize : WireSize+n])
		if err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
	}

	clear(rec)
	e.attachExt(rec, ext)
	putI32(rec, offType, int32(typ))
	putI32(rec, offFlags, int32(flags))
	putI32(rec, offTag, int32(int8(buf[wTag])))
	putI32(rec, offQueue, int32(buf[wQueue]))
	putI64(rec, offTimeSec, int64(le.Uint32(buf[wTime:])))
	if flags.RealTime() {
		putI32(rec, offTimeNs, int32(le.Uint32(buf[wTimeNs:])))
	}
	putI32(rec, offSrcCli, int32(buf[wSrcCli]))
	putI32(rec, offSrcPort, int32(buf[wSrcPort]))
	putI32(rec, offDstCli, int32(buf[wDstCli]))
	putI32(rec, offDstPort, int32(buf[wDstPort]))

	if flags.variable() {
		return nil
	}

	switch ClassOf(typ) {
	case ClassNote:
		putI32(rec, offNoteChannel, int32(data[0]))
		putI32(rec, offNoteNote, int32(data[1]))
		putI32(rec, offNoteVelocity, int32(data[2]))
		putI32(rec, offNoteOffVel, int32(data[3]))
		putI32(rec, offNoteDuration, int32(le.Uint32(data[4:])))
	case ClassControl:
		putI32(rec, offCtlChannel, int32(data[0]))
		putI32(rec, offCtlParam, int32(le.Uint32(data[4:])))
		putI32(rec, offCtlValue, int32(le.Uint32(data[8:])))
	case ClassQueueControl:
		putI32(rec, offQueueID, int32(data[0]))
		switch typ {
		case EventTempo:
			putI32(rec, offQueueValue, int32(le.Uint32(data[4:])))
		case EventSetPosTick:
			putI64(rec, offQueueTick, int64(le.Uint32(data[4:])))
		case EventSetPosTime:
			putI64(rec, offQueueTimeSec, int64(le.Uint32(data[4:])))
			putI32(rec, offQueueTimeNs, int32(le.Uint32(data[8:])))
		}
	}
	return nil
}

// WriteTo writes the kernel layout of e to w.
func (e *Event) WriteTo(w io.Writer) (int64, error) {
	buf, err := e.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom reads one kernel layout event from r into e.
func (e *Event) ReadFrom(r io.Reader) (int64, error) {
	if !e.Live() {
		return 0, fmt.Errorf("read: %w", ErrInvalidState)
	}
	hdr := make([]byte, WireSize)
	n, err := io.ReadFull(r, hdr)
	if err != nil {
		return int64(n), err
	}
	total := int64(n)

	flags := Flags(hdr[wFlags])
	if flags.variable() {
		size := le.Uint32(hdr[wData:])
		if size > maxWirePayload {
			return total, fmt.Errorf("read: payload of %d bytes: %w", size, ErrBufferSize)
		}
		buf := make([]byte, WireSize+int(size))
		copy(buf, hdr)
		m, err := io.ReadFull(r, buf[WireSize:])
		total += int64(m)
		if err != nil {
			return total, fmt.Errorf("read payload: %w", err)
		}
		hdr = buf
	}
	return total, e.UnmarshalBinary(hdr)
}
