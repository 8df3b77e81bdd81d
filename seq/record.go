package seq

import "encoding/binary"

// Record layout. Every integer field has a 32-bit little-endian slot; the
// time and payload areas are unions whose meaning depends on flags and type.
const (
	offType    = 0
	offFlags   = 4
	offTag     = 8
	offQueue   = 12
	offTime    = 16 // tick (u64) | sec (i64) + nsec (i32)
	offTimeSec = 16
	offTimeNs  = 24
	offSrcCli  = 32
	offSrcPort = 36
	offDstCli  = 40
	offDstPort = 44
	offData    = 48

	// note
	offNoteChannel  = offData
	offNoteNote     = offData + 4
	offNoteVelocity = offData + 8
	offNoteOffVel   = offData + 12
	offNoteDuration = offData + 16

	// control
	offCtlChannel = offData
	offCtlParam   = offData + 4
	offCtlValue   = offData + 8

	// queue control: param union first, queue id in the last slot so it never
	// overlaps note or control fields
	offQueueValue   = offData
	offQueueTick    = offData
	offQueueTimeSec = offData
	offQueueTimeNs  = offData + 8
	offQueueID      = offData + 20

	// variable length
	offExtLen = offData

	dataSize = 24

	// RecordSize is the number of bytes an Allocator must provide per record.
	RecordSize = offData + dataSize
)

var le = binary.LittleEndian

func getI32(rec []byte, off int) int32 {
	return int32(le.Uint32(rec[off:]))
}

func putI32(rec []byte, off int, v int32) {
	le.PutUint32(rec[off:], uint32(v))
}

func getI64(rec []byte, off int) int64 {
	return int64(le.Uint64(rec[off:]))
}

func putI64(rec []byte, off int, v int64) {
	le.PutUint64(rec[off:], uint64(v))
}
