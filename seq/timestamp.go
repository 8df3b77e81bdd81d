package seq

const nsPerSecond = 1_000_000_000

// SplitTime decomposes a nanosecond value into seconds and nanoseconds.
// Division truncates toward zero, so negative values yield a negative
// nanosecond part and still round-trip through JoinTime.
func SplitTime(ns int64) (sec int64, nsec int32) {
	return ns / nsPerSecond, int32(ns % nsPerSecond)
}

// JoinTime is the inverse of SplitTime.
func JoinTime(sec int64, nsec int32) int64 {
	return sec*nsPerSecond + int64(nsec)
}

// encodeTime writes ts into the time union at off, interpreted by flags.
func encodeTime(rec []byte, secOff, nsOff int, flags Flags, ts int64) {
	if !flags.RealTime() {
		putI64(rec, secOff, ts)
		putI32(rec, nsOff, 0)
		return
	}
	sec, nsec := SplitTime(ts)
	putI64(rec, secOff, sec)
	putI32(rec, nsOff, nsec)
}

func decodeTime(rec []byte, secOff, nsOff int, flags Flags) int64 {
	if !flags.RealTime() {
		return getI64(rec, secOff)
	}
	return JoinTime(getI64(rec, secOff), getI32(rec, nsOff))
}
