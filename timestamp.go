package minpack

import "time"

const (
	timestamp32Len = 4
	timestamp64Len = 8
	timestamp96Len = 12

	nanosPerSecond = 1_000_000_000

	// seconds34BitMax is the largest value the 34-bit seconds field of the
	// 8-byte timestamp layout can hold.
	seconds34BitMax = 1<<34 - 1
	// nanos30BitMax is the largest value the 30-bit nanoseconds field of the
	// 8-byte timestamp layout can hold.
	nanos30BitMax = 1<<30 - 1
)

// decodeTimestamp interprets data (the payload of an extension type -1) per
// the three fixed timestamp layouts.
func decodeTimestamp(data []byte) (time.Time, error) {
	switch len(data) {
	case timestamp32Len:
		sec := order.Uint32(data)
		return time.Unix(int64(sec), 0).UTC(), nil

	case timestamp64Len:
		v := order.Uint64(data)
		nsec := int64(v >> 34)
		sec := int64(v & seconds34BitMax)
		if nsec >= nanosPerSecond {
			return time.Time{}, ErrInvalidValue
		}
		return time.Unix(sec, nsec).UTC(), nil

	case timestamp96Len:
		nsec := int64(order.Uint32(data[:4]))
		sec := int64(order.Uint64(data[4:]))
		if nsec >= nanosPerSecond {
			return time.Time{}, ErrInvalidValue
		}
		return time.Unix(sec, nsec).UTC(), nil

	default:
		return time.Time{}, ErrInvalidValue
	}
}

// encodeTimestamp picks the smallest lossless layout for t and returns its
// encoded payload.
func encodeTimestamp(t time.Time) []byte {
	sec := t.Unix()
	nsec := int64(t.Nanosecond())

	if nsec == 0 && sec >= 0 && sec <= 0xFFFFFFFF {
		buf := make([]byte, timestamp32Len)
		order.PutUint32(buf, uint32(sec))
		return buf
	}

	if sec >= 0 && sec <= seconds34BitMax && nsec <= nanos30BitMax {
		buf := make([]byte, timestamp64Len)
		order.PutUint64(buf, uint64(nsec)<<34|uint64(sec))
		return buf
	}

	buf := make([]byte, timestamp96Len)
	order.PutUint32(buf[:4], uint32(nsec))
	order.PutUint64(buf[4:], uint64(sec))
	return buf
}
