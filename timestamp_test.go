package minpack

import (
	"testing"
	"time"
)

func TestEncodeTimestampPicksSmallestLayout(t *testing.T) {
	cases := []struct {
		name   string
		t      time.Time
		wantLn int
	}{
		{"epoch, no nanos", time.Unix(0, 0).UTC(), timestamp32Len},
		{"positive seconds, no nanos", time.Unix(1_700_000_000, 0).UTC(), timestamp32Len},
		{"nanos fit 30 bits", time.Unix(1_700_000_000, 123456789).UTC(), timestamp64Len},
		{"negative seconds", time.Unix(-5, 0).UTC(), timestamp96Len},
	}
	for _, c := range cases {
		got := encodeTimestamp(c.t)
		if len(got) != c.wantLn {
			t.Errorf("%s: encodeTimestamp len = %d, want %d", c.name, len(got), c.wantLn)
		}
		back, err := decodeTimestamp(got)
		if err != nil {
			t.Fatalf("%s: decodeTimestamp: %v", c.name, err)
		}
		if !back.Equal(c.t) {
			t.Errorf("%s: round trip = %v, want %v", c.name, back, c.t)
		}
	}
}

func TestDecodeTimestampRejectsBadLength(t *testing.T) {
	if _, err := decodeTimestamp([]byte{1, 2, 3}); err != ErrInvalidValue {
		t.Errorf("expected ErrInvalidValue for bad length, got %v", err)
	}
}

func TestDecodeTimestampRejectsOverflowingNanos(t *testing.T) {
	buf := make([]byte, timestamp96Len)
	order.PutUint32(buf[:4], 1_000_000_000) // >= 1e9, invalid
	order.PutUint64(buf[4:], 0)
	if _, err := decodeTimestamp(buf); err != ErrInvalidValue {
		t.Errorf("expected ErrInvalidValue for nanos >= 1e9, got %v", err)
	}
}
