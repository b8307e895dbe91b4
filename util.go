package minpack

import (
	"encoding/binary"
	"io"

	"golang.org/x/exp/constraints"
)

// order is the byte order of the MessagePack wire format: always big-endian.
// It is not exposed as a configuration knob anywhere in the public API,
// since the wire format itself fixes it.
var order = binary.BigEndian

// Ptr returns a pointer to v. Convenient in table-driven tests that build
// pointer-typed option structs inline.
func Ptr[T any](v T) *T { return &v }

// Discard skips n bytes from r, the way SkipValue walks past payload bytes
// without allocating a destination buffer for them.
func Discard(r io.Reader, n int64) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	if n < 0 {
		return 0, ErrDiscardNegative
	}
	return io.CopyN(io.Discard, r, n)
}

// Roundup rounds n up to the nearest multiple of align, which must be a
// power of two.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }

// NextPow2 rounds n up to the next power of two. The buffer allocator keys
// its free lists by power-of-two capacity so a handful of common requested
// sizes all land in the same bucket.
func NextPow2[T constraints.Integer](n T) T {
	if n <= 1 {
		return 1
	}
	p := T(1)
	for p < n {
		p <<= 1
	}
	return p
}
