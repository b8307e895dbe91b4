package minpack

import "errors"

var (
	// ErrNilIO indicates that NewSource/NewSink was called with a nil
	// io.Reader/io.Writer.
	ErrNilIO = errors.New("minpack: NewSource/NewSink called with a nil io.Reader/io.Writer")

	// ErrEndOfInput indicates the source reached EOF before the requested
	// bytes became available.
	ErrEndOfInput = errors.New("minpack: end of input")

	// ErrTypeMismatch indicates a typed read did not match the next format
	// byte on the stream.
	ErrTypeMismatch = errors.New("minpack: type mismatch")

	// ErrInvalidValue indicates a well-formed tag carried a semantically
	// invalid payload, e.g. a timestamp extension with an unsupported length.
	ErrInvalidValue = errors.New("minpack: invalid value")

	// ErrIntegerOverflow indicates the integer on the wire does not fit the
	// caller's requested width.
	ErrIntegerOverflow = errors.New("minpack: integer overflow")

	// ErrInvalidUTF8 indicates a malformed UTF-8 byte sequence was found
	// while decoding a string.
	ErrInvalidUTF8 = errors.New("minpack: invalid utf-8")

	// ErrBufferTooSmall indicates EnsureRemaining was called with n greater
	// than the buffer's capacity, or a configured buffer capacity is below
	// the 9-byte minimum needed to hold a tag plus a 64-bit payload.
	ErrBufferTooSmall = errors.New("minpack: buffer too small")

	// ErrNonBlockingChannel indicates the underlying channel returned a
	// zero-byte read or write for a non-empty request, which only a
	// misconfigured non-blocking channel would do.
	ErrNonBlockingChannel = errors.New("minpack: non-blocking channel detected")

	// ErrAliasedBuffer indicates a scatter-write buffer is the sink's own
	// internal buffer.
	ErrAliasedBuffer = errors.New("minpack: write buffer aliases internal buffer")

	// ErrInvalidRead indicates an io.Reader returned an invalid (negative or
	// out-of-bounds) count from Read.
	ErrInvalidRead = errors.New("minpack: reader returned invalid count from Read")

	// ErrInvalidWrite indicates an io.Writer returned an invalid (negative)
	// count from Write.
	ErrInvalidWrite = errors.New("minpack: writer returned invalid count from Write")

	// ErrDiscardNegative indicates Discard was called with a negative byte
	// count.
	ErrDiscardNegative = errors.New("minpack: cannot discard negative number of bytes")

	// ErrAllocatorClosed indicates Acquire was called on a closed allocator.
	ErrAllocatorClosed = errors.New("minpack: allocator is closed")

	// ErrCapacityExceedsMax indicates a requested buffer capacity exceeds the
	// allocator's configured per-buffer maximum.
	ErrCapacityExceedsMax = errors.New("minpack: requested capacity exceeds allocator maximum")
)
