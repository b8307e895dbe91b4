package minpack

import (
	"io"
)

// SourceOptions configures a MessageSource.
type SourceOptions struct {
	// Allocator supplies the source's internal read buffer. If nil,
	// NewSource uses a private unpooled allocator. NewBytesSource uses no
	// allocator.
	Allocator *Allocator
	// BufferCapacity is the size of the internal read buffer. Defaults to
	// 8192; must be at least 9 bytes (a tag plus a 64-bit payload).
	BufferCapacity int
}

const minBufferCapacity = 9
const defaultBufferCapacity = 8192

func (o SourceOptions) capacity() int {
	if o.BufferCapacity == 0 {
		return defaultBufferCapacity
	}
	return o.BufferCapacity
}

// MessageSource is a blocking byte input with an internal read buffer. It is
// not safe for concurrent use: a single MessageSource, like a single
// MessageReader, is owned by one goroutine at a time.
type MessageSource struct {
	r   io.Reader
	buf []byte // backing storage, len == cap >= BufferCapacity (or the whole slice, for a bytes source)
	pos int    // next unread byte
	lim int    // end of readable region

	alloc     *Allocator
	ownsAlloc bool
	pooledBuf bool // buf was acquired from alloc and must be released on Close
	zeroCopy  bool // buf is caller-owned (NewBytesSource); EnsureRemaining never refills

	closed bool
}

// NewSource wraps r with an internal read buffer.
func NewSource(r io.Reader, opts SourceOptions) (*MessageSource, error) {
	if r == nil {
		return nil, ErrNilIO
	}
	capacity := opts.capacity()
	if capacity < minBufferCapacity {
		return nil, ErrBufferTooSmall
	}

	alloc := opts.Allocator
	ownsAlloc := false
	if alloc == nil {
		alloc = NewUnpooledAllocator(DefaultAllocatorOptions())
		ownsAlloc = true
	}
	buf, err := alloc.AcquireByteBuffer(capacity)
	if err != nil {
		return nil, err
	}
	buf = buf[:cap(buf)]

	return &MessageSource{
		r:         r,
		buf:       buf,
		alloc:     alloc,
		ownsAlloc: ownsAlloc,
		pooledBuf: true,
	}, nil
}

// NewBytesSource wraps b for zero-copy in-memory decoding. b is read
// directly; no buffer is acquired from an allocator and EnsureRemaining
// never performs I/O.
func NewBytesSource(b []byte, opts SourceOptions) *MessageSource {
	return &MessageSource{
		buf:      b,
		lim:      len(b),
		zeroCopy: true,
	}
}

// EnsureRemaining guarantees the buffer holds at least n readable bytes.
func (s *MessageSource) EnsureRemaining(n int) error {
	if s.readable() >= n {
		return nil
	}
	if s.zeroCopy {
		return ErrEndOfInput
	}
	if n > cap(s.buf) {
		return ErrBufferTooSmall
	}

	s.compact()
	for s.readable() < n {
		if s.lim == cap(s.buf) {
			return ErrBufferTooSmall
		}
		m, err := s.r.Read(s.buf[s.lim:cap(s.buf)])
		if m < 0 {
			return ErrInvalidRead
		}
		s.lim += m
		if m == 0 {
			if err == nil {
				return ErrNonBlockingChannel
			}
			if err == io.EOF {
				return ErrEndOfInput
			}
			return err
		}
		if err != nil && err != io.EOF {
			return err
		}
	}
	return nil
}

func (s *MessageSource) readable() int { return s.lim - s.pos }

func (s *MessageSource) compact() {
	if s.pos == 0 {
		return
	}
	n := copy(s.buf, s.buf[s.pos:s.lim])
	s.pos = 0
	s.lim = n
}

// peekByte returns the next byte without consuming it. Caller must have
// called EnsureRemaining(1) first.
func (s *MessageSource) peekByte() byte { return s.buf[s.pos] }

// readByte consumes and returns the next byte. Caller must have called
// EnsureRemaining(1) first.
func (s *MessageSource) readByte() byte {
	b := s.buf[s.pos]
	s.pos++
	return b
}

// readBytes returns a view of the next n buffered bytes and advances past
// them. Caller must have called EnsureRemaining(n) first. The returned slice
// aliases the internal buffer and is only valid until the next call that
// mutates the buffer.
func (s *MessageSource) readBytes(n int) []byte {
	b := s.buf[s.pos : s.pos+n]
	s.pos += n
	return b
}

// tryContiguous returns a view of the next n bytes if they fit the internal
// buffer (refilling as needed), or ErrBufferTooSmall if n exceeds the
// buffer's capacity (the caller's cue to fall back to a larger scratch
// buffer and a ReadAny-driven copy).
func (s *MessageSource) tryContiguous(n int) ([]byte, error) {
	if err := s.EnsureRemaining(n); err != nil {
		return nil, err
	}
	return s.readBytes(n), nil
}

// readPayload fills dest completely, draining the internal buffer first.
func readPayload(s *MessageSource, dest []byte) error {
	for len(dest) > 0 {
		n, err := s.ReadAny(dest)
		if n > 0 {
			dest = dest[n:]
		}
		if err != nil {
			if err == io.EOF {
				return ErrEndOfInput
			}
			return err
		}
	}
	return nil
}

// ReadAny reads directly into dest, bypassing the internal buffer where
// possible. Any bytes already sitting in the internal buffer are drained
// first since they logically precede anything still on the channel.
func (s *MessageSource) ReadAny(dest []byte) (int, error) {
	if len(dest) == 0 {
		return 0, nil
	}
	if s.readable() > 0 {
		n := copy(dest, s.buf[s.pos:s.lim])
		s.pos += n
		return n, nil
	}
	if s.zeroCopy {
		return 0, io.EOF
	}
	n, err := s.r.Read(dest)
	if n < 0 {
		return 0, ErrInvalidRead
	}
	if n == 0 && err == nil {
		return 0, ErrNonBlockingChannel
	}
	return n, err
}

// TransferTo moves exactly byteCount bytes from the source into sink.
func (s *MessageSource) TransferTo(sink *MessageSink, byteCount int64) (int64, error) {
	var total int64

	if s.readable() > 0 && byteCount > 0 {
		n := int64(s.readable())
		if n > byteCount {
			n = byteCount
		}
		if _, err := sink.Write(s.buf[s.pos : s.pos+int(n)]); err != nil {
			return total, err
		}
		s.pos += int(n)
		total += n
		byteCount -= n
	}
	if byteCount == 0 {
		return total, nil
	}
	if s.zeroCopy {
		return total, ErrEndOfInput
	}

	n, err := copyThroughPool(sink, s.r, byteCount)
	total += n
	return total, err
}

// Close releases the source's internal buffer. If the backend implements
// io.Closer, it is closed first.
func (s *MessageSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var closeErr error
	if c, ok := s.r.(io.Closer); ok {
		closeErr = c.Close()
	}
	if s.pooledBuf {
		s.alloc.ReleaseByteBuffer(s.buf[:0])
	}
	if s.ownsAlloc {
		s.alloc.Close()
	}
	return closeErr
}

// copyThroughPool copies n bytes from src to dst. If dst implements
// io.ReaderFrom it reads from a LimitReader over src; otherwise it copies
// through a pooled scratch buffer. Whether src implements io.WriterTo is not
// consulted.
func copyThroughPool(dst io.Writer, src io.Reader, n int64) (int64, error) {
	if rf, ok := dst.(io.ReaderFrom); ok {
		return rf.ReadFrom(io.LimitReader(src, n))
	}

	ptr := chunkBufPool.Get().(*[]byte)
	defer chunkBufPool.Put(ptr)
	scratch := *ptr

	var total int64
	for total < n {
		want := int64(len(scratch))
		if remaining := n - total; remaining < want {
			want = remaining
		}
		m, err := src.Read(scratch[:want])
		if m < 0 {
			return total, ErrInvalidRead
		}
		if m > 0 {
			wn, werr := dst.Write(scratch[:m])
			total += int64(wn)
			if werr != nil {
				return total, werr
			}
			if wn < m {
				return total, io.ErrShortWrite
			}
		}
		if err != nil {
			if err == io.EOF && total == n {
				return total, nil
			}
			if err == io.EOF {
				return total, ErrEndOfInput
			}
			return total, err
		}
		if m == 0 {
			return total, ErrNonBlockingChannel
		}
	}
	return total, nil
}
