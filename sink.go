package minpack

import (
	"io"
	"net"
)

// SinkOptions configures a MessageSink.
type SinkOptions struct {
	// Allocator supplies the sink's internal write buffer. If nil, NewSink
	// uses a private unpooled allocator.
	Allocator *Allocator
	// BufferCapacity is the size of the internal write buffer. Defaults to
	// 8192; must be at least 9 bytes (a tag plus a 64-bit payload).
	BufferCapacity int
}

func (o SinkOptions) capacity() int {
	if o.BufferCapacity == 0 {
		return defaultBufferCapacity
	}
	return o.BufferCapacity
}

// MessageSink is a blocking byte output with an internal write buffer. It is
// not safe for concurrent use.
type MessageSink struct {
	w   io.Writer
	buf []byte // backing storage, len == cap >= BufferCapacity
	pos int    // next writable offset

	alloc     *Allocator
	ownsAlloc bool
	pooledBuf bool

	closed bool
}

// NewSink wraps w with an internal write buffer.
func NewSink(w io.Writer, opts SinkOptions) (*MessageSink, error) {
	if w == nil {
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

	return &MessageSink{
		w:         w,
		buf:       buf,
		alloc:     alloc,
		ownsAlloc: ownsAlloc,
		pooledBuf: true,
	}, nil
}

func (s *MessageSink) writable() int { return cap(s.buf) - s.pos }

// EnsureRemaining flushes buffered content until n bytes of writable space
// remain.
func (s *MessageSink) EnsureRemaining(n int) error {
	if n > cap(s.buf) {
		return ErrBufferTooSmall
	}
	if s.writable() >= n {
		return nil
	}
	return s.flushBuffer()
}

func (s *MessageSink) flushBuffer() error {
	if s.pos == 0 {
		return nil
	}
	n, err := s.w.Write(s.buf[:s.pos])
	if n < 0 {
		return ErrInvalidWrite
	}
	if n == 0 && err == nil {
		return ErrNonBlockingChannel
	}
	if n < s.pos {
		copy(s.buf, s.buf[n:s.pos])
		s.pos -= n
		if err == nil {
			err = io.ErrShortWrite
		}
		return err
	}
	s.pos = 0
	return err
}

// writeByte appends a single byte. Caller must have called
// EnsureRemaining(1) first.
func (s *MessageSink) writeByte(b byte) {
	s.buf[s.pos] = b
	s.pos++
}

// writeBytes appends p. Caller must have called EnsureRemaining(len(p))
// first.
func (s *MessageSink) writeBytes(p []byte) {
	s.pos += copy(s.buf[s.pos:], p)
}

// reserve returns a writable slice of length n inside the internal buffer
// and advances past it, for backfilled headers. Caller must have called
// EnsureRemaining(n) first.
func (s *MessageSink) reserve(n int) []byte {
	b := s.buf[s.pos : s.pos+n]
	s.pos += n
	return b
}

// Write flushes the internal buffer together with p in a single call where
// possible.
func (s *MessageSink) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	pending := int64(s.pos)
	n, err := s.WriteBuffers(p)
	n -= pending
	if n < 0 {
		n = 0
	}
	return int(n), err
}

// WriteBuffers flushes the internal buffer and extra in a single scatter
// write when the underlying writer supports it (net.Buffers dispatches to
// writev on network connections such as *net.TCPConn); otherwise it writes
// the pieces sequentially.
func (s *MessageSink) WriteBuffers(extra ...[]byte) (int64, error) {
	for _, b := range extra {
		if s.aliases(b) {
			return 0, ErrAliasedBuffer
		}
	}

	bufs := make(net.Buffers, 0, 1+len(extra))
	if s.pos > 0 {
		bufs = append(bufs, s.buf[:s.pos])
	}
	bufs = append(bufs, extra...)
	if len(bufs) == 0 {
		return 0, nil
	}

	n, err := bufs.WriteTo(s.w)
	if err == nil {
		s.pos = 0
	} else if len(bufs) > 0 && n >= int64(s.pos) {
		// The internal buffer portion fully drained even though a later
		// piece failed; only it is ours to reset.
		s.pos = 0
	}
	return n, err
}

func (s *MessageSink) aliases(p []byte) bool {
	if len(p) == 0 || len(s.buf) == 0 {
		return false
	}
	bufStart := &s.buf[0]
	pStart := &p[0]
	return bufStart == pStart
}

// TransferFrom streams up to maxBytes from r through the internal buffer,
// flushing on each full cycle, stopping early at EOF.
func (s *MessageSink) TransferFrom(r io.Reader, maxBytes int64) (int64, error) {
	var total int64
	for total < maxBytes {
		if s.writable() == 0 {
			if err := s.flushBuffer(); err != nil {
				return total, err
			}
		}
		want := int64(s.writable())
		if remaining := maxBytes - total; remaining < want {
			want = remaining
		}
		n, err := r.Read(s.buf[s.pos : s.pos+int(want)])
		if n < 0 {
			return total, ErrInvalidRead
		}
		s.pos += n
		total += int64(n)
		if err != nil {
			if err == io.EOF {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			return total, ErrNonBlockingChannel
		}
	}
	return total, nil
}

// Flush writes the internal buffer to the underlying writer, then flushes
// the writer itself if it exposes a Flush method.
func (s *MessageSink) Flush() error {
	if err := s.flushBuffer(); err != nil {
		return err
	}
	if f, ok := s.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and closes the underlying writer first, then releases the
// internal buffer regardless of the close outcome.
func (s *MessageSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.Flush()
	var closeErr error
	if c, ok := s.w.(io.Closer); ok {
		closeErr = c.Close()
	}
	if s.pooledBuf {
		s.alloc.ReleaseByteBuffer(s.buf[:0])
	}
	if s.ownsAlloc {
		s.alloc.Close()
	}
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
