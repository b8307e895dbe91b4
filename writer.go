package minpack

import (
	"math"
	"time"
	"unicode/utf8"
)

// WriterOptions configures a MessageWriter.
type WriterOptions struct {
	// Allocator backs scratch buffers needed for oversized strings. If nil,
	// the writer uses its sink's allocator.
	Allocator *Allocator
	// StringSizeEstimator bounds the worst-case UTF-8 byte length of a
	// string of n runes. WriteRunes uses it to size its scratch buffer
	// before encoding; the string header class is chosen from the encoded
	// byte length, not from this estimate. Defaults to n*3, matching the
	// Java original's maxBytesPerChar even though Go strings have no
	// per-character width.
	StringSizeEstimator func(runeCount int) int
}

const defaultMaxBytesPerChar = 3

func defaultStringSizeEstimator(runeCount int) int { return runeCount * defaultMaxBytesPerChar }

// MessageWriter is a stateless-per-call MessagePack encoder over a
// MessageSink. It is not safe for concurrent use.
type MessageWriter struct {
	sink      *MessageSink
	alloc     *Allocator
	estimator func(int) int
}

// NewWriter builds a MessageWriter over sink.
func NewWriter(sink *MessageSink, opts WriterOptions) *MessageWriter {
	alloc := opts.Allocator
	if alloc == nil {
		alloc = sink.alloc
	}
	estimator := opts.StringSizeEstimator
	if estimator == nil {
		estimator = defaultStringSizeEstimator
	}
	return &MessageWriter{sink: sink, alloc: alloc, estimator: estimator}
}

// Close flushes and closes the writer's underlying sink.
func (w *MessageWriter) Close() error { return w.sink.Close() }

// Flush writes any buffered data through to the underlying writer.
func (w *MessageWriter) Flush() error { return w.sink.Flush() }

// WriteNil writes the NIL tag.
func (w *MessageWriter) WriteNil() error {
	if err := w.sink.EnsureRemaining(1); err != nil {
		return err
	}
	w.sink.writeByte(formatNil)
	return nil
}

// WriteBool writes a boolean value.
func (w *MessageWriter) WriteBool(v bool) error {
	if err := w.sink.EnsureRemaining(1); err != nil {
		return err
	}
	if v {
		w.sink.writeByte(formatTrue)
	} else {
		w.sink.writeByte(formatFalse)
	}
	return nil
}

// WriteInt64 writes a signed integer using the narrowest legal MessagePack
// representation.
func (w *MessageWriter) WriteInt64(v int64) error {
	switch {
	case v >= 0 && v <= math.MaxInt8:
		return w.writeTag(byte(v))
	case v < 0 && v >= -32:
		return w.writeTag(byte(int8(v)))
	case v >= 0 && v <= math.MaxUint8:
		return w.writeTagPayload1(formatUint8, byte(v))
	case v >= math.MinInt8 && v < 0:
		return w.writeTagPayload1(formatInt8, byte(int8(v)))
	case v >= 0 && v <= math.MaxUint16:
		return w.writeTagPayload2(formatUint16, uint16(v))
	case v >= math.MinInt16 && v < 0:
		return w.writeTagPayload2(formatInt16, uint16(int16(v)))
	case v >= 0 && v <= math.MaxUint32:
		return w.writeTagPayload4(formatUint32, uint32(v))
	case v >= math.MinInt32 && v < 0:
		return w.writeTagPayload4(formatInt32, uint32(int32(v)))
	case v >= 0:
		return w.writeTagPayload8(formatUint64, uint64(v))
	default:
		return w.writeTagPayload8(formatInt64, uint64(v))
	}
}

// WriteUint64 writes an unsigned integer using the narrowest legal
// MessagePack representation.
func (w *MessageWriter) WriteUint64(v uint64) error {
	switch {
	case v <= math.MaxInt8:
		return w.writeTag(byte(v))
	case v <= math.MaxUint8:
		return w.writeTagPayload1(formatUint8, byte(v))
	case v <= math.MaxUint16:
		return w.writeTagPayload2(formatUint16, uint16(v))
	case v <= math.MaxUint32:
		return w.writeTagPayload4(formatUint32, uint32(v))
	default:
		return w.writeTagPayload8(formatUint64, v)
	}
}

func (w *MessageWriter) writeTag(tag byte) error {
	if err := w.sink.EnsureRemaining(1); err != nil {
		return err
	}
	w.sink.writeByte(tag)
	return nil
}

func (w *MessageWriter) writeTagPayload1(tag, v byte) error {
	if err := w.sink.EnsureRemaining(2); err != nil {
		return err
	}
	w.sink.writeByte(tag)
	w.sink.writeByte(v)
	return nil
}

func (w *MessageWriter) writeTagPayload2(tag byte, v uint16) error {
	if err := w.sink.EnsureRemaining(3); err != nil {
		return err
	}
	w.sink.writeByte(tag)
	p := w.sink.reserve(2)
	order.PutUint16(p, v)
	return nil
}

func (w *MessageWriter) writeTagPayload4(tag byte, v uint32) error {
	if err := w.sink.EnsureRemaining(5); err != nil {
		return err
	}
	w.sink.writeByte(tag)
	p := w.sink.reserve(4)
	order.PutUint32(p, v)
	return nil
}

func (w *MessageWriter) writeTagPayload8(tag byte, v uint64) error {
	if err := w.sink.EnsureRemaining(9); err != nil {
		return err
	}
	w.sink.writeByte(tag)
	p := w.sink.reserve(8)
	order.PutUint64(p, v)
	return nil
}

// WriteFloat32 writes an IEEE-754 32-bit float.
func (w *MessageWriter) WriteFloat32(v float32) error {
	return w.writeTagPayload4(formatFloat32, math.Float32bits(v))
}

// WriteFloat64 writes an IEEE-754 64-bit float.
func (w *MessageWriter) WriteFloat64(v float64) error {
	return w.writeTagPayload8(formatFloat64, math.Float64bits(v))
}

// WriteTimestamp writes t as extension type -1, choosing the smallest
// lossless layout.
func (w *MessageWriter) WriteTimestamp(t time.Time) error {
	payload := encodeTimestamp(t)
	return w.WriteExtensionHeaderPayload(extTimestamp, payload)
}

// WriteArrayHeader writes an array header for n elements.
func (w *MessageWriter) WriteArrayHeader(n int) error {
	switch {
	case n <= 15:
		return w.writeTag(formatFixArrPrefix | byte(n))
	case n <= math.MaxUint16:
		return w.writeTagPayload2(formatArray16, uint16(n))
	default:
		return w.writeTagPayload4(formatArray32, uint32(n))
	}
}

// WriteMapHeader writes a map header for n entries.
func (w *MessageWriter) WriteMapHeader(n int) error {
	switch {
	case n <= 15:
		return w.writeTag(formatFixMapPrefix | byte(n))
	case n <= math.MaxUint16:
		return w.writeTagPayload2(formatMap16, uint16(n))
	default:
		return w.writeTagPayload4(formatMap32, uint32(n))
	}
}

// WriteStringHeader writes a string header for byteLen bytes of UTF-8
// payload the caller will write separately (e.g. via WritePayload).
func (w *MessageWriter) WriteStringHeader(byteLen int) error {
	switch {
	case byteLen <= formatFixStrMaxBytes:
		return w.writeTag(formatFixStrPrefix | byte(byteLen))
	case byteLen <= math.MaxUint8:
		return w.writeTagPayload1(formatStr8, byte(byteLen))
	case byteLen <= math.MaxUint16:
		return w.writeTagPayload2(formatStr16, uint16(byteLen))
	default:
		return w.writeTagPayload4(formatStr32, uint32(byteLen))
	}
}

// WriteBinaryHeader writes a binary header for byteLen bytes of payload.
func (w *MessageWriter) WriteBinaryHeader(byteLen int) error {
	switch {
	case byteLen <= math.MaxUint8:
		return w.writeTagPayload1(formatBin8, byte(byteLen))
	case byteLen <= math.MaxUint16:
		return w.writeTagPayload2(formatBin16, uint16(byteLen))
	default:
		return w.writeTagPayload4(formatBin32, uint32(byteLen))
	}
}

// WriteExtensionHeader writes an extension header for the given type id and
// byte length.
func (w *MessageWriter) WriteExtensionHeader(typ int8, byteLen int) error {
	switch byteLen {
	case 1, 2, 4, 8, 16:
		tag := formatFixExt1 + byte(intLog2(byteLen))
		if err := w.sink.EnsureRemaining(2); err != nil {
			return err
		}
		w.sink.writeByte(tag)
		w.sink.writeByte(byte(typ))
		return nil
	}

	switch {
	case byteLen <= math.MaxUint8:
		if err := w.sink.EnsureRemaining(3); err != nil {
			return err
		}
		w.sink.writeByte(formatExt8)
		w.sink.writeByte(byte(byteLen))
		w.sink.writeByte(byte(typ))
		return nil
	case byteLen <= math.MaxUint16:
		if err := w.sink.EnsureRemaining(4); err != nil {
			return err
		}
		w.sink.writeByte(formatExt16)
		p := w.sink.reserve(2)
		order.PutUint16(p, uint16(byteLen))
		w.sink.writeByte(byte(typ))
		return nil
	default:
		if err := w.sink.EnsureRemaining(6); err != nil {
			return err
		}
		w.sink.writeByte(formatExt32)
		p := w.sink.reserve(4)
		order.PutUint32(p, uint32(byteLen))
		w.sink.writeByte(byte(typ))
		return nil
	}
}

// WriteExtensionHeaderPayload writes an extension header followed by its
// payload in one call.
func (w *MessageWriter) WriteExtensionHeaderPayload(typ int8, payload []byte) error {
	if err := w.WriteExtensionHeader(typ, len(payload)); err != nil {
		return err
	}
	return w.WritePayload(payload)
}

// intLog2 returns log2(n) for n a power of two in {1,2,4,8,16}.
func intLog2(n int) int {
	log := 0
	for n > 1 {
		n >>= 1
		log++
	}
	return log
}

// WriteString writes a complete string value (header plus UTF-8 payload).
func (w *MessageWriter) WriteString(s string) error {
	if err := w.WriteStringHeader(len(s)); err != nil {
		return err
	}
	return encodeStringPayload(w.sink, s)
}

// WriteRunes writes the string formed by rs as a MessagePack string. Unlike
// WriteString, the exact UTF-8 byte length isn't known until encoding runs,
// so the scratch buffer is sized up front using StringSizeEstimator (the
// same problem the Java original's maxBytesPerChar solves for a
// CharSequence, which may likewise not know its UTF-8 length ahead of time).
func (w *MessageWriter) WriteRunes(rs []rune) error {
	maxLen := w.estimator(len(rs))
	scratch, err := w.alloc.AcquireByteBuffer(maxLen)
	if err != nil {
		return err
	}
	scratch = scratch[:0]
	for _, r := range rs {
		scratch = utf8.AppendRune(scratch, r)
	}
	defer w.alloc.ReleaseByteBuffer(scratch[:0])

	if err := w.WriteStringHeader(len(scratch)); err != nil {
		return err
	}
	return w.WritePayload(scratch)
}

// WriteBinary writes a complete binary value (header plus payload).
func (w *MessageWriter) WriteBinary(b []byte) error {
	if err := w.WriteBinaryHeader(len(b)); err != nil {
		return err
	}
	return w.WritePayload(b)
}

// WritePayload writes buf verbatim, bypassing the internal buffer for large
// payloads via a scatter write.
func (w *MessageWriter) WritePayload(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if w.sink.writable() >= len(buf) {
		if err := w.sink.EnsureRemaining(len(buf)); err != nil {
			return err
		}
		w.sink.writeBytes(buf)
		return nil
	}
	_, err := w.sink.WriteBuffers(buf)
	return err
}

// WriteFrom streams up to maxBytes from r into the sink.
func (w *MessageWriter) WriteFrom(r interface {
	Read(p []byte) (int, error)
}, maxBytes int64) (int64, error) {
	return w.sink.TransferFrom(r, maxBytes)
}
