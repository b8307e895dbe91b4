package minpack

import (
	"math"
	"time"
)

// ReaderOptions configures a MessageReader.
type ReaderOptions struct {
	// Allocator backs scratch buffers needed for oversized strings. If nil,
	// the reader uses its source's allocator.
	Allocator *Allocator
	// IdentifierCacheLimit is the maximum number of entries held by
	// ReadIdentifier's LRU cache. Defaults to 1024.
	IdentifierCacheLimit int
	// MaxIdentifierLength is the longest byte sequence ReadIdentifier will
	// intern; longer strings still decode but bypass the cache. Defaults
	// to 64.
	MaxIdentifierLength int
}

// MessageReader is a stateless-per-call MessagePack decoder over a
// MessageSource. It is not safe for concurrent use.
type MessageReader struct {
	src   *MessageSource
	alloc *Allocator
	ids   *identifierCache
}

// NewReader builds a MessageReader over source.
func NewReader(source *MessageSource, opts ReaderOptions) *MessageReader {
	alloc := opts.Allocator
	if alloc == nil {
		alloc = source.alloc
	}
	return &MessageReader{
		src:   source,
		alloc: alloc,
		ids:   newIdentifierCache(opts.IdentifierCacheLimit, opts.MaxIdentifierLength),
	}
}

// Close closes the reader's underlying source.
func (r *MessageReader) Close() error { return r.src.Close() }

// NextFormat returns the upcoming tag byte without consuming it.
func (r *MessageReader) NextFormat() (byte, error) {
	if err := r.src.EnsureRemaining(1); err != nil {
		return 0, err
	}
	return r.src.peekByte(), nil
}

// NextType returns the MessageType of the upcoming value.
func (r *MessageReader) NextType() (MessageType, error) {
	tag, err := r.NextFormat()
	if err != nil {
		return 0, err
	}
	return messageTypeOf(tag), nil
}

// payloadAfterTag ensures 1+n bytes are available, consumes the tag byte,
// and returns a view of the following n payload bytes.
func (r *MessageReader) payloadAfterTag(n int) ([]byte, error) {
	if err := r.src.EnsureRemaining(1 + n); err != nil {
		return nil, err
	}
	r.src.readByte()
	if n == 0 {
		return nil, nil
	}
	return r.src.readBytes(n), nil
}

// ReadNil consumes a NIL tag.
func (r *MessageReader) ReadNil() error {
	tag, err := r.NextFormat()
	if err != nil {
		return err
	}
	if tag != formatNil {
		return ErrTypeMismatch
	}
	r.src.readByte()
	return nil
}

// ReadBool reads a boolean value.
func (r *MessageReader) ReadBool() (bool, error) {
	tag, err := r.NextFormat()
	if err != nil {
		return false, err
	}
	switch tag {
	case formatTrue:
		r.src.readByte()
		return true, nil
	case formatFalse:
		r.src.readByte()
		return false, nil
	default:
		return false, ErrTypeMismatch
	}
}

// decodeInt64 reads the next integer tag and widens it to int64, failing
// ErrIntegerOverflow if a wire uint64 does not fit.
func (r *MessageReader) decodeInt64() (int64, error) {
	tag, err := r.NextFormat()
	if err != nil {
		return 0, err
	}

	switch {
	case IsFixInt(tag):
		r.src.readByte()
		return int64(int8(tag)), nil

	case tag == formatUint8:
		p, err := r.payloadAfterTag(1)
		if err != nil {
			return 0, err
		}
		return int64(p[0]), nil

	case tag == formatInt8:
		p, err := r.payloadAfterTag(1)
		if err != nil {
			return 0, err
		}
		return int64(int8(p[0])), nil

	case tag == formatUint16:
		p, err := r.payloadAfterTag(2)
		if err != nil {
			return 0, err
		}
		return int64(order.Uint16(p)), nil

	case tag == formatInt16:
		p, err := r.payloadAfterTag(2)
		if err != nil {
			return 0, err
		}
		return int64(int16(order.Uint16(p))), nil

	case tag == formatUint32:
		p, err := r.payloadAfterTag(4)
		if err != nil {
			return 0, err
		}
		return int64(order.Uint32(p)), nil

	case tag == formatInt32:
		p, err := r.payloadAfterTag(4)
		if err != nil {
			return 0, err
		}
		return int64(int32(order.Uint32(p))), nil

	case tag == formatUint64:
		p, err := r.payloadAfterTag(8)
		if err != nil {
			return 0, err
		}
		v := order.Uint64(p)
		if v > math.MaxInt64 {
			return 0, ErrIntegerOverflow
		}
		return int64(v), nil

	case tag == formatInt64:
		p, err := r.payloadAfterTag(8)
		if err != nil {
			return 0, err
		}
		return int64(order.Uint64(p)), nil

	default:
		return 0, ErrTypeMismatch
	}
}

// ReadInt8 reads an integer and narrows it to int8, failing
// ErrIntegerOverflow if it does not fit.
func (r *MessageReader) ReadInt8() (int8, error) {
	v, err := r.decodeInt64()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt8 || v > math.MaxInt8 {
		return 0, ErrIntegerOverflow
	}
	return int8(v), nil
}

// ReadInt16 reads an integer and narrows it to int16.
func (r *MessageReader) ReadInt16() (int16, error) {
	v, err := r.decodeInt64()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, ErrIntegerOverflow
	}
	return int16(v), nil
}

// ReadInt32 reads an integer and narrows it to int32.
func (r *MessageReader) ReadInt32() (int32, error) {
	v, err := r.decodeInt64()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, ErrIntegerOverflow
	}
	return int32(v), nil
}

// ReadInt64 reads an integer widened to int64.
func (r *MessageReader) ReadInt64() (int64, error) {
	return r.decodeInt64()
}

// ReadUint64 reads the next integer tag as a lossless unsigned 64-bit value.
func (r *MessageReader) ReadUint64() (uint64, error) {
	tag, err := r.NextFormat()
	if err != nil {
		return 0, err
	}

	if IsFixInt(tag) && tag <= formatPosFixIntMax {
		r.src.readByte()
		return uint64(tag), nil
	}

	switch tag {
	case formatUint8:
		p, err := r.payloadAfterTag(1)
		if err != nil {
			return 0, err
		}
		return uint64(p[0]), nil
	case formatUint16:
		p, err := r.payloadAfterTag(2)
		if err != nil {
			return 0, err
		}
		return uint64(order.Uint16(p)), nil
	case formatUint32:
		p, err := r.payloadAfterTag(4)
		if err != nil {
			return 0, err
		}
		return uint64(order.Uint32(p)), nil
	case formatUint64:
		p, err := r.payloadAfterTag(8)
		if err != nil {
			return 0, err
		}
		return order.Uint64(p), nil
	}

	v, err := r.decodeInt64()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, ErrIntegerOverflow
	}
	return uint64(v), nil
}

// ReadFloat32 reads an IEEE-754 32-bit float. Integer tags are not
// auto-promoted.
func (r *MessageReader) ReadFloat32() (float32, error) {
	tag, err := r.NextFormat()
	if err != nil {
		return 0, err
	}
	if tag != formatFloat32 {
		return 0, ErrTypeMismatch
	}
	p, err := r.payloadAfterTag(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(order.Uint32(p)), nil
}

// ReadFloat64 reads an IEEE-754 64-bit float.
func (r *MessageReader) ReadFloat64() (float64, error) {
	tag, err := r.NextFormat()
	if err != nil {
		return 0, err
	}
	if tag != formatFloat64 {
		return 0, ErrTypeMismatch
	}
	p, err := r.payloadAfterTag(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(order.Uint64(p)), nil
}

// ReadTimestamp reads the extension type -1 timestamp.
func (r *MessageReader) ReadTimestamp() (time.Time, error) {
	typ, n, err := r.ReadExtensionHeader()
	if err != nil {
		return time.Time{}, err
	}
	if typ != extTimestamp {
		return time.Time{}, ErrTypeMismatch
	}
	data, err := r.src.tryContiguous(n)
	if err == ErrBufferTooSmall {
		scratch, aerr := r.alloc.AcquireByteBuffer(n)
		if aerr != nil {
			return time.Time{}, aerr
		}
		scratch = scratch[:n]
		defer r.alloc.ReleaseByteBuffer(scratch[:0])
		if perr := readPayload(r.src, scratch); perr != nil {
			return time.Time{}, perr
		}
		return decodeTimestamp(scratch)
	}
	if err != nil {
		return time.Time{}, err
	}
	return decodeTimestamp(data)
}

// ReadString reads the next string value.
func (r *MessageReader) ReadString() (string, error) {
	n, err := r.ReadStringHeader()
	if err != nil {
		return "", err
	}
	return decodeString(r.src, r.alloc, n)
}

// ReadIdentifier reads the next string value, interning it through the
// reader's identifier cache when its length is within the configured limit.
func (r *MessageReader) ReadIdentifier() (string, error) {
	n, err := r.ReadStringHeader()
	if err != nil {
		return "", err
	}
	return decodeIdentifier(r.src, r.alloc, r.ids, n)
}

// ReadStringHeader reads a string header and returns its byte length.
func (r *MessageReader) ReadStringHeader() (int, error) {
	tag, err := r.NextFormat()
	if err != nil {
		return 0, err
	}
	switch {
	case IsFixStr(tag):
		r.src.readByte()
		return int(tag &^ formatFixStrMask), nil
	case tag == formatStr8:
		p, err := r.payloadAfterTag(1)
		if err != nil {
			return 0, err
		}
		return int(p[0]), nil
	case tag == formatStr16:
		p, err := r.payloadAfterTag(2)
		if err != nil {
			return 0, err
		}
		return int(order.Uint16(p)), nil
	case tag == formatStr32:
		p, err := r.payloadAfterTag(4)
		if err != nil {
			return 0, err
		}
		return int(order.Uint32(p)), nil
	default:
		return 0, ErrTypeMismatch
	}
}

// ReadBinaryHeader reads a binary header and returns its byte length.
func (r *MessageReader) ReadBinaryHeader() (int, error) {
	tag, err := r.NextFormat()
	if err != nil {
		return 0, err
	}
	switch tag {
	case formatBin8:
		p, err := r.payloadAfterTag(1)
		if err != nil {
			return 0, err
		}
		return int(p[0]), nil
	case formatBin16:
		p, err := r.payloadAfterTag(2)
		if err != nil {
			return 0, err
		}
		return int(order.Uint16(p)), nil
	case formatBin32:
		p, err := r.payloadAfterTag(4)
		if err != nil {
			return 0, err
		}
		return int(order.Uint32(p)), nil
	default:
		return 0, ErrTypeMismatch
	}
}

// ReadExtensionHeader reads an extension header and returns its type id and
// byte length.
func (r *MessageReader) ReadExtensionHeader() (int8, int, error) {
	tag, err := r.NextFormat()
	if err != nil {
		return 0, 0, err
	}

	if tag >= formatFixExt1 && tag <= formatFixExt16 {
		p, err := r.payloadAfterTag(1)
		if err != nil {
			return 0, 0, err
		}
		length := 1 << (tag - formatFixExt1)
		return int8(p[0]), length, nil
	}

	switch tag {
	case formatExt8:
		p, err := r.payloadAfterTag(2)
		if err != nil {
			return 0, 0, err
		}
		return int8(p[1]), int(p[0]), nil
	case formatExt16:
		p, err := r.payloadAfterTag(3)
		if err != nil {
			return 0, 0, err
		}
		return int8(p[2]), int(order.Uint16(p[:2])), nil
	case formatExt32:
		p, err := r.payloadAfterTag(5)
		if err != nil {
			return 0, 0, err
		}
		return int8(p[4]), int(order.Uint32(p[:4])), nil
	default:
		return 0, 0, ErrTypeMismatch
	}
}

// ReadArrayHeader reads an array header and returns its element count.
func (r *MessageReader) ReadArrayHeader() (int, error) {
	tag, err := r.NextFormat()
	if err != nil {
		return 0, err
	}
	switch {
	case IsFixArray(tag):
		r.src.readByte()
		return int(tag &^ formatFixArrMask), nil
	case tag == formatArray16:
		p, err := r.payloadAfterTag(2)
		if err != nil {
			return 0, err
		}
		return int(order.Uint16(p)), nil
	case tag == formatArray32:
		p, err := r.payloadAfterTag(4)
		if err != nil {
			return 0, err
		}
		return int(order.Uint32(p)), nil
	default:
		return 0, ErrTypeMismatch
	}
}

// ReadMapHeader reads a map header and returns its entry count.
func (r *MessageReader) ReadMapHeader() (int, error) {
	tag, err := r.NextFormat()
	if err != nil {
		return 0, err
	}
	switch {
	case IsFixMap(tag):
		r.src.readByte()
		return int(tag &^ formatFixMapMask), nil
	case tag == formatMap16:
		p, err := r.payloadAfterTag(2)
		if err != nil {
			return 0, err
		}
		return int(order.Uint16(p)), nil
	case tag == formatMap32:
		p, err := r.payloadAfterTag(4)
		if err != nil {
			return 0, err
		}
		return int(order.Uint32(p)), nil
	default:
		return 0, ErrTypeMismatch
	}
}

// ReadPayload fills dest completely from the stream, used after a
// binary/string/extension header to consume its raw bytes.
func (r *MessageReader) ReadPayload(dest []byte) error {
	return readPayload(r.src, dest)
}

// SkipValue advances past n whole values, recursing into nested containers
// and skipping payload-bearing types by their byte length. Payload bytes go
// through Discard (io.CopyN into io.Discard), so no destination buffer is
// allocated for them; the skip as a whole is not allocation-free.
func (r *MessageReader) SkipValue(n int) error {
	for ; n > 0; n-- {
		if err := r.skipOne(); err != nil {
			return err
		}
	}
	return nil
}

func (r *MessageReader) skipOne() error {
	tag, err := r.NextFormat()
	if err != nil {
		return err
	}

	switch {
	case tag == formatNil, tag == formatTrue, tag == formatFalse, IsFixInt(tag):
		r.src.readByte()
		return nil

	case tag == formatUint8, tag == formatInt8:
		_, err := r.payloadAfterTag(1)
		return err
	case tag == formatUint16, tag == formatInt16:
		_, err := r.payloadAfterTag(2)
		return err
	case tag == formatUint32, tag == formatInt32, tag == formatFloat32:
		_, err := r.payloadAfterTag(4)
		return err
	case tag == formatUint64, tag == formatInt64, tag == formatFloat64:
		_, err := r.payloadAfterTag(8)
		return err

	case IsFixStr(tag), tag == formatStr8, tag == formatStr16, tag == formatStr32:
		n, err := r.ReadStringHeader()
		if err != nil {
			return err
		}
		_, err = Discard(skipReader{r.src}, int64(n))
		return err

	case tag == formatBin8, tag == formatBin16, tag == formatBin32:
		n, err := r.ReadBinaryHeader()
		if err != nil {
			return err
		}
		_, err = Discard(skipReader{r.src}, int64(n))
		return err

	case IsFixArray(tag), tag == formatArray16, tag == formatArray32:
		n, err := r.ReadArrayHeader()
		if err != nil {
			return err
		}
		return r.SkipValue(n)

	case IsFixMap(tag), tag == formatMap16, tag == formatMap32:
		n, err := r.ReadMapHeader()
		if err != nil {
			return err
		}
		return r.SkipValue(n * 2)

	case (tag >= formatFixExt1 && tag <= formatFixExt16), tag == formatExt8, tag == formatExt16, tag == formatExt32:
		_, n, err := r.ReadExtensionHeader()
		if err != nil {
			return err
		}
		_, err = Discard(skipReader{r.src}, int64(n))
		return err

	default:
		return ErrTypeMismatch
	}
}

// skipReader adapts a MessageSource to io.Reader so SkipValue can reuse
// Discard's io.CopyN-based skip instead of hand-rolling a discard loop.
type skipReader struct{ src *MessageSource }

func (s skipReader) Read(p []byte) (int, error) { return s.src.ReadAny(p) }
