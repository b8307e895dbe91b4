package minpack

import (
	"fmt"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultIdentifierCacheLimit = 1024
	defaultMaxIdentifierLength  = 64
)

// identifierCache interns short decoded strings keyed by their exact byte
// content, so that repeated occurrences of the same map key or enum-like
// string decode to a single shared string value.
type identifierCache struct {
	entries *lru.Cache[string, string]
	maxLen  int
}

func newIdentifierCache(limit, maxLen int) *identifierCache {
	if limit <= 0 {
		limit = defaultIdentifierCacheLimit
	}
	if maxLen <= 0 {
		maxLen = defaultMaxIdentifierLength
	}
	c, err := lru.New[string, string](limit)
	if err != nil {
		// Only returns an error for a non-positive size, excluded above.
		panic(err)
	}
	return &identifierCache{entries: c, maxLen: maxLen}
}

// intern returns the cached string equal to raw, inserting a fresh one built
// from raw if absent. raw must already be validated UTF-8.
func (c *identifierCache) intern(raw []byte) string {
	if len(raw) > c.maxLen {
		return string(raw)
	}
	key := string(raw)
	if v, ok := c.entries.Get(key); ok {
		return v
	}
	c.entries.Add(key, key)
	return key
}

// validateUTF8 checks that b is well-formed UTF-8, returning ErrInvalidUTF8
// wrapped with the byte offset of the first invalid sequence otherwise.
func validateUTF8(b []byte) error {
	if utf8.Valid(b) {
		return nil
	}
	offset := firstInvalidUTF8Offset(b)
	return fmt.Errorf("%w: at byte offset %d", ErrInvalidUTF8, offset)
}

func firstInvalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}

// decodeString materializes a string from the next n bytes on source,
// validating UTF-8 along the way. It prefers decoding directly out of the
// source's internal buffer; oversized strings that don't fit the buffer
// fall back to a scratch buffer acquired from the allocator.
func decodeString(src *MessageSource, alloc *Allocator, n int) (string, error) {
	if n == 0 {
		return "", nil
	}

	b, err := src.tryContiguous(n)
	if err == nil {
		if verr := validateUTF8(b); verr != nil {
			return "", verr
		}
		return string(b), nil
	}
	if err != ErrBufferTooSmall {
		return "", err
	}

	scratch, aerr := alloc.AcquireCharBuffer(n)
	if aerr != nil {
		return "", aerr
	}
	scratch = scratch[:n]
	defer alloc.ReleaseCharBuffer(scratch[:0])

	if perr := readPayload(src, scratch); perr != nil {
		return "", perr
	}
	if verr := validateUTF8(scratch); verr != nil {
		return "", verr
	}
	return string(scratch), nil
}

// decodeIdentifier is decodeString's interning counterpart, used by
// MessageReader.ReadIdentifier.
func decodeIdentifier(src *MessageSource, alloc *Allocator, cache *identifierCache, n int) (string, error) {
	if n == 0 {
		return "", nil
	}

	b, err := src.tryContiguous(n)
	if err == nil {
		if verr := validateUTF8(b); verr != nil {
			return "", verr
		}
		return cache.intern(b), nil
	}
	if err != ErrBufferTooSmall {
		return "", err
	}

	scratch, aerr := alloc.AcquireCharBuffer(n)
	if aerr != nil {
		return "", aerr
	}
	scratch = scratch[:n]
	defer alloc.ReleaseCharBuffer(scratch[:0])

	if perr := readPayload(src, scratch); perr != nil {
		return "", perr
	}
	if verr := validateUTF8(scratch); verr != nil {
		return "", verr
	}
	return cache.intern(scratch), nil
}

// encodeStringPayload writes s's UTF-8 bytes to sink, preferring to write
// directly into the sink's internal buffer when there is room, falling back
// to a gather write through MessageSink.Write otherwise. The caller writes
// the header first via MessageWriter.WriteStringHeader.
func encodeStringPayload(sink *MessageSink, s string) error {
	n := len(s)
	if n == 0 {
		return nil
	}
	if sink.writable() >= n {
		if err := sink.EnsureRemaining(n); err != nil {
			return err
		}
		sink.writeBytes([]byte(s))
		return nil
	}
	_, err := sink.Write([]byte(s))
	return err
}
