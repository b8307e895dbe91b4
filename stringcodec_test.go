package minpack

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateUTF8ReportsOffset(t *testing.T) {
	valid := []byte("héllo")
	require.NoError(t, validateUTF8(valid))

	invalid := append([]byte("ok-"), 0xff)
	err := validateUTF8(invalid)
	require.ErrorIs(t, err, ErrInvalidUTF8)
	require.ErrorContains(t, err, "at byte offset 3")
}

func TestIdentifierCacheInterns(t *testing.T) {
	c := newIdentifierCache(4, 16)
	a := c.intern([]byte("hello"))
	b := c.intern([]byte("hello"))
	require.Equal(t, a, b)
}

func TestIdentifierCacheBypassesLongStrings(t *testing.T) {
	c := newIdentifierCache(4, 4)
	s := c.intern([]byte("this-is-longer-than-the-limit"))
	require.Equal(t, "this-is-longer-than-the-limit", s)
	require.Zero(t, c.entries.Len())
}

func TestIdentifierCacheEvictsLRU(t *testing.T) {
	c := newIdentifierCache(2, 16)
	c.intern([]byte("a"))
	c.intern([]byte("b"))
	c.intern([]byte("c")) // evicts "a"

	require.False(t, c.entries.Contains("a"), "expected \"a\" to have been evicted")
	require.True(t, c.entries.Contains("b"), "expected \"b\" to remain cached")
	require.True(t, c.entries.Contains("c"), "expected \"c\" to remain cached")
}

// TestReaderIdentifierRoundTrip exercises ReadIdentifier end-to-end through a
// MessageReader, not just identifierCache.intern directly, checking both that
// repeated occurrences of the same identifier intern to equal strings and
// that the identifier ends up in the reader's cache.
func TestReaderIdentifierRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewSink(&buf, SinkOptions{})
	require.NoError(t, err)
	w := NewWriter(sink, WriterOptions{})

	require.NoError(t, w.WriteString("status"))
	require.NoError(t, w.WriteString("status"))
	require.NoError(t, w.Flush())

	source, err := NewSource(&buf, SourceOptions{})
	require.NoError(t, err)
	r := NewReader(source, ReaderOptions{IdentifierCacheLimit: 4, MaxIdentifierLength: 16})

	first, err := r.ReadIdentifier()
	require.NoError(t, err)
	require.Equal(t, "status", first)

	second, err := r.ReadIdentifier()
	require.NoError(t, err)
	require.Equal(t, "status", second)

	require.True(t, r.ids.entries.Contains("status"))
}
