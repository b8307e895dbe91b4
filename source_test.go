package minpack

import (
	"bytes"
	"testing"
)

func TestNewSourceRejectsNil(t *testing.T) {
	if _, err := NewSource(nil, SourceOptions{}); err != ErrNilIO {
		t.Errorf("expected ErrNilIO, got %v", err)
	}
}

func TestNewSourceRejectsTinyBuffer(t *testing.T) {
	if _, err := NewSource(bytes.NewReader(nil), SourceOptions{BufferCapacity: 4}); err != ErrBufferTooSmall {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}
}

func TestEnsureRemainingRefillsAcrossReads(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 100)
	s, err := NewSource(bytes.NewReader(data), SourceOptions{BufferCapacity: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureRemaining(10); err != nil {
		t.Fatal(err)
	}
	got := s.readBytes(10)
	for _, b := range got {
		if b != 0x42 {
			t.Fatalf("unexpected byte %#x", b)
		}
	}
}

func TestEnsureRemainingEOF(t *testing.T) {
	s, err := NewSource(bytes.NewReader([]byte{1, 2}), SourceOptions{BufferCapacity: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureRemaining(3); err != ErrEndOfInput {
		t.Errorf("expected ErrEndOfInput, got %v", err)
	}
}

func TestEnsureRemainingTooLarge(t *testing.T) {
	s, err := NewSource(bytes.NewReader(bytes.Repeat([]byte{1}, 100)), SourceOptions{BufferCapacity: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureRemaining(17); err != ErrBufferTooSmall {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}
}

func TestReadAnyDrainsBufferFirst(t *testing.T) {
	s, err := NewSource(bytes.NewReader([]byte{1, 2, 3, 4, 5}), SourceOptions{BufferCapacity: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureRemaining(2); err != nil {
		t.Fatal(err)
	}
	dest := make([]byte, 5)
	n, err := s.ReadAny(dest)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("expected to read all 5 buffered bytes, got %d", n)
	}
	if !bytes.Equal(dest, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("unexpected bytes: %v", dest)
	}
}

func TestTransferToMovesExactByteCount(t *testing.T) {
	data := bytes.Repeat([]byte{0x7}, 50)
	s, err := NewSource(bytes.NewReader(data), SourceOptions{BufferCapacity: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureRemaining(4); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	sink, err := NewSink(&out, SinkOptions{})
	if err != nil {
		t.Fatal(err)
	}

	n, err := s.TransferTo(sink, 50)
	if err != nil {
		t.Fatal(err)
	}
	if n != 50 {
		t.Fatalf("expected 50 bytes transferred, got %d", n)
	}
	if err := sink.Flush(); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 50 {
		t.Fatalf("expected sink to hold 50 bytes, got %d", out.Len())
	}
}

func TestSourceCloseReleasesBuffer(t *testing.T) {
	a := NewPooledAllocator(DefaultAllocatorOptions())
	s, err := NewSource(bytes.NewReader(nil), SourceOptions{Allocator: a, BufferCapacity: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	// A second acquire of the same capacity should reuse the released buffer.
	b, err := a.AcquireByteBuffer(16)
	if err != nil {
		t.Fatal(err)
	}
	if cap(b) != 16 {
		t.Errorf("expected reused 16-byte buffer, got cap %d", cap(b))
	}
}
