package minpack

import (
	"bytes"
	"testing"
)

func TestNewSinkRejectsNil(t *testing.T) {
	if _, err := NewSink(nil, SinkOptions{}); err != ErrNilIO {
		t.Errorf("expected ErrNilIO, got %v", err)
	}
}

func TestSinkFlushesWhenFull(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewSink(&buf, SinkOptions{BufferCapacity: 9})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureRemaining(8); err != nil {
		t.Fatal(err)
	}
	s.writeBytes(bytes.Repeat([]byte{1}, 8))
	if err := s.EnsureRemaining(8); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 8 {
		t.Errorf("expected a flush to have happened, buf.Len() = %d", buf.Len())
	}
}

func TestSinkEnsureRemainingRejectsOversizedRequest(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewSink(&buf, SinkOptions{BufferCapacity: 9})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureRemaining(10); err != ErrBufferTooSmall {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}
}

func TestSinkWriteRejectsAliasedBuffer(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewSink(&buf, SinkOptions{BufferCapacity: 16})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write(s.buf[:1]); err != ErrAliasedBuffer {
		t.Errorf("expected ErrAliasedBuffer, got %v", err)
	}
}

func TestSinkWriteBuffersGathersInternalAndExtra(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewSink(&buf, SinkOptions{BufferCapacity: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureRemaining(2); err != nil {
		t.Fatal(err)
	}
	s.writeBytes([]byte{0xaa, 0xbb})

	n, err := s.WriteBuffers([]byte{0xcc, 0xdd})
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("expected 4 bytes written, got %d", n)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xaa, 0xbb, 0xcc, 0xdd}) {
		t.Errorf("unexpected bytes: %v", buf.Bytes())
	}
}

func TestSinkTransferFromStopsAtEOF(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewSink(&buf, SinkOptions{BufferCapacity: 16})
	if err != nil {
		t.Fatal(err)
	}
	src := bytes.NewReader([]byte{1, 2, 3})
	n, err := s.TransferFrom(src, 100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 bytes transferred, got %d", n)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{1, 2, 3}) {
		t.Errorf("unexpected bytes: %v", buf.Bytes())
	}
}

func TestSinkCloseFlushesAndReleasesBuffer(t *testing.T) {
	var buf bytes.Buffer
	a := NewPooledAllocator(DefaultAllocatorOptions())
	s, err := NewSink(&buf, SinkOptions{Allocator: a, BufferCapacity: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureRemaining(3); err != nil {
		t.Fatal(err)
	}
	s.writeBytes([]byte{9, 9, 9})
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{9, 9, 9}) {
		t.Errorf("expected Close to flush pending bytes, got %v", buf.Bytes())
	}
}
