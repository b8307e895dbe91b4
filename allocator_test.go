package minpack

import "testing"

func TestUnpooledAllocatorAlwaysAllocatesFresh(t *testing.T) {
	a := NewUnpooledAllocator(DefaultAllocatorOptions())
	b1, err := a.AcquireByteBuffer(64)
	if err != nil {
		t.Fatal(err)
	}
	a.ReleaseByteBuffer(b1)
	b2, err := a.AcquireByteBuffer(64)
	if err != nil {
		t.Fatal(err)
	}
	if cap(b1) != 64 || cap(b2) != 64 {
		t.Errorf("expected both buffers to have capacity 64, got %d and %d", cap(b1), cap(b2))
	}
}

func TestPooledAllocatorReusesReleasedBuffer(t *testing.T) {
	a := NewPooledAllocator(DefaultAllocatorOptions())

	b1, err := a.AcquireByteBuffer(100)
	if err != nil {
		t.Fatal(err)
	}
	if cap(b1) != 128 {
		t.Errorf("expected NextPow2(100) == 128 bucket, got cap %d", cap(b1))
	}
	a.ReleaseByteBuffer(b1)

	b2, err := a.AcquireByteBuffer(100)
	if err != nil {
		t.Fatal(err)
	}
	if cap(b2) != 128 {
		t.Errorf("expected reused buffer from the 128 bucket, got cap %d", cap(b2))
	}
}

func TestAllocatorRejectsOversizedRequest(t *testing.T) {
	a := NewPooledAllocator(AllocatorOptions{
		MaxByteBufferCapacity: 16,
		MaxCharBufferCapacity: 16,
	})
	if _, err := a.AcquireByteBuffer(17); err != ErrCapacityExceedsMax {
		t.Errorf("expected ErrCapacityExceedsMax, got %v", err)
	}
}

func TestAllocatorDropsBuffersAboveThePoolCap(t *testing.T) {
	opts := DefaultAllocatorOptions()
	opts.MaxPooledByteBufferCapacity = 32
	opts.MaxByteBufferPoolCapacity = 32
	a := NewPooledAllocator(opts)

	big, err := a.AcquireByteBuffer(64)
	if err != nil {
		t.Fatal(err)
	}
	a.ReleaseByteBuffer(big) // exceeds MaxPooledByteBufferCapacity, dropped

	small, err := a.AcquireByteBuffer(32)
	if err != nil {
		t.Fatal(err)
	}
	a.ReleaseByteBuffer(small)

	// Pool now holds one 32-byte buffer at the cap; a second would overflow it.
	other, err := a.AcquireByteBuffer(32)
	if err != nil {
		t.Fatal(err)
	}
	a.ReleaseByteBuffer(other)
	a.ReleaseByteBuffer(make([]byte, 0, 32))

	got, err := a.AcquireByteBuffer(32)
	if err != nil {
		t.Fatal(err)
	}
	if cap(got) != 32 {
		t.Errorf("expected a pooled 32-byte buffer, got cap %d", cap(got))
	}
}

func TestPooledAllocatorCharBufferIsIndependentOfByteBuffer(t *testing.T) {
	a := NewPooledAllocator(DefaultAllocatorOptions())

	c1, err := a.AcquireCharBuffer(100)
	if err != nil {
		t.Fatal(err)
	}
	if cap(c1) != 128 {
		t.Errorf("expected NextPow2(100) == 128 bucket, got cap %d", cap(c1))
	}
	a.ReleaseCharBuffer(c1)

	// A byte-buffer acquire of the same capacity must not observe the
	// released char buffer; the two pools are keyed independently.
	b, err := a.AcquireByteBuffer(100)
	if err != nil {
		t.Fatal(err)
	}
	if cap(b) != 128 {
		t.Errorf("expected NextPow2(100) == 128 bucket, got cap %d", cap(b))
	}

	c2, err := a.AcquireCharBuffer(100)
	if err != nil {
		t.Fatal(err)
	}
	if cap(c2) != 128 {
		t.Errorf("expected reused char buffer from the 128 bucket, got cap %d", cap(c2))
	}
}

func TestAllocatorCloseRejectsFurtherAcquire(t *testing.T) {
	a := NewPooledAllocator(DefaultAllocatorOptions())
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := a.AcquireByteBuffer(16); err != ErrAllocatorClosed {
		t.Errorf("expected ErrAllocatorClosed after Close, got %v", err)
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 100: 128, 128: 128, 129: 256}
	for n, want := range cases {
		if got := NextPow2(n); got != want {
			t.Errorf("NextPow2(%d) = %d, want %d", n, got, want)
		}
	}
}
