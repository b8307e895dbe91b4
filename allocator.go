package minpack

import (
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// AllocatorOptions configures a Allocator. The zero value is not meaningful;
// use DefaultAllocatorOptions() as a starting point.
type AllocatorOptions struct {
	// MaxByteBufferCapacity bounds the capacity a caller may request from
	// AcquireByteBuffer. Requesting a larger capacity fails with
	// ErrCapacityExceedsMax. A pooled allocator rounds the request up to a
	// power of two, so the buffer handed out can exceed a bound that is not
	// itself a power of two.
	MaxByteBufferCapacity int
	// MaxCharBufferCapacity is the char-buffer equivalent of
	// MaxByteBufferCapacity.
	MaxCharBufferCapacity int
	// MaxPooledByteBufferCapacity bounds the capacity of a byte buffer that
	// is eligible to return to the pool on Release; larger buffers are
	// dropped instead.
	MaxPooledByteBufferCapacity int
	// MaxPooledCharBufferCapacity is the char-buffer equivalent of
	// MaxPooledByteBufferCapacity.
	MaxPooledCharBufferCapacity int
	// MaxByteBufferPoolCapacity bounds the sum of capacities of all pooled,
	// currently-released byte buffers.
	MaxByteBufferPoolCapacity int
	// MaxCharBufferPoolCapacity is the char-buffer equivalent of
	// MaxByteBufferPoolCapacity.
	MaxCharBufferPoolCapacity int
	// PreferDirectBuffers is carried for parity with the allocator contract
	// this library is modeled on. Go has no off-heap buffer distinct from a
	// GC-managed []byte, so this does not change allocation strategy; it is
	// still threaded through NewPooledAllocator/NewUnpooledAllocator and
	// exposed via Allocator.PreferDirectBuffers so callers that port
	// configuration from the original API are not silently ignored.
	PreferDirectBuffers bool
}

// DefaultAllocatorOptions returns sane defaults for a pooled allocator backing
// ordinary message traffic.
func DefaultAllocatorOptions() AllocatorOptions {
	return AllocatorOptions{
		MaxByteBufferCapacity:       64 << 20,
		MaxCharBufferCapacity:       16 << 20,
		MaxPooledByteBufferCapacity: 1 << 20,
		MaxPooledCharBufferCapacity: 1 << 20,
		MaxByteBufferPoolCapacity:   16 << 20,
		MaxCharBufferPoolCapacity:   8 << 20,
	}
}

// bucket is a single power-of-two-capacity free list. Lookup/creation of a
// bucket is lock-free (it lives behind an xsync.Map); only the push/pop of
// the stack itself needs the small per-bucket mutex below.
type bucket struct {
	mu   sync.Mutex
	free [][]byte
}

func (b *bucket) pop() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.free)
	if n == 0 {
		return nil, false
	}
	buf := b.free[n-1]
	b.free[n-1] = nil
	b.free = b.free[:n-1]
	return buf, true
}

func (b *bucket) push(buf []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.free = append(b.free, buf)
}

// Allocator is a pooled or unpooled source of reusable byte and char buffers.
// A char buffer is represented as a []byte scratch region (Go strings are
// natively UTF-8, so there is no separate char-width type to allocate the way
// the Java original allocates CharBuffer).
//
// An Allocator is safe for concurrent use; it is the only object in this
// package that is.
type Allocator struct {
	opts   AllocatorOptions
	pooled bool

	byteBuckets *xsync.Map[int, *bucket]
	charBuckets *xsync.Map[int, *bucket]

	byteTotal atomic.Int64
	charTotal atomic.Int64

	closed atomic.Bool
}

// NewPooledAllocator returns an Allocator that reuses released buffers
// within the configured caps.
func NewPooledAllocator(opts AllocatorOptions) *Allocator {
	return &Allocator{
		opts:        opts,
		pooled:      true,
		byteBuckets: xsync.NewMap[int, *bucket](),
		charBuckets: xsync.NewMap[int, *bucket](),
	}
}

// NewUnpooledAllocator returns an Allocator whose every Acquire allocates
// fresh and whose every Release is a no-op.
func NewUnpooledAllocator(opts AllocatorOptions) *Allocator {
	return &Allocator{opts: opts, pooled: false}
}

// PreferDirectBuffers reports the allocator's configured preference. See the
// AllocatorOptions.PreferDirectBuffers doc comment for why this has no
// behavioral effect in Go.
func (a *Allocator) PreferDirectBuffers() bool { return a.opts.PreferDirectBuffers }

// AcquireByteBuffer returns a buffer of capacity >= capacity, reset to empty.
func (a *Allocator) AcquireByteBuffer(capacity int) ([]byte, error) {
	return a.acquire(capacity, a.opts.MaxByteBufferCapacity, a.byteBuckets)
}

// AcquireCharBuffer returns a scratch buffer of capacity >= capacity, reset
// to empty.
func (a *Allocator) AcquireCharBuffer(capacity int) ([]byte, error) {
	return a.acquire(capacity, a.opts.MaxCharBufferCapacity, a.charBuckets)
}

func (a *Allocator) acquire(capacity, maxCap int, buckets *xsync.Map[int, *bucket]) ([]byte, error) {
	if a.closed.Load() {
		return nil, ErrAllocatorClosed
	}
	if capacity > maxCap {
		return nil, ErrCapacityExceedsMax
	}
	if !a.pooled {
		return make([]byte, 0, capacity), nil
	}

	size := NextPow2(capacity)
	for bucketCap := size; bucketCap <= maxCap; bucketCap <<= 1 {
		b, ok := buckets.Load(bucketCap)
		if !ok {
			continue
		}
		if buf, found := b.pop(); found {
			a.releaseTotal(buckets, -cap(buf))
			return buf[:0], nil
		}
		if bucketCap == maxCap {
			break
		}
	}
	return make([]byte, 0, size), nil
}

// ReleaseByteBuffer returns buf to the byte-buffer pool if it is within caps;
// otherwise it is dropped.
func (a *Allocator) ReleaseByteBuffer(buf []byte) {
	a.release(buf, a.opts.MaxPooledByteBufferCapacity, a.opts.MaxByteBufferPoolCapacity, &a.byteTotal, a.byteBuckets)
}

// ReleaseCharBuffer is the char-buffer equivalent of ReleaseByteBuffer.
func (a *Allocator) ReleaseCharBuffer(buf []byte) {
	a.release(buf, a.opts.MaxPooledCharBufferCapacity, a.opts.MaxCharBufferPoolCapacity, &a.charTotal, a.charBuckets)
}

func (a *Allocator) release(buf []byte, maxPooled, maxTotal int, total *atomic.Int64, buckets *xsync.Map[int, *bucket]) {
	if !a.pooled || a.closed.Load() || buf == nil {
		return
	}
	c := cap(buf)
	if c == 0 || c > maxPooled {
		return
	}
	for {
		cur := total.Load()
		if cur+int64(c) > int64(maxTotal) {
			return
		}
		if total.CompareAndSwap(cur, cur+int64(c)) {
			break
		}
	}
	b, _ := buckets.LoadOrStore(c, &bucket{})
	b.push(buf)
}

func (a *Allocator) releaseTotal(buckets *xsync.Map[int, *bucket], delta int) {
	if buckets == a.byteBuckets {
		a.byteTotal.Add(int64(delta))
	} else {
		a.charTotal.Add(int64(delta))
	}
}

// Close drops every pooled buffer; subsequent Acquire calls fail with
// ErrAllocatorClosed.
func (a *Allocator) Close() error {
	a.closed.Store(true)
	if a.pooled {
		a.byteBuckets.Clear()
		a.charBuckets.Clear()
	}
	a.byteTotal.Store(0)
	a.charTotal.Store(0)
	return nil
}
