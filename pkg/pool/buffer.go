// Package pool holds sync.Pool backed byte buffers shared by all copy tasks.
//
// Two shapes are provided:
//   - FixedBufferPool hands out buffers of exactly one size. File copy tasks use
//     it for their read/write chunk.
//   - BucketedBufferPool hands out buffers rounded up to the next power of two.
//     Directory copy tasks use it for their entry path scratch space, whose size
//     depends on the source path length and the filesystem name limit.
//
// Buffers are passed around as *[]byte so that Put does not allocate.
package pool

import (
	"fmt"
	"math/bits"
	"sync"
)

func isPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// BucketedBufferPool keeps one sync.Pool per power-of-two size class.
type BucketedBufferPool struct {
	minExp  int
	maxExp  int
	maxSize int
	buckets []sync.Pool
}

// NewBucketedBufferPool creates a pool for the size classes minSize..maxSize.
// Both bounds MUST be powers of two and maxSize must be larger than minSize.
func NewBucketedBufferPool(minSize, maxSize int) *BucketedBufferPool {
	if !isPowerOfTwo(minSize) {
		panic(fmt.Sprintf("minSize %d must be a power of two", minSize))
	}
	if !isPowerOfTwo(maxSize) {
		panic(fmt.Sprintf("maxSize %d must be a power of two", maxSize))
	}
	if maxSize <= minSize {
		panic("maxSize must be greater than minSize")
	}

	minExp := bits.TrailingZeros(uint(minSize))
	maxExp := bits.TrailingZeros(uint(maxSize))

	bp := &BucketedBufferPool{
		minExp:  minExp,
		maxExp:  maxExp,
		maxSize: maxSize,
		buckets: make([]sync.Pool, maxExp+1),
	}
	for i := minExp; i <= maxExp; i++ {
		size := 1 << i
		bp.buckets[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}
	return bp
}

// Get returns a buffer with len == size. Sizes above the largest class are
// allocated fresh and will be dropped again by Put.
func (bp *BucketedBufferPool) Get(size int) *[]byte {
	if size <= 0 {
		b := make([]byte, 0)
		return &b
	}
	if size > bp.maxSize {
		b := make([]byte, size)
		return &b
	}

	// Smallest exponent whose class fits size, e.g. 700 -> 10 (1024).
	idx := bits.Len(uint(size - 1))
	if idx < bp.minExp {
		idx = bp.minExp
	}

	bufPtr := bp.buckets[idx].Get().(*[]byte)
	*bufPtr = (*bufPtr)[:size]
	return bufPtr
}

// Put hands a buffer back. Buffers whose capacity is not one of our classes are ignored.
func (bp *BucketedBufferPool) Put(bufPtr *[]byte) {
	if bufPtr == nil {
		return
	}
	capacity := cap(*bufPtr)
	if capacity < 1<<bp.minExp || capacity > bp.maxSize || !isPowerOfTwo(capacity) {
		return
	}
	*bufPtr = (*bufPtr)[:capacity]
	bp.buckets[bits.TrailingZeros(uint(capacity))].Put(bufPtr)
}

// FixedBufferPool hands out buffers of a single size.
type FixedBufferPool struct {
	size int
	pool sync.Pool
}

// NewFixedBufferPool creates a pool of size-byte buffers. size must be positive.
func NewFixedBufferPool(size int) *FixedBufferPool {
	if size <= 0 {
		panic(fmt.Sprintf("buffer size %d must be positive", size))
	}
	fp := &FixedBufferPool{size: size}
	fp.pool.New = func() any {
		b := make([]byte, size)
		return &b
	}
	return fp
}

func (fp *FixedBufferPool) Get() *[]byte {
	return fp.pool.Get().(*[]byte)
}

func (fp *FixedBufferPool) Put(b *[]byte) {
	if b == nil || cap(*b) != fp.size {
		return
	}
	*b = (*b)[:fp.size]
	fp.pool.Put(b)
}
