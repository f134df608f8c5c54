// Package pool provides generic object pooling for the conversion
// pipeline. Row buffers and per-row value slices are recycled through
// sync.Pool-backed typed pools to keep the push path allocation-free.
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with additional features like statistics tracking
// and automatic reset functionality. The pool is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	new   func() T
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		hits      int64
	}
}

// New creates a new typed pool with custom allocation and reset functions.
// The reset function, if non-nil, is called before returning an object to
// the pool.
func New[T any](new func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{
		new:   new,
		reset: reset,
	}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return new()
	}
	return p
}

// Get retrieves an object from the pool, creating one if the pool is
// empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	obj := p.pool.Get().(T)
	atomic.AddInt64(&p.stats.hits, 1)
	return obj
}

// Put returns an object to the pool for reuse.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns allocation count, objects in use and cache hits.
func (p *Pool[T]) Stats() (allocated, inUse, hits int64) {
	return atomic.LoadInt64(&p.stats.allocated),
		atomic.LoadInt64(&p.stats.inUse),
		atomic.LoadInt64(&p.stats.hits)
}

// bytePool recycles row-width byte buffers.
var bytePool = New(
	func() []byte { return make([]byte, 0, 256) },
	nil,
)

// GetByteSlice returns a zero-length byte slice with pooled backing
// storage, grown to at least size capacity.
func GetByteSlice(size int) []byte {
	b := bytePool.Get()
	if cap(b) < size {
		b = make([]byte, 0, size)
	}
	return b[:size]
}

// PutByteSlice returns a byte slice to the pool.
func PutByteSlice(b []byte) {
	bytePool.Put(b[:0])
}
