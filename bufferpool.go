// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import (
	"sync"
	"sync/atomic"
)

// BufferPool is a bounded pool of AlignedBuffer, protected by a single
// internal lock. The audio callback thread never calls Acquire in
// steady state — it holds a pre-acquired working buffer for the
// stream's lifetime — so contention on this lock only ever involves the
// producer and control threads.
type BufferPool struct {
	mu             sync.Mutex
	free           []*AlignedBuffer
	poolCapacity   int
	bufferSize     int
	allocationsSaved atomic.Uint64
	cacheHits        atomic.Uint64
}

// NewBufferPool pre-allocates poolCapacity buffers of bufferSize
// samples each.
func NewBufferPool(poolCapacity, bufferSize int) *BufferPool {
	if poolCapacity <= 0 || bufferSize <= 0 {
		panic("audiocore: BufferPool capacity and buffer size must be > 0")
	}
	p := &BufferPool{
		free:         make([]*AlignedBuffer, 0, poolCapacity),
		poolCapacity: poolCapacity,
		bufferSize:   bufferSize,
	}
	for i := 0; i < poolCapacity; i++ {
		p.free = append(p.free, NewAlignedBuffer(bufferSize))
	}
	return p
}

// Acquire returns a cleared buffer from the pool. When the pool is
// empty it allocates a fresh one — a rare path that does not advance
// CacheHits and is logged as pool growth (Acquire is for the
// producer/control level, never the audio thread).
func (p *BufferPool) Acquire() *AlignedBuffer {
	p.mu.Lock()
	n := len(p.free)
	if n == 0 {
		p.mu.Unlock()
		logPoolGrowth(p.poolCapacity, 0)
		return NewAlignedBuffer(p.bufferSize)
	}
	buf := p.free[n-1]
	p.free = p.free[:n-1]
	p.mu.Unlock()

	buf.reset()
	p.cacheHits.Add(1)
	return buf
}

// Release returns buf to the pool iff the pool has spare capacity and
// buf was sized for this pool. Otherwise buf is simply dropped (left
// for the garbage collector) rather than grown into the pool.
func (p *BufferPool) Release(buf *AlignedBuffer) {
	if buf == nil || buf.Cap() != p.bufferSize {
		return
	}
	buf.Release()

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) >= p.poolCapacity {
		return
	}
	p.free = append(p.free, buf)
	p.allocationsSaved.Add(1)
}

// Size returns the current number of buffers sitting in the pool.
func (p *BufferPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// AllocationsSaved returns the number of Release calls that returned
// their buffer to the pool, i.e. the number of future Acquire calls
// that will be satisfied without a fresh allocation.
func (p *BufferPool) AllocationsSaved() uint64 {
	return p.allocationsSaved.Load()
}

// CacheHits returns the number of Acquire calls satisfied from the
// pre-allocated pool rather than a fresh allocation.
func (p *BufferPool) CacheHits() uint64 {
	return p.cacheHits.Load()
}
