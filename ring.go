// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import "code.hybscloud.com/atomix"

// Ring is a wait-free, allocation-free single-producer single-consumer
// float32 queue of power-of-two capacity. Unlike internal/lfq's SPSC,
// which hands off one value per Enqueue/Dequeue call, Ring is a bulk
// byte-stream-style queue: Write/Read move up to N samples per call,
// mirroring the Lamport cached-index technique but over a contiguous
// []float32 rather than a generic slot array, since the audio callback
// needs "drain whatever is available" rather than one-item handoff.
//
// There are no fallible operations: a short write signals backpressure,
// a short read signals underrun, and the reader must silence-fill
// anything it could not read. Capacity rounds up to the next power of
// two.
type Ring struct {
	_          pad64
	writePos   atomix.Uint64
	_          pad64
	readPos    atomix.Uint64
	_          pad64
	cachedRead uint64 // writer's cached view of readPos
	cachedWrite uint64 // reader's cached view of writePos
	_          pad64
	buf        []float32
	mask       uint64
}

type pad64 [64]byte

// NewRing creates a ring buffer with capacity rounded up to the next
// power of two.
func NewRing(capacity int) *Ring {
	if capacity < 2 {
		panic("audiocore: ring capacity must be >= 2")
	}
	n := uint64(roundUpPow2(capacity))
	return &Ring{
		buf:  make([]float32, n),
		mask: n - 1,
	}
}

// Cap returns the ring's physical capacity.
func (r *Ring) Cap() int {
	return int(r.mask + 1)
}

// Occupied returns write_pos - read_pos, the number of samples
// currently available to read. Safe to call from either thread; the
// result may be stale by the time it is used, same as any lock-free
// depth query.
func (r *Ring) Occupied() int {
	w := r.writePos.LoadAcquire()
	rp := r.readPos.LoadAcquire()
	return int(w - rp)
}

// Write copies up to len(data) samples into the ring, writer-thread
// only. Returns the number actually written: min(len(data),
// available_space). A short write is normal backpressure, not an
// error.
func (r *Ring) Write(data []float32) int {
	if len(data) == 0 {
		return 0
	}
	w := r.writePos.LoadRelaxed()
	free := r.Cap() - int(w-r.cachedRead)
	if free <= 0 {
		r.cachedRead = r.readPos.LoadAcquire()
		free = r.Cap() - int(w-r.cachedRead)
		if free <= 0 {
			return 0
		}
	}

	n := len(data)
	if n > free {
		n = free
	}

	start := w & r.mask
	first := uint64(r.Cap()) - start
	if uint64(n) <= first {
		copy(r.buf[start:start+uint64(n)], data[:n])
	} else {
		copy(r.buf[start:], data[:first])
		copy(r.buf[:uint64(n)-first], data[first:n])
	}

	r.writePos.StoreRelease(w + uint64(n))
	return n
}

// Read copies up to len(out) samples from the ring into out,
// reader-thread only. Returns the number actually read: min(len(out),
// available_data). The caller is responsible for zero-filling any
// remainder of out beyond the returned count — Read itself never
// touches bytes it did not supply, so the caller can distinguish "short
// read, I must silence-fill" from "full read".
func (r *Ring) Read(out []float32) int {
	if len(out) == 0 {
		return 0
	}
	rp := r.readPos.LoadRelaxed()
	avail := int(r.cachedWrite - rp)
	if avail <= 0 {
		r.cachedWrite = r.writePos.LoadAcquire()
		avail = int(r.cachedWrite - rp)
		if avail <= 0 {
			return 0
		}
	}

	n := len(out)
	if n > avail {
		n = avail
	}

	start := rp & r.mask
	first := uint64(r.Cap()) - start
	if uint64(n) <= first {
		copy(out[:n], r.buf[start:start+uint64(n)])
	} else {
		copy(out[:first], r.buf[start:])
		copy(out[first:n], r.buf[:uint64(n)-first])
	}

	r.readPos.StoreRelease(rp + uint64(n))
	return n
}

// ReadFill behaves like Read but zero-fills any unread tail of out,
// producing silence instead of leaking stale samples — the contract
// the audio callback relies on for short reads at an underrun.
func (r *Ring) ReadFill(out []float32) int {
	n := r.Read(out)
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	return n
}

// roundUpPow2 rounds n up to the next power of 2.
func roundUpPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
