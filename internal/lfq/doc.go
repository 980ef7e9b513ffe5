// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lfq provides the bounded lock-free FIFO queues that back the
// cross-goroutine handoffs in audiocore: the background loudness tap
// (SPSC), multi-stream telemetry aggregation (MPSC), and single-writer
// health-event fan-out to observers (SPMC).
//
// These are not the real-time sample path: the SPSC ring used for the
// hardware callback handoff lives in the parent package (ring.go) with
// its own bulk copy-based contract, because the hot path needs "write N
// samples, read N samples" rather than one-item-at-a-time semantics.
// This package covers the auxiliary queues that still need to be
// allocation-free and non-blocking, but carry whole values.
//
// # Basic Usage
//
//	q := lfq.NewSPSC[Snapshot](64)
//
//	// Producer (e.g. the real-time path handing off a pooled block)
//	snap := Snapshot{...}
//	if err := q.Enqueue(&snap); lfq.IsWouldBlock(err) {
//	    // consumer hasn't caught up; drop and move on
//	}
//
//	// Consumer
//	snap, err := q.Dequeue()
//	if err == nil {
//	    use(snap)
//	}
//
// # Queue Variants
//
//   - SPSC: one producer, one consumer. Used for the real-time-adjacent
//     handoff of pooled post-EQ blocks to the background loudness
//     worker.
//   - MPSC: many producers (one per live stream), one consumer (the
//     process-wide telemetry reporter draining per-stream snapshots).
//   - SPMC: one producer (the control thread announcing a health state
//     transition), many consumers (independent observers: the telemetry
//     reporter, a logging sink, anything else watching stream health).
//
// # Error Handling
//
// Queues return [ErrWouldBlock] when they cannot proceed (full on
// enqueue, empty on dequeue). It is sourced from [code.hybscloud.com/iox]
// for ecosystem consistency and is a control-flow signal, not a failure.
//
// # Race Detection
//
// Go's race detector tracks explicit synchronization primitives but not
// the happens-before relationships established by acquire/release
// atomics on separate variables, so it can false-positive on these
// algorithms. The RaceEnabled constant reports whether the detector is
// active; the concurrent tests in this package do not consult it and
// carry no race build tag.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for the bounded
// spin/backoff used by the FAA-based algorithms (MPSC, SPMC).
package lfq
