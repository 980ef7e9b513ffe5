// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import (
	"sort"
	"sync"
	"sync/atomic"

	"code.hybscloud.com/audiocore/internal/lfq"
)

// defaultTelemetryHistory is the default bounded ring length of
// retained callback measurements.
const defaultTelemetryHistory = 1000

// CallbackMeasurement is one audio callback's timing sample.
type CallbackMeasurement struct {
	StreamID     uint64
	LatencyNanos int64
	Samples      int
	Xrun         bool
}

// StreamTelemetry records per-callback latency for a single stream
// under a short lock (never held by the audio callback itself for
// longer than an append) and derives percentiles and xrun counts on
// demand.
type StreamTelemetry struct {
	mu      sync.Mutex
	history []int64 // latency nanos, bounded ring
	cap     int
	next    int
	filled  bool

	xrunCount   atomic.Uint64
	sampleRate  float64
	quantumSize int
}

// NewStreamTelemetry constructs a recorder retaining up to
// historyCapacity measurements (defaultTelemetryHistory if <= 0).
func NewStreamTelemetry(sampleRate float64, quantumSize, historyCapacity int) *StreamTelemetry {
	if historyCapacity <= 0 {
		historyCapacity = defaultTelemetryHistory
	}
	return &StreamTelemetry{
		history:     make([]int64, historyCapacity),
		cap:         historyCapacity,
		sampleRate:  sampleRate,
		quantumSize: quantumSize,
	}
}

// Record appends one callback's elapsed nanoseconds. Lock-free from the
// audio thread's perspective would require a dedicated SPSC structure;
// here a short lock is used instead, per spec §4.10's explicit
// allowance for "atomic counters or bounded-history under a short
// lock" as long as the callback never blocks on contention — the
// critical section is a fixed-size array write, not an allocation.
func (t *StreamTelemetry) Record(elapsedNanos int64, xrun bool) {
	t.mu.Lock()
	t.history[t.next] = elapsedNanos
	t.next = (t.next + 1) % t.cap
	if t.next == 0 {
		t.filled = true
	}
	t.mu.Unlock()

	if xrun {
		t.xrunCount.Add(1)
	}
}

// XrunCount returns the total number of recorded xruns.
func (t *StreamTelemetry) XrunCount() uint64 {
	return t.xrunCount.Load()
}

// snapshot returns a copy of the currently retained latency history.
func (t *StreamTelemetry) snapshot() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.next
	if t.filled {
		n = t.cap
	}
	out := make([]int64, n)
	copy(out, t.history[:n])
	return out
}

// Average returns the mean callback latency in nanoseconds over the
// retained history.
func (t *StreamTelemetry) Average() float64 {
	h := t.snapshot()
	if len(h) == 0 {
		return 0
	}
	var sum int64
	for _, v := range h {
		sum += v
	}
	return float64(sum) / float64(len(h))
}

// Percentile returns the p-th percentile (0 < p < 100) of retained
// latency history in nanoseconds.
func (t *StreamTelemetry) Percentile(p float64) float64 {
	h := t.snapshot()
	if len(h) == 0 {
		return 0
	}
	sort.Slice(h, func(i, j int) bool { return h[i] < h[j] })
	idx := int(p / 100 * float64(len(h)))
	if idx >= len(h) {
		idx = len(h) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return float64(h[idx])
}

// P50, P95, P99 are convenience wrappers over Percentile.
func (t *StreamTelemetry) P50() float64 { return t.Percentile(50) }
func (t *StreamTelemetry) P95() float64 { return t.Percentile(95) }
func (t *StreamTelemetry) P99() float64 { return t.Percentile(99) }

// AverageCPUUtilization returns avg_ns / (quantum_size / sample_rate *
// 1e9), the fraction of the callback's real-time budget consumed on
// average.
func (t *StreamTelemetry) AverageCPUUtilization() float64 {
	if t.sampleRate <= 0 || t.quantumSize <= 0 {
		return 0
	}
	budgetNanos := float64(t.quantumSize) / t.sampleRate * 1e9
	if budgetNanos <= 0 {
		return 0
	}
	return t.Average() / budgetNanos
}

// TelemetryReporter aggregates CallbackMeasurement events across every
// live stream: each stream's worker enqueues without coordinating with
// the others, and this single reporter goroutine drains and routes
// them to the right StreamTelemetry.
type TelemetryReporter struct {
	mu      sync.Mutex
	streams map[uint64]*StreamTelemetry

	inbox *lfq.MPSC[CallbackMeasurement]

	sampleRate  float64
	quantumSize int
	history     int
}

// NewTelemetryReporter constructs a reporter with an MPSC inbox of the
// given capacity.
func NewTelemetryReporter(sampleRate float64, quantumSize, historyCapacity, inboxCapacity int) *TelemetryReporter {
	return &TelemetryReporter{
		streams:     make(map[uint64]*StreamTelemetry),
		inbox:       lfq.NewMPSC[CallbackMeasurement](inboxCapacity),
		sampleRate:  sampleRate,
		quantumSize: quantumSize,
		history:     historyCapacity,
	}
}

// Inbox returns the shared MPSC queue every stream worker enqueues
// CallbackMeasurement values into.
func (r *TelemetryReporter) Inbox() *lfq.MPSC[CallbackMeasurement] {
	return r.inbox
}

// Drain dequeues every currently-available measurement and files it
// under its stream's StreamTelemetry, returning the count processed.
// Intended to be called periodically by the reporter goroutine, not
// from any realtime thread.
func (r *TelemetryReporter) Drain() int {
	n := 0
	for {
		m, err := r.inbox.Dequeue()
		if err != nil {
			break
		}
		r.recordFor(m)
		n++
	}
	return n
}

func (r *TelemetryReporter) recordFor(m CallbackMeasurement) {
	r.mu.Lock()
	st, ok := r.streams[m.StreamID]
	if !ok {
		st = NewStreamTelemetry(r.sampleRate, r.quantumSize, r.history)
		r.streams[m.StreamID] = st
	}
	r.mu.Unlock()

	st.Record(m.LatencyNanos, m.Xrun)
}

// Stream returns the StreamTelemetry for streamID, or nil if nothing
// has been recorded for it yet.
func (r *TelemetryReporter) Stream(streamID uint64) *StreamTelemetry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streams[streamID]
}
