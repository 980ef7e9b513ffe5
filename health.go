// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/audiocore/internal/lfq"
	"code.hybscloud.com/spin"
)

// HealthState is one of Healthy, Degraded, or Failed. Transitions are
// monotone under a fault burst and reset to Healthy after a clean
// callback.
type HealthState int

const (
	HealthHealthy HealthState = iota
	HealthDegraded
	HealthFailed
)

func (s HealthState) String() string {
	switch s {
	case HealthHealthy:
		return "healthy"
	case HealthDegraded:
		return "degraded"
	case HealthFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	degradedThreshold = 3
	failedThreshold   = 10
)

// FallbackPolicy governs what happens when a stream's health reaches
// Failed.
type FallbackPolicy struct {
	// Mode selects the policy: Manual reports and stops, AutoOnError
	// walks the standard preference chain, AutoWithPreference tries
	// Preferred first.
	Mode      FallbackMode
	Preferred BackendMode
}

type FallbackMode int

const (
	FallbackManual FallbackMode = iota
	FallbackAutoOnError
	FallbackAutoWithPreference
)

// HealthTransition is one health-state change event, published on an
// SPMC queue; each event is delivered to exactly one of the observers
// draining that queue.
type HealthTransition struct {
	From, To HealthState
}

// HealthMonitor tracks consecutive-underrun-driven health for one
// stream and publishes transitions to observers (telemetry reporter,
// logging sink, …) without any of them blocking the control thread that
// drives the callback's success/failure reports. Observers share one
// SPMC queue, so each transition reaches only one of them.
type HealthMonitor struct {
	mu                 sync.Mutex
	state              HealthState
	consecutiveUnderruns int

	policy FallbackPolicy

	transitions *lfq.SPMC[HealthTransition]

	transitioning atomic.Bool
}

// NewHealthMonitor constructs a monitor starting Healthy, broadcasting
// transitions on a queue of the given capacity.
func NewHealthMonitor(policy FallbackPolicy, queueCapacity int) *HealthMonitor {
	return &HealthMonitor{
		state:       HealthHealthy,
		policy:      policy,
		transitions: lfq.NewSPMC[HealthTransition](queueCapacity),
	}
}

// State returns the current health state.
func (h *HealthMonitor) State() HealthState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Subscribe returns the shared transitions queue for an observer to
// drain. Observers compete for events on it: a transition dequeued by
// one observer is not seen by the others.
func (h *HealthMonitor) Subscribe() *lfq.SPMC[HealthTransition] {
	return h.transitions
}

// LogTransitions starts a goroutine that drains this monitor's
// transitions queue and logs each one on the control thread, until
// stop is closed. It is one observer among possibly several sharing
// the same SPMC queue (see Subscribe).
func (h *HealthMonitor) LogTransitions(streamID uint64, stop <-chan struct{}) {
	go func() {
		sw := spin.Wait{}
		for {
			select {
			case <-stop:
				return
			default:
			}
			t, err := h.transitions.Dequeue()
			if err != nil {
				sw.Once()
				continue
			}
			sw.Reset()
			logHealthTransition(streamID, t)
		}
	}()
}

// ReportUnderrun is called by the audio callback's control-side
// bookkeeping after a callback observed insufficient ring data.
func (h *HealthMonitor) ReportUnderrun() {
	h.mu.Lock()
	h.consecutiveUnderruns++
	next := h.state
	switch {
	case h.consecutiveUnderruns >= failedThreshold:
		next = HealthFailed
	case h.consecutiveUnderruns >= degradedThreshold:
		if h.state == HealthHealthy {
			next = HealthDegraded
		}
	}
	prev := h.state
	h.state = next
	h.mu.Unlock()

	if next != prev {
		h.broadcast(HealthTransition{From: prev, To: next})
	}
}

// ReportSuccess is called after a callback with a full read; it resets
// the consecutive-underrun counter and returns state to Healthy.
func (h *HealthMonitor) ReportSuccess() {
	h.mu.Lock()
	h.consecutiveUnderruns = 0
	prev := h.state
	h.state = HealthHealthy
	h.mu.Unlock()

	if prev != HealthHealthy {
		h.broadcast(HealthTransition{From: prev, To: HealthHealthy})
	}
}

func (h *HealthMonitor) broadcast(t HealthTransition) {
	// Best-effort: a full queue means a slow observer misses this
	// transition, which is acceptable — health state is still
	// queryable synchronously via State().
	_ = h.transitions.Enqueue(&t)
}

// FallbackChain is the standard preference order consulted when a
// stream reaches Failed under AutoOnError.
var FallbackChain = []BackendMode{
	ModeExclusiveAlternate,
	ModeNativeOnly,
	ModeHybridNative,
	ModeGraphOnly,
}

// NextFallbackMode resolves which mode to try next given the policy,
// the platform's support set (a mode not in supported is skipped), and
// the mode currently active. Under AutoWithPreference, Preferred is
// tried first when it is supported and is not current. Otherwise,
// candidates at or before current's position in the chain are skipped:
// a failing stream must move strictly toward the degraded end of
// FallbackChain, never sideways or back toward a mode it just failed out
// of.
func NextFallbackMode(policy FallbackPolicy, supported map[BackendMode]bool, current BackendMode) (BackendMode, bool) {
	if policy.Mode == FallbackAutoWithPreference && policy.Preferred != current && supported[policy.Preferred] {
		return policy.Preferred, true
	}

	// current not found in the chain (e.g. a platform-specific mode
	// outside FallbackChain): start from the first entry.
	start := 0
	for i, m := range FallbackChain {
		if m == current {
			start = i + 1
			break
		}
	}
	for _, m := range FallbackChain[start:] {
		if supported[m] {
			return m, true
		}
	}
	return 0, false
}
