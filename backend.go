// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import "sync/atomic"

// BackendMode selects which of the hybrid backend's operating modes is
// active. Exactly one mode is active at a time.
type BackendMode int32

const (
	// ModeGraphOnly runs the routing graph with no hardware callback;
	// output-capable streams are no-ops, suitable for non-hardware
	// contexts (offline render, tests).
	ModeGraphOnly BackendMode = iota
	// ModeHybridNative drives the graph into the SPSC ring; a hardware
	// callback drains it.
	ModeHybridNative
	// ModeNativeOnly drives the hardware callback directly from the
	// graph, without the ring.
	ModeNativeOnly
	// ModeExclusiveAlternate is a platform-specific low-latency path,
	// present only where the platform supports it.
	ModeExclusiveAlternate
)

func (m BackendMode) String() string {
	switch m {
	case ModeGraphOnly:
		return "graph-only"
	case ModeHybridNative:
		return "hybrid-native"
	case ModeNativeOnly:
		return "native-only"
	case ModeExclusiveAlternate:
		return "exclusive-alternate"
	default:
		return "unknown"
	}
}

// HybridBackend bridges a Router-driven producer to a hardware
// callback consumer through the SPSC Ring in HybridNative mode, with
// automatic fallback along FallbackChain when the stream's health
// degrades. Mode transitions happen on the control thread; the audio
// callback only ever reads activeMode at a block boundary, never mid-
// block, via the atomic int32 below.
type HybridBackend struct {
	router    *Router
	ring      *Ring
	health    *HealthMonitor
	policy    FallbackPolicy
	supported map[BackendMode]bool

	activeMode    atomic.Int32
	transitioning atomic.Bool

	channels int
}

// NewHybridBackend constructs a backend in the given initial mode,
// wiring router and ring together for HybridNative operation.
func NewHybridBackend(router *Router, ring *Ring, channels int, policy FallbackPolicy, supported map[BackendMode]bool, initial BackendMode) *HybridBackend {
	b := &HybridBackend{
		router:    router,
		ring:      ring,
		health:    NewHealthMonitor(policy, 64),
		policy:    policy,
		supported: supported,
		channels:  channels,
	}
	b.activeMode.Store(int32(initial))
	return b
}

// Mode returns the currently active mode. Safe to call from the audio
// callback: it is exactly the atomic load the callback itself uses at
// block boundaries.
func (b *HybridBackend) Mode() BackendMode {
	return BackendMode(b.activeMode.Load())
}

// Health returns the backend's health monitor for the stream.
func (b *HybridBackend) Health() *HealthMonitor {
	return b.health
}

// RequestTransition changes the mode to target. It sets the
// transitioning flag, stores the new mode and clears the flag in one
// call; it does not wait for a concurrently-running callback to reach a
// block boundary. Callers should call this instead of writing
// activeMode directly.
func (b *HybridBackend) RequestTransition(target BackendMode) {
	prev := b.Mode()
	b.transitioning.Store(true)
	b.activeMode.Store(int32(target))
	b.transitioning.Store(false)
	if prev != target {
		logModeTransition(prev, target)
	}
}

// Transitioning reports whether a mode transition is currently in
// flight. The callback may use this to decide whether to process one
// more block under the old mode before checking Mode() again.
func (b *HybridBackend) Transitioning() bool {
	return b.transitioning.Load()
}

// ProduceBlock runs one Router.Process() tick. In ModeHybridNative the
// router's destinations should include a Ring-backed AudioDestination
// so mixed output lands in the ring for the hardware callback to
// drain; in ModeNativeOnly the router's destination should be the
// hardware callback's own adapter directly. ProduceBlock does not
// consult the active mode: in ModeGraphOnly it still calls Process, and
// any Ring-backed destination the router holds is still written.
func (b *HybridBackend) ProduceBlock() error {
	return b.router.Process()
}

// ConsumeCallback is invoked by the hardware callback (HybridNative
// mode) once per block to drain the ring into out, reporting underrun/
// success to the health monitor and triggering fallback on sustained
// failure. It never blocks: a short ring read is silence-filled.
func (b *HybridBackend) ConsumeCallback(out []float32) {
	n := b.ring.ReadFill(out)
	if n < len(out) {
		b.health.ReportUnderrun()
		if b.health.State() == HealthFailed && b.policy.Mode != FallbackManual {
			if next, ok := NextFallbackMode(b.policy, b.supported, b.Mode()); ok {
				b.RequestTransition(next)
			}
		}
		return
	}
	b.health.ReportSuccess()
}

// RingDestination adapts a Ring as an AudioDestination so Router can
// write mixed, limited output straight into the HybridNative ring.
type RingDestination struct {
	ring       *Ring
	sampleRate uint32
	channels   uint16
}

// NewRingDestination wraps ring as an AudioDestination.
func NewRingDestination(ring *Ring, sampleRate uint32, channels uint16) *RingDestination {
	return &RingDestination{ring: ring, sampleRate: sampleRate, channels: channels}
}

func (d *RingDestination) WriteSamples(samples []float32) error {
	if d.ring.Write(samples) < len(samples) {
		return ErrStreamFault
	}
	return nil
}

func (d *RingDestination) SampleRate() uint32 { return d.sampleRate }
func (d *RingDestination) Channels() uint16   { return d.channels }
func (d *RingDestination) Flush() error       { return nil }
