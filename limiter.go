// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import (
	"math"
	"sync/atomic"
)

// Default limiter thresholds, per spec §4.7.
const (
	defaultLookaheadSamples     = 2048
	defaultTruePeakCeiling      = 0.99 // ≈ -0.087 dBTP
	defaultHearingProtection    = 0.8  // linear RMS threshold
	defaultHysteresisWindow     = 512  // samples the RMS must stay over threshold
	truePeakOversample          = 4
	oneePoleSmootherCoefficient = 0.01 // per-sample approach rate toward target gain
)

// Limiter consumes a post-EQ block and guarantees the output never
// exceeds the configured true-peak ceiling. It first checks the
// emergency stop, then applies (in order) lookahead peak limiting, a
// smoothed gain transition, true-peak correction, and a
// hearing-protection gate.
// All thresholds are clamped at construction.
type Limiter struct {
	channels int

	ceiling                   float64
	truePeakCeiling           float64
	hearingProtectionThresh   float64
	lookaheadSamples          int
	hysteresisWindow          int

	delay        []ringDelay
	currentGain  []float64
	hpActive     []bool
	hpAboveCount []int

	emergencyStop atomic.Bool
}

// ringDelay is a small fixed-length delay line used for the lookahead
// window, one per channel.
type ringDelay struct {
	buf []float32
	pos int
}

func newRingDelay(n int) ringDelay {
	return ringDelay{buf: make([]float32, n)}
}

func (d *ringDelay) push(x float32) float32 {
	old := d.buf[d.pos]
	d.buf[d.pos] = x
	d.pos = (d.pos + 1) % len(d.buf)
	return old
}

// NewLimiter constructs a limiter for the given channel count with
// spec-default thresholds. Use the Set* methods to override before use.
func NewLimiter(channels int) *Limiter {
	if channels <= 0 {
		panic("audiocore: NewLimiter requires channels > 0")
	}
	l := &Limiter{
		channels:                channels,
		ceiling:                 1.0,
		truePeakCeiling:         defaultTruePeakCeiling,
		hearingProtectionThresh: defaultHearingProtection,
		lookaheadSamples:        defaultLookaheadSamples,
		hysteresisWindow:        defaultHysteresisWindow,
		currentGain:             make([]float64, channels),
		hpActive:                make([]bool, channels),
		hpAboveCount:            make([]int, channels),
	}
	for i := range l.currentGain {
		l.currentGain[i] = 1.0
	}
	l.delay = make([]ringDelay, channels)
	for i := range l.delay {
		l.delay[i] = newRingDelay(l.lookaheadSamples)
	}
	return l
}

// SetCeiling clamps and sets the sample-peak ceiling.
func (l *Limiter) SetCeiling(ceiling float64) {
	l.ceiling = clampPositive(ceiling)
}

// SetTruePeakCeiling clamps and sets the true-peak ceiling (linear).
func (l *Limiter) SetTruePeakCeiling(ceiling float64) {
	l.truePeakCeiling = clampPositive(ceiling)
}

// SetHearingProtectionThreshold clamps and sets the RMS threshold above
// which the hearing-protection gate engages.
func (l *Limiter) SetHearingProtectionThreshold(threshold float64) {
	l.hearingProtectionThresh = clampPositive(threshold)
}

func clampPositive(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// EmergencyStop latches (or clears) this Limiter's emergency-stop flag;
// other Limiter instances are not affected. Safe to call from any
// thread; the audio thread observes it with a single atomic load per
// block.
func (l *Limiter) EmergencyStop(active bool) {
	l.emergencyStop.Store(active)
}

// EmergencyStopActive reports the current emergency-stop state.
func (l *Limiter) EmergencyStopActive() bool {
	return l.emergencyStop.Load()
}

// Process limits one block per channel in place (output may alias
// input). If the emergency stop is active, output is zeroed and
// ErrEmergencyStopActive is returned; the caller should treat the
// stream as stopped until the flag clears.
func (l *Limiter) Process(input, output [][]float32) error {
	if l.emergencyStop.Load() {
		for ch := range output {
			for i := range output[ch] {
				output[ch][i] = 0
			}
		}
		return ErrEmergencyStopActive
	}

	n := len(input)
	if n > l.channels {
		n = l.channels
	}
	for ch := 0; ch < n; ch++ {
		l.processChannel(ch, input[ch], output[ch])
	}
	return nil
}

func (l *Limiter) processChannel(ch int, input, output []float32) {
	nSamples := len(input)
	if len(output) < nSamples {
		nSamples = len(output)
	}

	delay := &l.delay[ch]

	for i := 0; i < nSamples; i++ {
		x := input[i]

		// Lookahead: the window's peak must account for the sample
		// about to enter the delay line as well as what's already in it.
		windowPeak := float64(absF32(x))
		for _, s := range delay.buf {
			if p := float64(absF32(s)); p > windowPeak {
				windowPeak = p
			}
		}

		target := 1.0
		if windowPeak > l.ceiling && windowPeak > 0 {
			target = l.ceiling / windowPeak
		}

		// One-pole smoother toward target gain, avoiding clicks.
		g := l.currentGain[ch]
		g += (target - g) * oneePoleSmootherCoefficient
		l.currentGain[ch] = g

		delayed := delay.push(x)
		output[i] = float32(float64(delayed) * g)
	}

	l.applyTruePeak(ch, output[:nSamples])
	l.applyHearingProtection(ch, output[:nSamples])
}

// applyTruePeak 4x-upsamples (linear interpolation) the block to
// estimate inter-sample peaks; if the estimate exceeds the configured
// true-peak ceiling, the whole block is uniformly scaled down.
func (l *Limiter) applyTruePeak(ch int, block []float32) {
	if len(block) == 0 {
		return
	}
	peak := estimateTruePeak(block)
	if peak <= l.truePeakCeiling || peak == 0 {
		return
	}
	scale := float32(l.truePeakCeiling / peak)
	for i := range block {
		block[i] *= scale
	}
}

// estimateTruePeak linearly interpolates truePeakOversample points
// between each pair of samples and returns the maximum absolute value
// seen, a cheap stand-in for a full polyphase reconstruction filter.
func estimateTruePeak(block []float32) float64 {
	peak := float64(absF32(block[0]))
	for i := 0; i+1 < len(block); i++ {
		a, b := float64(block[i]), float64(block[i+1])
		for k := 1; k < truePeakOversample; k++ {
			t := float64(k) / truePeakOversample
			v := a + (b-a)*t
			if av := math.Abs(v); av > peak {
				peak = av
			}
		}
		if ab := math.Abs(b); ab > peak {
			peak = ab
		}
	}
	return peak
}

// applyHearingProtection compares each sample's magnitude (not a
// windowed RMS) with the threshold and applies an additional -6 dB once
// the magnitude has exceeded it on hysteresisWindow consecutive samples,
// releasing at the first sample at or below it.
func (l *Limiter) applyHearingProtection(ch int, block []float32) {
	const minus6dB = 0.5011872336272722 // 10^(-6/20)

	for i, s := range block {
		v := float64(s)
		// Cheap running RMS proxy: instantaneous magnitude against the
		// block's hysteresis counter, rather than a separate windowed
		// accumulator — adequate because hearing protection only needs
		// a sustained-over-threshold signal, not precise RMS timing.
		if math.Abs(v) > l.hearingProtectionThresh {
			l.hpAboveCount[ch]++
		} else {
			l.hpAboveCount[ch] = 0
			l.hpActive[ch] = false
		}

		if l.hpAboveCount[ch] >= l.hysteresisWindow {
			l.hpActive[ch] = true
		}

		if l.hpActive[ch] {
			block[i] = float32(v * minus6dB)
		}
	}
}

func absF32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
