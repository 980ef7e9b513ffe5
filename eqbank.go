// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

// EQBand is one peaking band of an EQBank: its tuning, derived
// coefficients, and per-channel filter state.
type EQBand struct {
	FrequencyHz float64
	Q           float64
	GainDB      float64

	coeffs BiquadCoefficients
	// state is one BiquadState per channel; channels never share state.
	state []BiquadState
}

// SetParams recomputes the band's coefficients from the new tuning at
// the given sample rate. Recomputing coefficients never zeroes input or
// output state — the caller must call Reset explicitly if that is
// wanted, since a running EQ should not click every time a knob moves.
func (b *EQBand) SetParams(sampleRate, freqHz, q, gainDB float64) error {
	c, err := PeakingCoefficients(sampleRate, freqHz, q, gainDB)
	if err != nil {
		return err
	}
	b.FrequencyHz, b.Q, b.GainDB = freqHz, q, gainDB
	b.coeffs = c
	return nil
}

// Reset zeroes every channel's delay line, leaving coefficients intact.
func (b *EQBand) Reset() {
	for i := range b.state {
		b.state[i].Reset()
	}
}

// EQBank is a fixed list of cascaded peaking bands applied to a
// multichannel block. Bands are always processed serially in cascade —
// one band's output feeds the next band's input for the same channel —
// per §4.4's mandated structure. An implementation that instead fans
// bands out across goroutines and reduces their outputs is simply
// wrong: the cascade is sequential by construction, not a set of
// independent contributions to combine.
//
// What the bank does fan out is channels: because each channel carries
// independent BiquadState, a single band's kernel processes up to
// eqLanes channels per inner-loop iteration at a fixed sample index —
// a short loop over lanes the compiler may vectorize —
// rather than across successive samples within one channel, where the
// IIR recursion makes lane-parallelism lossy (sample n+1 depends on
// sample n's not-yet-computed output). This is the only lossless form
// of "SIMD fan-out" for a cascaded recursive filter.
type EQBank struct {
	sampleRate float64
	channels   int
	bands      []*EQBand
}

// eqLanes is the channel-batch width used by the vectorizable inner
// loop. 4 covers the common stereo/quad/5.1-front cases without
// requiring channels to be a multiple of it — the remainder is handled
// scalar, one channel at a time.
const eqLanes = 4

// NewEQBank constructs a bank with n unity-gain bands (0 dB, Q=1, each
// centred at 1 kHz) for the given channel count and sample rate.
// Callers retune each band with SetParams before use.
func NewEQBank(sampleRate float64, channels, bands int) *EQBank {
	if sampleRate <= 0 || channels <= 0 || bands <= 0 {
		panic("audiocore: NewEQBank requires positive sampleRate, channels, bands")
	}
	bk := &EQBank{sampleRate: sampleRate, channels: channels}
	for i := 0; i < bands; i++ {
		b := &EQBand{state: make([]BiquadState, channels)}
		_ = b.SetParams(sampleRate, 1000, 1.0, 0.0)
		bk.bands = append(bk.bands, b)
	}
	return bk
}

// Bands returns the bank's bands for tuning via SetParams.
func (bk *EQBank) Bands() []*EQBand {
	return bk.bands
}

// Process applies every band in cascade to each channel's block.
// input/output are indexed [channel][sample]; output may alias input.
// Block-by-block input/output identity holds as long as the same
// EQBank instance (and hence the same per-channel state) is reused
// across calls.
func (bk *EQBank) Process(input, output [][]float32) {
	n := len(input)
	if n > bk.channels {
		n = bk.channels
	}
	if len(output) < n {
		n = len(output)
	}

	nSamples := blockLen(input[:n], output[:n])

	// First band reads from the caller's input; every later band reads
	// the previous band's output, in place.
	cur := make([][]float32, n)
	copy(cur, input[:n])

	for _, band := range bk.bands {
		ch := 0
		for ; ch+eqLanes <= n; ch += eqLanes {
			processBandLanes(band.coeffs, band.state[ch:ch+eqLanes], cur[ch:ch+eqLanes], output[ch:ch+eqLanes], nSamples)
		}
		for ; ch < n; ch++ {
			Process(band.coeffs, &band.state[ch], cur[ch][:nSamples], output[ch][:nSamples])
		}
		for i := 0; i < n; i++ {
			cur[i] = output[i]
		}
	}
}

// processBandLanes runs one band's Direct Form I recursion across a
// batch of independent channel lanes. The outer loop over sample index
// is inherently sequential (IIR recursion); the inner loop over lanes
// is not, since each lane owns a disjoint BiquadState — that inner loop
// is what the compiler can widen to SIMD width.
func processBandLanes(c BiquadCoefficients, states []BiquadState, in, out [][]float32, nSamples int) {
	lanes := len(states)
	for n := 0; n < nSamples; n++ {
		for l := 0; l < lanes; l++ {
			x0 := float64(in[l][n])
			y0 := processSample(c, &states[l], x0)
			out[l][n] = float32(flushDenormal(y0))
		}
	}
}

// blockLen returns the largest sample count safe to index across every
// channel slice in both in and out.
func blockLen(in, out [][]float32) int {
	n := -1
	for _, s := range in {
		if n < 0 || len(s) < n {
			n = len(s)
		}
	}
	for _, s := range out {
		if n < 0 || len(s) < n {
			n = len(s)
		}
	}
	if n < 0 {
		return 0
	}
	return n
}
