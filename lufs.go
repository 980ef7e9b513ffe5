// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import "math"

// silenceFloorLKFS is the integrated-loudness floor returned when a
// measurement contains no signal at all, or when mean_square collapses
// to (effectively) zero.
const silenceFloorLKFS = -70.0

// K-weighting filter constants per ITU-R BS.1770-4.
const (
	preFilterFreqHz = 1681.97
	preFilterQ      = 0.7071067811865476 // 1/sqrt(2)
	preFilterGainDB = 3.999843853973347

	rlbFilterFreqHz = 38.13547
	rlbFilterQ      = 0.5003270373253953
)

// gateBlockSeconds is the duration of one LUFS gating block.
const gateBlockSeconds = 0.4

// KWeightingFilter applies the two-stage BS.1770 K-weighting cascade
// (high-shelf pre-filter, then RLB high-pass) to one channel. State
// must be reset between independent measurements; changing sample rate
// requires rederiving coefficients via NewKWeightingFilter.
type KWeightingFilter struct {
	pre, rlb BiquadCoefficients
	preState, rlbState BiquadState
}

// NewKWeightingFilter derives K-weighting coefficients for sampleRate.
func NewKWeightingFilter(sampleRate float64) (*KWeightingFilter, error) {
	pre, err := HighShelfCoefficients(sampleRate, preFilterFreqHz, preFilterQ, preFilterGainDB)
	if err != nil {
		return nil, err
	}
	rlb, err := HighPassCoefficients(sampleRate, rlbFilterFreqHz, rlbFilterQ)
	if err != nil {
		return nil, err
	}
	return &KWeightingFilter{pre: pre, rlb: rlb}, nil
}

// Reset clears both filter stages' delay lines.
func (f *KWeightingFilter) Reset() {
	f.preState.Reset()
	f.rlbState.Reset()
}

// Process applies the K-weighting cascade in place style: output may
// alias input.
func (f *KWeightingFilter) Process(input, output []float32) {
	n := len(input)
	if len(output) < n {
		n = len(output)
	}
	for i := 0; i < n; i++ {
		x := float64(input[i])
		y := processSample(f.pre, &f.preState, x)
		y = processSample(f.rlb, &f.rlbState, y)
		output[i] = float32(y)
	}
}

// LUFSMeter accumulates K-weighted mean-square energy over 400 ms
// gating blocks per channel and reports BS.1770-4 gated integrated
// loudness. Single-channel weighting only; multichannel channel
// weighting is out of scope per spec unless added by configuration.
type LUFSMeter struct {
	sampleRate  float64
	blockFrames int
	filters     []*KWeightingFilter
	scratch     []float32

	accum     float64
	accumN    int
	blocks    []float64 // L_block per completed gating block
}

// NewLUFSMeter constructs a meter for channels channels at sampleRate.
func NewLUFSMeter(sampleRate float64, channels int) (*LUFSMeter, error) {
	if channels <= 0 {
		return nil, ErrInvalidParameter
	}
	m := &LUFSMeter{
		sampleRate:  sampleRate,
		blockFrames: int(sampleRate * gateBlockSeconds),
		scratch:     make([]float32, 0, 4096),
	}
	for i := 0; i < channels; i++ {
		f, err := NewKWeightingFilter(sampleRate)
		if err != nil {
			return nil, err
		}
		m.filters = append(m.filters, f)
	}
	return m, nil
}

// Reset clears all accumulated blocks and filter state, for an
// independent measurement.
func (m *LUFSMeter) Reset() {
	for _, f := range m.filters {
		f.Reset()
	}
	m.accum, m.accumN = 0, 0
	m.blocks = m.blocks[:0]
}

// Write feeds one block of frames (indexed [channel][sample], equal
// length per channel) into the meter, K-weighting each channel and
// accumulating mean-square energy, emitting completed 400 ms gating
// blocks as it goes. Per-frame energy is averaged across channels
// (single-channel BS.1770 weighting, per spec) rather than summed with
// the standard's multichannel L/R/C/Ls/Rs weights, which this meter
// does not implement.
func (m *LUFSMeter) Write(frames [][]float32) {
	nch := len(frames)
	if nch == 0 {
		return
	}
	n := len(frames[0])
	need := nch * n
	if cap(m.scratch) < need {
		m.scratch = make([]float32, need)
	}
	scratch := m.scratch[:need]
	weighted := make([][]float32, nch)
	for ch := range frames {
		weighted[ch] = scratch[ch*n : (ch+1)*n]
		if ch < len(m.filters) {
			m.filters[ch].Process(frames[ch], weighted[ch])
		} else {
			copy(weighted[ch], frames[ch])
		}
	}

	for i := 0; i < n; i++ {
		var sum float64
		for ch := 0; ch < nch; ch++ {
			v := float64(weighted[ch][i])
			sum += v * v
		}
		frameEnergy := sum / float64(nch)

		m.accum += frameEnergy
		m.accumN++
		if m.accumN >= m.blockFrames {
			meanSq := m.accum / float64(m.accumN)
			m.blocks = append(m.blocks, loudnessFromMeanSquare(meanSq))
			m.accum, m.accumN = 0, 0
		}
	}
}

// loudnessFromMeanSquare converts mean-square energy to LKFS, floored
// at silenceFloorLKFS when mean_square is (numerically) zero.
func loudnessFromMeanSquare(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return silenceFloorLKFS
	}
	l := -0.691 + 10*math.Log10(meanSquare)
	if l < silenceFloorLKFS {
		return silenceFloorLKFS
	}
	return l
}

// Integrated computes BS.1770-4 gated integrated loudness from the
// blocks accumulated so far: discard blocks <= -70 LKFS (absolute
// gate), then discard blocks <= mean(absolute-gated) - 10 LU (relative
// gate), then average what remains.
func (m *LUFSMeter) Integrated() float64 {
	var absGated []float64
	for _, l := range m.blocks {
		if l > silenceFloorLKFS {
			absGated = append(absGated, l)
		}
	}
	if len(absGated) == 0 {
		return silenceFloorLKFS
	}

	var sum float64
	for _, l := range absGated {
		sum += l
	}
	lUngated := sum / float64(len(absGated))

	var relGated []float64
	for _, l := range absGated {
		if l > lUngated-10 {
			relGated = append(relGated, l)
		}
	}
	if len(relGated) == 0 {
		return lUngated
	}

	sum = 0
	for _, l := range relGated {
		sum += l
	}
	return sum / float64(len(relGated))
}
