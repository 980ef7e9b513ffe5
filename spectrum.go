// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import "math"

// smoothingAlpha is the default first-order IIR smoothing coefficient
// applied to the linearized spectrum.
const smoothingAlpha = 0.8

// SpectrumProcessor turns byte-normalized dB magnitudes (as emitted by
// a downstream analyser node) or externally-supplied linear magnitudes
// into a smoothed linear magnitude spectrum of fixed length, with no
// allocation per call in steady state: it draws its scratch buffer from
// a BufferPool and keeps its smoothed result in an internal aligned
// buffer the caller reads by reference.
type SpectrumProcessor struct {
	size   int
	alpha  float64
	pool   *BufferPool
	smooth *AlignedBuffer
	window []float32
}

// NewSpectrumProcessor constructs a processor for spectra of the given
// length, drawing conversion scratch space from pool. pool's buffer
// size must be >= size.
func NewSpectrumProcessor(size int, pool *BufferPool) *SpectrumProcessor {
	if size <= 0 {
		panic("audiocore: SpectrumProcessor size must be > 0")
	}
	return &SpectrumProcessor{
		size:   size,
		alpha:  smoothingAlpha,
		pool:   pool,
		smooth: NewAlignedBuffer(size),
		window: hannWindow(size),
	}
}

// SetSmoothing overrides the default smoothing coefficient (0 < alpha < 1).
func (p *SpectrumProcessor) SetSmoothing(alpha float64) {
	if alpha <= 0 || alpha >= 1 {
		return
	}
	p.alpha = alpha
}

// ProcessBytes converts N byte-normalized dB magnitudes (0..255 mapping
// to -100..0 dBFS) into linear magnitude, smooths them, and returns the
// internal smoothed result buffer. The returned slice is only valid
// until the next ProcessBytes/ProcessLinear call.
func (p *SpectrumProcessor) ProcessBytes(bytes []byte) []float32 {
	buf := p.pool.Acquire()
	defer p.pool.Release(buf)

	n := p.size
	if len(bytes) < n {
		n = len(bytes)
	}
	scratch := buf.Samples()
	for i := 0; i < n; i++ {
		db := (float64(bytes[i])/255)*100 - 100
		scratch[i] = float32(dbToLinear(db))
	}
	for i := n; i < p.size; i++ {
		scratch[i] = 0
	}

	return p.smoothInto(scratch[:p.size])
}

// ProcessLinear smooths an already-linear magnitude spectrum (e.g. from
// an external FFT magnitude computation) and returns the internal
// smoothed result buffer.
func (p *SpectrumProcessor) ProcessLinear(linear []float32) []float32 {
	return p.smoothInto(linear)
}

func (p *SpectrumProcessor) smoothInto(linear []float32) []float32 {
	out := p.smooth.Samples()
	n := p.size
	if len(linear) < n {
		n = len(linear)
	}
	for i := 0; i < n; i++ {
		out[i] = float32(p.alpha*float64(out[i]) + (1-p.alpha)*float64(linear[i]))
	}
	return out
}

// dbToLinear converts dBFS to linear amplitude, per spec: at or below
// -100 dBFS collapses to exactly 0 rather than a vanishingly small
// nonzero value.
func dbToLinear(db float64) float64 {
	if db <= -100 {
		return 0
	}
	return math.Pow(10, db/20)
}

// Window returns the precomputed Hann window of length size. The
// processor performs no FFT and does not apply the window itself.
func (p *SpectrumProcessor) Window() []float32 {
	return p.window
}

func hannWindow(size int) []float32 {
	w := make([]float32, size)
	if size == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < size; i++ {
		w[i] = float32(0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1))))
	}
	return w
}
