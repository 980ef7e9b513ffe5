// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import "math"

// minQ is the floor applied to Q to prevent division blow-up in the
// cookbook coefficient derivation.
const minQ = 0.001

// BiquadCoefficients holds a normalized (a0 divided out) second-order
// section: {b0, b1, b2, a1, a2}.
type BiquadCoefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// BiquadState carries the Direct Form I delay line for one band on one
// channel: {x1, x2, y1, y2}. A BiquadState must never be shared between
// threads — it belongs exclusively to whichever goroutine calls
// Process for that band.
type BiquadState struct {
	X1, X2, Y1, Y2 float64
}

// Reset zeroes the delay line without touching coefficients.
func (s *BiquadState) Reset() {
	*s = BiquadState{}
}

// PeakingCoefficients derives RBJ peaking-EQ cookbook coefficients for
// the given center frequency, Q, and gain at the given sample rate.
// Returns ErrInvalidParameter for NaN/Inf inputs, a non-positive sample
// rate, or a frequency outside (0, sampleRate/2). A finite q below minQ
// (including q <= 0) is clamped to minQ, not rejected. A gain of exactly
// 0 dB yields the identity section {B0: 1}.
func PeakingCoefficients(sampleRate float64, freqHz, q, gainDB float64) (BiquadCoefficients, error) {
	if math.IsNaN(freqHz) || math.IsInf(freqHz, 0) ||
		math.IsNaN(q) || math.IsInf(q, 0) ||
		math.IsNaN(gainDB) || math.IsInf(gainDB, 0) {
		return BiquadCoefficients{}, ErrInvalidParameter
	}
	if sampleRate <= 0 || freqHz <= 0 || freqHz >= sampleRate/2 {
		return BiquadCoefficients{}, ErrInvalidParameter
	}
	if q < minQ {
		q = minQ
	}
	// A 0 dB peaking section is the identity filter; returning it exactly
	// keeps a flat band free of rounding residue near zero crossings.
	if gainDB == 0 {
		return BiquadCoefficients{B0: 1}, nil
	}

	A := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freqHz / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosW0 := math.Cos(w0)

	b0 := 1 + alpha*A
	b1 := -2 * cosW0
	b2 := 1 - alpha*A
	a0 := 1 + alpha/A
	a1 := -2 * cosW0
	a2 := 1 - alpha/A

	return BiquadCoefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}, nil
}

// HighShelfCoefficients derives RBJ high-shelf coefficients, used by the
// BS.1770 K-weighting pre-filter.
func HighShelfCoefficients(sampleRate, freqHz, q, gainDB float64) (BiquadCoefficients, error) {
	if math.IsNaN(freqHz) || math.IsInf(freqHz, 0) ||
		math.IsNaN(q) || math.IsInf(q, 0) ||
		math.IsNaN(gainDB) || math.IsInf(gainDB, 0) {
		return BiquadCoefficients{}, ErrInvalidParameter
	}
	if sampleRate <= 0 || freqHz <= 0 || freqHz >= sampleRate/2 {
		return BiquadCoefficients{}, ErrInvalidParameter
	}
	if q < minQ {
		q = minQ
	}

	A := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freqHz / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosW0 := math.Cos(w0)
	sqrtA := math.Sqrt(A)

	b0 := A * ((A + 1) + (A-1)*cosW0 + 2*sqrtA*alpha)
	b1 := -2 * A * ((A - 1) + (A+1)*cosW0)
	b2 := A * ((A + 1) + (A-1)*cosW0 - 2*sqrtA*alpha)
	a0 := (A + 1) - (A-1)*cosW0 + 2*sqrtA*alpha
	a1 := 2 * ((A - 1) - (A+1)*cosW0)
	a2 := (A + 1) - (A-1)*cosW0 - 2*sqrtA*alpha

	return BiquadCoefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}, nil
}

// HighPassCoefficients derives RBJ high-pass coefficients, used by the
// BS.1770 RLB filter.
func HighPassCoefficients(sampleRate, freqHz, q float64) (BiquadCoefficients, error) {
	if math.IsNaN(freqHz) || math.IsInf(freqHz, 0) || math.IsNaN(q) || math.IsInf(q, 0) {
		return BiquadCoefficients{}, ErrInvalidParameter
	}
	if sampleRate <= 0 || freqHz <= 0 || freqHz >= sampleRate/2 {
		return BiquadCoefficients{}, ErrInvalidParameter
	}
	if q < minQ {
		q = minQ
	}

	w0 := 2 * math.Pi * freqHz / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosW0 := math.Cos(w0)

	b0 := (1 + cosW0) / 2
	b1 := -(1 + cosW0)
	b2 := (1 + cosW0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha

	return BiquadCoefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}, nil
}

// processSample applies one Direct Form I step and returns the output
// sample, mutating state in place.
func processSample(c BiquadCoefficients, s *BiquadState, x0 float64) float64 {
	y0 := c.B0*x0 + c.B1*s.X1 + c.B2*s.X2 - c.A1*s.Y1 - c.A2*s.Y2
	s.X2, s.X1 = s.X1, x0
	s.Y2, s.Y1 = s.Y1, y0
	return y0
}

// Process applies a single biquad section in cascade over input,
// writing to output (which may alias input), carrying state across
// calls. Output-identical to a reference scalar implementation applied
// one sample at a time: this loop is the reference.
func Process(c BiquadCoefficients, s *BiquadState, input, output []float32) {
	n := len(input)
	if len(output) < n {
		n = len(output)
	}
	for i := 0; i < n; i++ {
		output[i] = float32(flushDenormal(processSample(c, s, float64(input[i]))))
	}
}

// flushDenormal zeroes magnitudes small enough to be denormals, a
// cheaper per-sample substitute for the every-64-samples flush the
// spec also allows; either is conformant, this one needs no extra
// bookkeeping at tile boundaries.
func flushDenormal(x float64) float64 {
	const denormalFloor = 1e-30
	if x > -denormalFloor && x < denormalFloor {
		return 0
	}
	return x
}
