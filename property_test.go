// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore_test

import (
	"math"
	"testing"

	audiocore "code.hybscloud.com/audiocore"
	"pgregory.net/rapid"
)

// TestPropertyRingNeverLosesOrReordersSamples draws a random sequence of
// write/read sizes against a ring and checks that everything actually
// read out comes back in the order it went in — the single invariant a
// bulk SPSC ring must never violate, regardless of how writes and reads
// interleave with wraparound.
func TestPropertyRingNeverLosesOrReordersSamples(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(2, 64).Draw(t, "capacity")
		r := audiocore.NewRing(capacity)

		var written, read []float32
		next := float32(0)
		ops := rapid.IntRange(1, 64).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			if rapid.Bool().Draw(t, "isWrite") {
				n := rapid.IntRange(1, 8).Draw(t, "writeLen")
				batch := make([]float32, n)
				for j := range batch {
					batch[j] = next
					next++
				}
				got := r.Write(batch)
				written = append(written, batch[:got]...)
			} else {
				n := rapid.IntRange(1, 8).Draw(t, "readLen")
				out := make([]float32, n)
				got := r.Read(out)
				read = append(read, out[:got]...)
			}
		}
		if len(read) > len(written) {
			t.Fatalf("read more samples (%d) than were ever written (%d)", len(read), len(written))
		}
		for i := range read {
			if read[i] != written[i] {
				t.Fatalf("sample %d reordered or corrupted: wrote %v, read %v", i, written[i], read[i])
			}
		}
	})
}

// TestPropertyBiquadUnityGainIsIdentity checks that a peaking band tuned
// to 0 dB gain reproduces its input, for arbitrary (valid) frequency and
// Q, not just the one example in TestPeakingCoefficientsUnityGainIsIdentity.
func TestPropertyBiquadUnityGainIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		const sampleRate = 48000.0
		freq := rapid.Float64Range(20, sampleRate/2-1).Draw(t, "freq")
		q := rapid.Float64Range(0.1, 10).Draw(t, "q")

		c, err := audiocore.PeakingCoefficients(sampleRate, freq, q, 0)
		if err != nil {
			t.Fatalf("PeakingCoefficients: %v", err)
		}
		var s audiocore.BiquadState
		n := rapid.IntRange(1, 128).Draw(t, "n")
		in := make([]float32, n)
		for i := range in {
			in[i] = float32(rapid.Float64Range(-1, 1).Draw(t, "sample"))
		}
		out := make([]float32, n)
		audiocore.Process(c, &s, in, out)
		for i := range in {
			if math.Abs(float64(out[i]-in[i])) > 1e-3 {
				t.Fatalf("sample %d: unity-gain band altered signal: in=%v out=%v", i, in[i], out[i])
			}
		}
	})
}

// TestPropertyLimiterNeverExceedsCeiling exercises the limiter against
// arbitrary (possibly wildly out-of-range) input and checks the output
// never exceeds the configured sample-peak ceiling once the lookahead
// window has filled — the limiter's core safety guarantee.
func TestPropertyLimiterNeverExceedsCeiling(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ceiling := rapid.Float64Range(0.1, 1.0).Draw(t, "ceiling")
		l := audiocore.NewLimiter(1)
		l.SetCeiling(ceiling)
		l.SetTruePeakCeiling(ceiling)

		n := rapid.IntRange(4096, 8192).Draw(t, "n")
		in := make([]float32, n)
		for i := range in {
			in[i] = float32(rapid.Float64Range(-20, 20).Draw(t, "sample"))
		}
		out := make([]float32, n)
		if err := l.Process([][]float32{in}, [][]float32{out}); err != nil {
			t.Fatalf("Process: %v", err)
		}

		tail := out[2048:] // past one full lookahead window
		for i, v := range tail {
			if math.Abs(float64(v)) > ceiling+0.02 {
				t.Fatalf("sample %d exceeds ceiling %v: %v", i, ceiling, v)
			}
		}
	})
}

// TestPropertySoftClipMonotonicAndBounded generalizes
// TestSoftClipIsNondecreasingAndBounded to arbitrary pairs.
func TestPropertySoftClipMonotonicAndBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := float32(rapid.Float64Range(-100, 100).Draw(t, "a"))
		delta := float32(rapid.Float64Range(0, 50).Draw(t, "delta"))
		b := a + delta

		ya, yb := audiocore.SoftClip(a), audiocore.SoftClip(b)
		if yb < ya {
			t.Fatalf("SoftClip not nondecreasing: SoftClip(%v)=%v > SoftClip(%v)=%v", a, ya, b, yb)
		}
		if ya <= -1 || ya >= 1 {
			t.Fatalf("SoftClip(%v)=%v escaped (-1,1)", a, ya)
		}
	})
}

// TestPropertyRouteRemovalIsAlwaysComplete checks that removing a source
// or destination leaves no dangling route referencing it, regardless of
// how many routes were attached beforehand.
func TestPropertyRouteRemovalIsAlwaysComplete(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := audiocore.NewRouter(4)
		nSources := rapid.IntRange(1, 5).Draw(t, "nSources")
		nDests := rapid.IntRange(1, 5).Draw(t, "nDests")

		sources := make([]audiocore.SourceId, nSources)
		for i := range sources {
			sources[i] = r.AddSource(&constSource{value: 0, channel: 1})
		}
		dests := make([]audiocore.DestId, nDests)
		for i := range dests {
			dests[i] = r.AddDestination(&captureDest{})
		}

		nRoutes := rapid.IntRange(0, nSources*nDests).Draw(t, "nRoutes")
		for i := 0; i < nRoutes; i++ {
			si := rapid.IntRange(0, nSources-1).Draw(t, "si")
			di := rapid.IntRange(0, nDests-1).Draw(t, "di")
			r.AddRoute(sources[si], dests[di], 1.0)
		}

		victim := sources[rapid.IntRange(0, nSources-1).Draw(t, "victim")]
		if err := r.RemoveSource(victim); err != nil {
			t.Fatalf("RemoveSource: %v", err)
		}
		if routes := r.RoutesForSource(victim); len(routes) != 0 {
			t.Fatalf("want zero routes referencing a removed source, got %d", len(routes))
		}
	})
}

// TestPropertyLUFSIntegratedNeverBelowFloor checks that arbitrary signal
// content never drives the integrated reading below the silence floor,
// and that pure silence always reads exactly the floor.
func TestPropertyLUFSIntegratedNeverBelowFloor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		const sampleRate = 48000.0
		m, err := audiocore.NewLUFSMeter(sampleRate, 1)
		if err != nil {
			t.Fatalf("NewLUFSMeter: %v", err)
		}
		n := rapid.IntRange(int(sampleRate/2), int(sampleRate)).Draw(t, "n")
		amp := rapid.Float64Range(0, 1).Draw(t, "amp")
		in := make([]float32, n)
		for i := range in {
			in[i] = float32(amp) * float32(math.Sin(2*math.Pi*997*float64(i)/sampleRate))
		}
		m.Write([][]float32{in})
		got := m.Integrated()
		if got < -70 {
			t.Fatalf("integrated loudness %v fell below the silence floor", got)
		}
		if amp == 0 && got != -70 {
			t.Fatalf("want exact silence floor for zero-amplitude input, got %v", got)
		}
	})
}
