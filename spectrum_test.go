// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore_test

import (
	"math"
	"testing"

	audiocore "code.hybscloud.com/audiocore"
)

func TestSpectrumProcessorBytesBelowFloorAreZero(t *testing.T) {
	pool := audiocore.NewBufferPool(2, 8)
	p := audiocore.NewSpectrumProcessor(8, pool)
	bytes := make([]byte, 8) // byte 0 maps to -100 dBFS
	out := p.ProcessBytes(bytes)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("index %d: want 0 at floor, got %v", i, v)
		}
	}
}

func TestSpectrumProcessorSmoothsTowardLinearInput(t *testing.T) {
	pool := audiocore.NewBufferPool(2, 4)
	p := audiocore.NewSpectrumProcessor(4, pool)
	p.SetSmoothing(0.5)

	first := append([]float32(nil), p.ProcessLinear([]float32{1, 1, 1, 1})...)
	second := append([]float32(nil), p.ProcessLinear([]float32{1, 1, 1, 1})...)

	for i := range second {
		if second[i] <= first[i] {
			t.Fatalf("index %d: want smoothed value to climb toward 1 across calls, got %v then %v", i, first[i], second[i])
		}
		if second[i] > 1 {
			t.Fatalf("index %d: smoothed value overshot target: %v", i, second[i])
		}
	}
}

func TestHannWindowEndpointsAreZero(t *testing.T) {
	pool := audiocore.NewBufferPool(1, 16)
	p := audiocore.NewSpectrumProcessor(16, pool)
	w := p.Window()
	if math.Abs(float64(w[0])) > 1e-6 || math.Abs(float64(w[len(w)-1])) > 1e-6 {
		t.Fatalf("want Hann window endpoints near 0, got %v .. %v", w[0], w[len(w)-1])
	}
}
