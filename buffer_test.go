// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore_test

import (
	"testing"

	audiocore "code.hybscloud.com/audiocore"
)

func TestAlignedBufferSamplesLenEqualsCapacity(t *testing.T) {
	b := audiocore.NewAlignedBuffer(256)
	if got := len(b.Samples()); got != 256 {
		t.Fatalf("want 256 samples, got %d", got)
	}
	if b.Cap() != 256 {
		t.Fatalf("want cap 256, got %d", b.Cap())
	}
}

func TestAlignedBufferClearZeroesSamples(t *testing.T) {
	b := audiocore.NewAlignedBuffer(16)
	s := b.Samples()
	for i := range s {
		s[i] = 1
	}
	b.Clear()
	for i, v := range b.Samples() {
		if v != 0 {
			t.Fatalf("sample %d not cleared: %v", i, v)
		}
	}
}

func TestAlignedBufferReleaseTwicePanics(t *testing.T) {
	b := audiocore.NewAlignedBuffer(8)
	b.Release()
	defer func() {
		if recover() == nil {
			t.Fatal("want panic on double release")
		}
	}()
	b.Release()
}

func TestNewAlignedBufferPanicsOnNonPositiveCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("want panic on capacity <= 0")
		}
	}()
	audiocore.NewAlignedBuffer(0)
}
