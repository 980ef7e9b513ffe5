// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore_test

import (
	"testing"

	audiocore "code.hybscloud.com/audiocore"
)

func TestHybridBackendProduceAndConsumeRoundtrip(t *testing.T) {
	router := audiocore.NewRouter(8)
	ring := audiocore.NewRing(64)
	src := &constSource{value: 0.2, channel: 1}
	sid := router.AddSource(src)
	did := router.AddDestination(audiocore.NewRingDestination(ring, 48000, 1))
	router.AddRoute(sid, did, 1.0)

	backend := audiocore.NewHybridBackend(router, ring, 1,
		audiocore.FallbackPolicy{Mode: audiocore.FallbackManual},
		map[audiocore.BackendMode]bool{audiocore.ModeHybridNative: true},
		audiocore.ModeHybridNative)

	if backend.Mode() != audiocore.ModeHybridNative {
		t.Fatalf("want initial mode HybridNative, got %v", backend.Mode())
	}

	if err := backend.ProduceBlock(); err != nil {
		t.Fatalf("ProduceBlock: %v", err)
	}

	out := make([]float32, 8)
	backend.ConsumeCallback(out)
	for i, v := range out {
		if v != 0.2 {
			t.Fatalf("sample %d: want 0.2 round-tripped through ring, got %v", i, v)
		}
	}
	if backend.Health().State() != audiocore.HealthHealthy {
		t.Fatalf("want Healthy after a full read, got %v", backend.Health().State())
	}
}

func TestHybridBackendUnderrunTriggersFallback(t *testing.T) {
	router := audiocore.NewRouter(4)
	ring := audiocore.NewRing(4) // never fed: every ConsumeCallback underruns

	backend := audiocore.NewHybridBackend(router, ring, 1,
		audiocore.FallbackPolicy{Mode: audiocore.FallbackAutoOnError},
		map[audiocore.BackendMode]bool{
			audiocore.ModeHybridNative: true,
			audiocore.ModeGraphOnly:    true,
		},
		audiocore.ModeHybridNative)

	out := make([]float32, 8)
	for i := 0; i < 10; i++ {
		backend.ConsumeCallback(out)
	}

	if backend.Health().State() != audiocore.HealthFailed {
		t.Fatalf("want Failed after 10 consecutive underruns, got %v", backend.Health().State())
	}
	if backend.Mode() == audiocore.ModeHybridNative {
		t.Fatal("want backend to have fallen back off HybridNative after sustained underrun")
	}
}

func TestHybridBackendRequestTransitionUpdatesMode(t *testing.T) {
	router := audiocore.NewRouter(4)
	ring := audiocore.NewRing(4)
	backend := audiocore.NewHybridBackend(router, ring, 1,
		audiocore.FallbackPolicy{Mode: audiocore.FallbackManual},
		map[audiocore.BackendMode]bool{audiocore.ModeGraphOnly: true},
		audiocore.ModeHybridNative)

	backend.RequestTransition(audiocore.ModeGraphOnly)
	if backend.Mode() != audiocore.ModeGraphOnly {
		t.Fatalf("want mode GraphOnly after RequestTransition, got %v", backend.Mode())
	}
	if backend.Transitioning() {
		t.Fatal("want Transitioning false once RequestTransition has returned")
	}
}
