// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore_test

import (
	"testing"

	audiocore "code.hybscloud.com/audiocore"
)

func TestHealthMonitorDegradesThenFailsUnderSustainedUnderruns(t *testing.T) {
	h := audiocore.NewHealthMonitor(audiocore.FallbackPolicy{Mode: audiocore.FallbackManual}, 16)
	if h.State() != audiocore.HealthHealthy {
		t.Fatalf("want initial state Healthy, got %v", h.State())
	}
	for i := 0; i < 2; i++ {
		h.ReportUnderrun()
	}
	if h.State() != audiocore.HealthHealthy {
		t.Fatalf("want still Healthy below degraded threshold, got %v", h.State())
	}
	h.ReportUnderrun() // 3rd consecutive underrun
	if h.State() != audiocore.HealthDegraded {
		t.Fatalf("want Degraded at 3 consecutive underruns, got %v", h.State())
	}
	for i := 0; i < 7; i++ {
		h.ReportUnderrun() // reaches 10 consecutive
	}
	if h.State() != audiocore.HealthFailed {
		t.Fatalf("want Failed at 10 consecutive underruns, got %v", h.State())
	}
}

func TestHealthMonitorSuccessResetsToHealthy(t *testing.T) {
	h := audiocore.NewHealthMonitor(audiocore.FallbackPolicy{Mode: audiocore.FallbackManual}, 16)
	for i := 0; i < 10; i++ {
		h.ReportUnderrun()
	}
	if h.State() != audiocore.HealthFailed {
		t.Fatalf("want Failed, got %v", h.State())
	}
	h.ReportSuccess()
	if h.State() != audiocore.HealthHealthy {
		t.Fatalf("want Healthy after a clean callback, got %v", h.State())
	}
}

func TestHealthMonitorBroadcastsTransitionsToSubscriber(t *testing.T) {
	h := audiocore.NewHealthMonitor(audiocore.FallbackPolicy{Mode: audiocore.FallbackManual}, 16)
	sub := h.Subscribe()

	for i := 0; i < 3; i++ {
		h.ReportUnderrun()
	}

	var got audiocore.HealthTransition
	for i := 0; i < 100; i++ {
		v, err := sub.Dequeue()
		if err == nil {
			got = v
			break
		}
	}
	if got.From != audiocore.HealthHealthy || got.To != audiocore.HealthDegraded {
		t.Fatalf("want Healthy->Degraded transition broadcast, got %+v", got)
	}
}

func TestNextFallbackModeMovesStrictlyPastCurrentTowardGraphOnly(t *testing.T) {
	policy := audiocore.FallbackPolicy{Mode: audiocore.FallbackAutoOnError}
	supported := map[audiocore.BackendMode]bool{
		audiocore.ModeGraphOnly:    true,
		audiocore.ModeHybridNative: true,
	}
	mode, ok := audiocore.NextFallbackMode(policy, supported, audiocore.ModeHybridNative)
	if !ok {
		t.Fatal("want a fallback mode found")
	}
	if mode != audiocore.ModeGraphOnly {
		t.Fatalf("want the next mode strictly past HybridNative in the chain (GraphOnly), got %v", mode)
	}
}

func TestNextFallbackModePreferredModeTriedFirst(t *testing.T) {
	policy := audiocore.FallbackPolicy{Mode: audiocore.FallbackAutoWithPreference, Preferred: audiocore.ModeGraphOnly}
	supported := map[audiocore.BackendMode]bool{
		audiocore.ModeGraphOnly:    true,
		audiocore.ModeHybridNative: true,
	}
	mode, ok := audiocore.NextFallbackMode(policy, supported, audiocore.ModeExclusiveAlternate)
	if !ok || mode != audiocore.ModeGraphOnly {
		t.Fatalf("want preferred mode GraphOnly tried first, got %v ok=%v", mode, ok)
	}
}

func TestNextFallbackModeNoneSupportedReturnsFalse(t *testing.T) {
	policy := audiocore.FallbackPolicy{Mode: audiocore.FallbackAutoOnError}
	if _, ok := audiocore.NextFallbackMode(policy, map[audiocore.BackendMode]bool{}, audiocore.ModeHybridNative); ok {
		t.Fatal("want no fallback found when nothing is supported")
	}
}

func TestNextFallbackModeCurrentAlreadyAtGraphOnlyHasNoFurtherFallback(t *testing.T) {
	policy := audiocore.FallbackPolicy{Mode: audiocore.FallbackAutoOnError}
	supported := map[audiocore.BackendMode]bool{audiocore.ModeGraphOnly: true}
	if _, ok := audiocore.NextFallbackMode(policy, supported, audiocore.ModeGraphOnly); ok {
		t.Fatal("want no fallback past GraphOnly, the chain's last resort")
	}
}
