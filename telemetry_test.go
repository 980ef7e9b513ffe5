// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore_test

import (
	"testing"

	audiocore "code.hybscloud.com/audiocore"
)

func TestStreamTelemetryAverageAndPercentiles(t *testing.T) {
	st := audiocore.NewStreamTelemetry(48000, 512, 100)
	for _, v := range []int64{100, 200, 300, 400, 500} {
		st.Record(v, false)
	}
	if got := st.Average(); got != 300 {
		t.Fatalf("want average 300, got %v", got)
	}
	if got := st.P50(); got != 300 {
		t.Fatalf("want P50 300, got %v", got)
	}
}

func TestStreamTelemetryXrunCounting(t *testing.T) {
	st := audiocore.NewStreamTelemetry(48000, 512, 10)
	st.Record(100, false)
	st.Record(200, true)
	st.Record(300, true)
	if st.XrunCount() != 2 {
		t.Fatalf("want 2 xruns recorded, got %d", st.XrunCount())
	}
}

func TestStreamTelemetryHistoryWraps(t *testing.T) {
	st := audiocore.NewStreamTelemetry(48000, 512, 4)
	for i := int64(1); i <= 6; i++ {
		st.Record(i*100, false)
	}
	// Only the most recent 4 should remain: 300,400,500,600 -> avg 450
	if got := st.Average(); got != 450 {
		t.Fatalf("want average 450 over bounded history, got %v", got)
	}
}

func TestStreamTelemetryCPUUtilization(t *testing.T) {
	const sampleRate = 48000.0
	const quantum = 480 // 10ms budget
	st := audiocore.NewStreamTelemetry(sampleRate, quantum, 10)
	st.Record(5_000_000, false) // 5ms against a 10ms budget
	if got := st.AverageCPUUtilization(); got < 0.49 || got > 0.51 {
		t.Fatalf("want ~0.5 utilization, got %v", got)
	}
}

func TestTelemetryReporterDrainsAcrossStreams(t *testing.T) {
	r := audiocore.NewTelemetryReporter(48000, 512, 100, 64)
	inbox := r.Inbox()
	for _, m := range []audiocore.CallbackMeasurement{
		{StreamID: 1, LatencyNanos: 100},
		{StreamID: 2, LatencyNanos: 200},
		{StreamID: 1, LatencyNanos: 300},
	} {
		mm := m
		if err := inbox.Enqueue(&mm); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	if n := r.Drain(); n != 3 {
		t.Fatalf("want 3 measurements drained, got %d", n)
	}

	s1 := r.Stream(1)
	if s1 == nil {
		t.Fatal("want stream 1 recorded")
	}
	if got := s1.Average(); got != 200 {
		t.Fatalf("want stream 1 average 200, got %v", got)
	}
	if r.Stream(999) != nil {
		t.Fatal("want nil for a stream id never reported")
	}
}
