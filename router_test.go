// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore_test

import (
	"errors"
	"testing"

	audiocore "code.hybscloud.com/audiocore"
)

// constSource emits a fixed sample value forever, counting reads.
type constSource struct {
	value   float32
	reads   int
	channel uint16
}

func (s *constSource) ReadSamples(out []float32) int {
	s.reads++
	for i := range out {
		out[i] = s.value
	}
	return len(out)
}
func (s *constSource) SampleRate() uint32 { return 48000 }
func (s *constSource) Channels() uint16   { return s.channel }
func (s *constSource) HasMore() bool      { return true }

// captureDest records whatever WriteSamples delivers.
type captureDest struct {
	last []float32
	err  error
}

func (d *captureDest) WriteSamples(samples []float32) error {
	d.last = append([]float32(nil), samples...)
	return d.err
}
func (d *captureDest) SampleRate() uint32 { return 48000 }
func (d *captureDest) Channels() uint16   { return 1 }
func (d *captureDest) Flush() error       { return nil }

func TestRouterSingleSourcePassthroughWithGain(t *testing.T) {
	r := audiocore.NewRouter(8)
	src := &constSource{value: 0.25, channel: 1}
	dst := &captureDest{}

	sid := r.AddSource(src)
	did := r.AddDestination(dst)
	if _, err := r.AddRoute(sid, did, 2.0); err != nil {
		t.Fatalf("AddRoute: %v", err)
	}

	if err := r.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i, v := range dst.last {
		if v != 0.5 {
			t.Fatalf("sample %d: want 0.25*2.0=0.5, got %v", i, v)
		}
	}
}

func TestRouterReadsSourceAtMostOncePerTick(t *testing.T) {
	r := audiocore.NewRouter(4)
	src := &constSource{value: 0.1, channel: 1}
	dst1 := &captureDest{}
	dst2 := &captureDest{}

	sid := r.AddSource(src)
	d1 := r.AddDestination(dst1)
	d2 := r.AddDestination(dst2)
	r.AddRoute(sid, d1, 1.0)
	r.AddRoute(sid, d2, 1.0)

	if err := r.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if src.reads != 1 {
		t.Fatalf("want source read exactly once per tick across two routes, got %d", src.reads)
	}
}

func TestRouterSoftClipBoundsDestinationOutput(t *testing.T) {
	r := audiocore.NewRouter(4)
	src := &constSource{value: 1.0, channel: 1}
	dst := &captureDest{}

	sid := r.AddSource(src)
	did := r.AddDestination(dst)
	r.AddRoute(sid, did, 10.0) // deliberately way over unity

	if err := r.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i, v := range dst.last {
		if v >= 1 || v <= -1 {
			t.Fatalf("sample %d: want |v|<1 after soft clip, got %v", i, v)
		}
	}
}

func TestRouterRemoveSourceDropsItsRoutes(t *testing.T) {
	r := audiocore.NewRouter(4)
	src := &constSource{value: 1.0, channel: 1}
	dst := &captureDest{}

	sid := r.AddSource(src)
	did := r.AddDestination(dst)
	r.AddRoute(sid, did, 1.0)
	r.AddRoute(sid, did, 0.5)

	if err := r.RemoveSource(sid); err != nil {
		t.Fatalf("RemoveSource: %v", err)
	}
	if routes := r.RoutesForSource(sid); len(routes) != 0 {
		t.Fatalf("want no routes left referencing removed source, got %d", len(routes))
	}
}

func TestRouterAddRouteRejectsUnknownEndpoints(t *testing.T) {
	r := audiocore.NewRouter(4)
	src := &constSource{value: 1.0, channel: 1}
	sid := r.AddSource(src)

	if _, err := r.AddRoute(sid, 9999, 1.0); !errors.Is(err, audiocore.ErrDestinationNotFound) {
		t.Fatalf("want ErrDestinationNotFound, got %v", err)
	}
	if _, err := r.AddRoute(9999, 1, 1.0); !errors.Is(err, audiocore.ErrSourceNotFound) {
		t.Fatalf("want ErrSourceNotFound, got %v", err)
	}
}

func TestRouterMutedRouteContributesNothing(t *testing.T) {
	r := audiocore.NewRouter(4)
	src := &constSource{value: 1.0, channel: 1}
	dst := &captureDest{}

	sid := r.AddSource(src)
	did := r.AddDestination(dst)
	rid, _ := r.AddRoute(sid, did, 1.0)
	if err := r.SetRouteMuted(rid, true); err != nil {
		t.Fatalf("SetRouteMuted: %v", err)
	}

	if err := r.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if dst.last != nil {
		t.Fatalf("want no destination write when the only route is muted, got %v", dst.last)
	}
}

func TestSoftClipIsNondecreasingAndBounded(t *testing.T) {
	prev := float32(-5)
	for x := float32(-5); x <= 5; x += 0.01 {
		y := audiocore.SoftClip(x)
		if y < prev {
			t.Fatalf("SoftClip not nondecreasing at x=%v: prev=%v got=%v", x, prev, y)
		}
		if x > -1 && x < 1 && y != x {
			t.Fatalf("SoftClip should pass through |x|<1 unchanged, x=%v got=%v", x, y)
		}
		if (x > 1 || x < -1) && (y <= -1 || y >= 1) {
			t.Fatalf("SoftClip(%v)=%v did not stay strictly within (-1,1)", x, y)
		}
		prev = y
	}
}
