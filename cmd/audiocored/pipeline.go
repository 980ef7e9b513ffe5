// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"math"
	"runtime"

	"code.hybscloud.com/audiocore"
	"code.hybscloud.com/audiocore/internal/lfq"
)

// analysisBlock is one post-EQ, pre-limiter block handed to the
// background loudness worker: the pooled buffer it was copied into,
// plus how many of its samples are valid.
type analysisBlock struct {
	buf *audiocore.AlignedBuffer
	n   int
}

// processingDestination runs a block through the EQ bank and limiter
// before forwarding it to inner, giving audiocored's malgo call site an
// actual EQ/limiter/pool pass rather than constructing them unused. It
// also taps the post-EQ signal to a background LUFS worker over an
// SPSC queue, without ever blocking the audio thread on that worker.
type processingDestination struct {
	inner   audiocore.AudioDestination
	eq      *audiocore.EQBank
	limiter *audiocore.Limiter
	pool    *audiocore.BufferPool

	analysisPool  *audiocore.BufferPool
	analysisQueue *lfq.SPSC[analysisBlock]
}

func newProcessingDestination(inner audiocore.AudioDestination, eq *audiocore.EQBank, limiter *audiocore.Limiter, pool *audiocore.BufferPool, analysisPool *audiocore.BufferPool, analysisQueue *lfq.SPSC[analysisBlock]) *processingDestination {
	return &processingDestination{
		inner:         inner,
		eq:            eq,
		limiter:       limiter,
		pool:          pool,
		analysisPool:  analysisPool,
		analysisQueue: analysisQueue,
	}
}

func (d *processingDestination) WriteSamples(samples []float32) error {
	buf := d.pool.Acquire()
	defer d.pool.Release(buf)

	scratch := buf.Samples()
	n := len(samples)
	if n > len(scratch) {
		n = len(scratch)
	}

	in := [][]float32{samples[:n]}
	out := [][]float32{scratch[:n]}
	d.eq.Process(in, out)

	d.tapForAnalysis(scratch[:n])

	limited := [][]float32{samples[:n]}
	if err := d.limiter.Process(out, limited); err != nil {
		return err
	}

	return d.inner.WriteSamples(samples[:n])
}

// tapForAnalysis hands the post-EQ block to the background loudness
// worker. A full queue means the worker hasn't kept up; this tick's
// block is simply dropped rather than stalling the audio thread.
func (d *processingDestination) tapForAnalysis(postEQ []float32) {
	if d.analysisQueue == nil {
		return
	}
	ab := d.analysisPool.Acquire()
	blk := analysisBlock{buf: ab, n: copy(ab.Samples(), postEQ)}
	if err := d.analysisQueue.Enqueue(&blk); err != nil {
		d.analysisPool.Release(ab)
	}
}

// runLoudnessWorker drains post-EQ blocks off queue and feeds them to
// meter, releasing each block back to pool once measured. It polls
// rather than blocking, yielding the processor between empty reads so
// it never spins hot while the stream is idle.
func runLoudnessWorker(queue *lfq.SPSC[analysisBlock], pool *audiocore.BufferPool, meter *audiocore.LUFSMeter, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		blk, err := queue.Dequeue()
		if err != nil {
			runtime.Gosched()
			continue
		}
		meter.Write([][]float32{blk.buf.Samples()[:blk.n]})
		pool.Release(blk.buf)
	}
}

func (d *processingDestination) SampleRate() uint32 { return d.inner.SampleRate() }
func (d *processingDestination) Channels() uint16   { return d.inner.Channels() }
func (d *processingDestination) Flush() error       { return d.inner.Flush() }

// toneSource is a synthetic AudioSource producing a continuous sine
// tone, standing in for a real decoder so the demo pipeline has
// something to route end to end.
type toneSource struct {
	sampleRate float64
	freqHz     float64
	channels   int
	phase      float64
}

func newToneSource(sampleRate, freqHz float64, channels int) *toneSource {
	return &toneSource{sampleRate: sampleRate, freqHz: freqHz, channels: channels}
}

func (s *toneSource) ReadSamples(out []float32) int {
	step := 2 * math.Pi * s.freqHz / s.sampleRate
	for i := range out {
		out[i] = float32(math.Sin(s.phase))
		s.phase += step
		if s.phase > 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
	return len(out)
}

func (s *toneSource) SampleRate() uint32 { return uint32(s.sampleRate) }
func (s *toneSource) Channels() uint16   { return uint16(s.channels) }
func (s *toneSource) HasMore() bool      { return true }
