// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command audiocored is a small demo harness: it enumerates audio
// devices via malgo, wires a Router + EQBank + Limiter into a
// HybridBackend, and runs until interrupted. It exists to give the
// malgo dependency a real call site, not as a shippable product.
package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gen2brain/malgo"
	flag "github.com/spf13/pflag"

	"code.hybscloud.com/audiocore"
	"code.hybscloud.com/audiocore/internal/lfq"
)

func main() {
	var (
		sampleRate = flag.Uint32("sample-rate", 48000, "output sample rate")
		channels   = flag.Uint16("channels", 2, "output channel count")
		bufferSize = flag.Uint32("buffer-size", 512, "hardware callback buffer size (power of two)")
		listOnly   = flag.Bool("list-devices", false, "enumerate playback devices and exit")
	)
	flag.Parse()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audiocored: init context: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	devices, err := ctx.Devices(malgo.Playback)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audiocored: enumerate devices: %v\n", err)
		os.Exit(1)
	}
	for _, d := range devices {
		fmt.Printf("device: %s\n", d.Name())
	}
	if *listOnly {
		return
	}

	cfg := audiocore.AudioConfig{
		SampleRate: *sampleRate,
		Channels:   *channels,
		Format:     audiocore.SampleFormatF32,
		BufferSize: *bufferSize,
	}
	if err := audiocore.ValidateAudioConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "audiocored: invalid config: %v\n", err)
		os.Exit(1)
	}

	ring := audiocore.NewRing(8192)
	router := audiocore.NewRouter(int(*bufferSize) * int(*channels))

	// The demo bus is the single interleaved stream the hardware
	// callback ultimately drains from ring, so the EQ bank and limiter
	// here run with one logical channel over that stream rather than
	// one instance per hardware channel — de-interleaving per channel
	// is a concern for a real multi-channel router destination, out of
	// scope for this harness.
	eq := audiocore.NewEQBank(float64(*sampleRate), 1, 4)
	limiter := audiocore.NewLimiter(1)
	pool := audiocore.NewBufferPool(4, int(*bufferSize)*int(*channels))

	analysisPool := audiocore.NewBufferPool(8, int(*bufferSize)*int(*channels))
	analysisQueue := lfq.NewSPSC[analysisBlock](64)
	meter, err := audiocore.NewLUFSMeter(float64(*sampleRate), 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audiocored: init loudness meter: %v\n", err)
		os.Exit(1)
	}
	loudnessStop := make(chan struct{})
	go runLoudnessWorker(analysisQueue, analysisPool, meter, loudnessStop)

	ringDest := audiocore.NewRingDestination(ring, *sampleRate, *channels)
	processed := newProcessingDestination(ringDest, eq, limiter, pool, analysisPool, analysisQueue)

	backend := audiocore.NewHybridBackend(
		router,
		ring,
		int(*channels),
		audiocore.FallbackPolicy{Mode: audiocore.FallbackAutoOnError},
		map[audiocore.BackendMode]bool{
			audiocore.ModeHybridNative: true,
			audiocore.ModeGraphOnly:    true,
		},
		audiocore.ModeHybridNative,
	)

	tone := newToneSource(float64(*sampleRate), 440, int(*channels))
	sid := router.AddSource(tone)
	did := router.AddDestination(processed)
	if _, err := router.AddRoute(sid, did, 0.2); err != nil {
		fmt.Fprintf(os.Stderr, "audiocored: wire demo route: %v\n", err)
		os.Exit(1)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(*channels)
	deviceConfig.SampleRate = *sampleRate
	deviceConfig.PeriodSizeInFrames = *bufferSize

	scratch := make([]float32, int(*bufferSize)*int(*channels))

	onSendFrames := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		n := int(framecount) * int(*channels)
		if n > len(scratch) {
			n = len(scratch)
		}
		backend.ConsumeCallback(scratch[:n])
		for i := 0; i < n; i++ {
			bits := math.Float32bits(scratch[i])
			binary.LittleEndian.PutUint32(pOutputSample[i*4:], bits)
		}
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSendFrames})
	if err != nil {
		fmt.Fprintf(os.Stderr, "audiocored: init device: %v\n", err)
		os.Exit(1)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "audiocored: start device: %v\n", err)
		os.Exit(1)
	}
	defer device.Stop()

	audiocore.Log.Info().
		Uint32("sample_rate", *sampleRate).
		Uint16("channels", *channels).
		Msg("audiocored running, ctrl-c to stop")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	for {
		_ = backend.ProduceBlock()
		select {
		case <-stop:
			close(loudnessStop)
			audiocore.Log.Info().
				Float64("integrated_lufs", meter.Integrated()).
				Msg("audiocored stopping")
			return
		default:
			runtime.Gosched()
		}
	}
}
