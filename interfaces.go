// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

// AudioSource is an external collaborator the core pulls decoded PCM
// from. How samples are decoded (file, network, synth) is outside this
// package's concern; the core only ever calls this narrow interface.
type AudioSource interface {
	// ReadSamples fills up to len(out) samples and returns the count
	// actually produced. A continuous source never returns less than
	// len(out) except at true underrun.
	ReadSamples(out []float32) int
	SampleRate() uint32
	Channels() uint16
	// HasMore reports whether the source can still produce samples;
	// continuous sources (live input, synths) always return true.
	HasMore() bool
}

// Seekable is an optional capability an AudioSource may additionally
// implement.
type Seekable interface {
	Seek(pos uint64) error
	Position() (uint64, bool)
	Length() (uint64, bool)
}

// AudioDestination is an external collaborator the core pushes mixed,
// limited PCM to.
type AudioDestination interface {
	// WriteSamples accepts a full block or returns an error; partial
	// acceptance is not a defined contract.
	WriteSamples(samples []float32) error
	SampleRate() uint32
	Channels() uint16
	Flush() error
}

// AudioConfig describes a negotiated hardware stream configuration.
// SampleRate, Channels, Format, and BufferSize are validated against
// the enumerated option sets in ValidateAudioConfig before being
// accepted by a backend.
type AudioConfig struct {
	SampleRate    uint32
	Channels      uint16
	Format        SampleFormat
	BufferSize    uint32
	ExclusiveMode bool
}

// SampleFormat enumerates the hardware sample encodings a backend may
// negotiate.
type SampleFormat int

const (
	SampleFormatF32 SampleFormat = iota
	SampleFormatI16
	SampleFormatI24
	SampleFormatI32
	SampleFormatU8
)

var validSampleRates = map[uint32]bool{
	8000: true, 11025: true, 16000: true, 22050: true, 32000: true,
	44100: true, 48000: true, 88200: true, 96000: true, 176400: true, 192000: true,
}

// ValidateAudioConfig checks cfg against the enumerated option sets from
// spec §6: sample rate in the standard set, channels in [1,32], a known
// sample format, and a power-of-two buffer size in [64, 16384].
func ValidateAudioConfig(cfg AudioConfig) error {
	if !validSampleRates[cfg.SampleRate] {
		return ErrConfigUnsupported
	}
	if cfg.Channels < 1 || cfg.Channels > 32 {
		return ErrConfigUnsupported
	}
	switch cfg.Format {
	case SampleFormatF32, SampleFormatI16, SampleFormatI24, SampleFormatI32, SampleFormatU8:
	default:
		return ErrConfigUnsupported
	}
	if cfg.BufferSize < 64 || cfg.BufferSize > 16384 || roundUpPow2(int(cfg.BufferSize)) != int(cfg.BufferSize) {
		return ErrConfigUnsupported
	}
	return nil
}

// DeviceDescriptor describes one device an AudioBackend enumerated.
type DeviceDescriptor struct {
	ID                string
	Name              string
	DefaultSampleRate uint32
	DefaultChannels   uint16
	DefaultFormat     SampleFormat
	IsDefault         bool
}

// AudioBackend is the host-provided collaborator responsible for device
// enumeration and stream construction. No type in this module
// implements it: cmd/audiocored drives a real hardware API (malgo)
// directly, keeping device-driver code out of the core package.
type AudioBackend interface {
	// EnumerateDevices lists the devices currently available.
	EnumerateDevices() ([]DeviceDescriptor, error)
	// DefaultDevice returns the host's default output device.
	DefaultDevice() (DeviceDescriptor, error)
	// OpenCallback opens a stream with cfg, invoking fill once per
	// hardware callback to produce exactly len(out) samples (zero-fill
	// is the caller's responsibility on short production). Returns a
	// handle to stop the stream.
	OpenCallback(device DeviceDescriptor, cfg AudioConfig, fill func(out []float32)) (StreamHandle, error)
}

// StreamHandle controls a backend stream opened by AudioBackend.
type StreamHandle interface {
	Stop() error
}
