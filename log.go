// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the control/producer-thread structured logger. It must never
// be invoked from the audio callback thread — mirroring internal/lfq,
// which imports no logging library at all because every exported call
// on its queues is audio-thread-safe, this package keeps all logging
// on the slow-path operations (pool growth, mode transitions, health
// changes) and never inside EQBank.Process,
// Limiter.Process, or Ring.Read/Write.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// SetLogLevel adjusts the minimum level Log emits.
func SetLogLevel(level zerolog.Level) {
	Log = Log.Level(level)
}

// logPoolGrowth logs the rare path where BufferPool.Acquire had to
// allocate a fresh buffer because the pool was empty.
func logPoolGrowth(poolCapacity, currentSize int) {
	Log.Warn().
		Int("pool_capacity", poolCapacity).
		Int("current_size", currentSize).
		Msg("buffer pool exhausted, allocating fresh buffer")
}

// logHealthTransition logs a stream health state change on the control
// thread, one observer of HealthMonitor's broadcast.
func logHealthTransition(streamID uint64, t HealthTransition) {
	Log.Info().
		Uint64("stream_id", streamID).
		Str("from", t.From.String()).
		Str("to", t.To.String()).
		Msg("stream health transition")
}

// logModeTransition logs a hybrid backend mode change on the control
// thread.
func logModeTransition(from, to BackendMode) {
	Log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("backend mode transition")
}
