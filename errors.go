// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import (
	"errors"
	"fmt"

	"code.hybscloud.com/audiocore/internal/lfq"
)

// ErrWouldBlock indicates an operation could not proceed immediately: an
// internal/lfq queue is full on enqueue, or empty on dequeue. It is a
// control-flow signal, not a failure, and is reused from internal/lfq so
// callers can test queue backpressure with the same predicate. The
// sample Ring does not return it; Ring.Write and Ring.Read report
// backpressure as a short count.
var ErrWouldBlock = lfq.ErrWouldBlock

// IsWouldBlock reports whether err is (or wraps) ErrWouldBlock.
func IsWouldBlock(err error) bool {
	return lfq.IsWouldBlock(err)
}

var (
	// ErrBackendUnavailable is returned when no audio backend could be
	// opened (no devices, or the requested device is gone).
	ErrBackendUnavailable = errors.New("audiocore: backend unavailable")

	// ErrDeviceNotFound is returned when a named device does not appear
	// in the backend's enumeration.
	ErrDeviceNotFound = errors.New("audiocore: device not found")

	// ErrDeviceBusy is returned when a device is already claimed by
	// another stream.
	ErrDeviceBusy = errors.New("audiocore: device busy")

	// ErrConfigUnsupported is returned when a requested sample rate,
	// channel count, or format is outside what the backend can deliver.
	ErrConfigUnsupported = errors.New("audiocore: requested configuration unsupported")

	// ErrStreamFault is returned by RingDestination.WriteSamples when the
	// ring cannot accept the whole block.
	ErrStreamFault = errors.New("audiocore: stream fault")

	// ErrInvalidParameter is returned for out-of-range constructor or
	// setter arguments (negative capacities, zero sample rates, etc.).
	ErrInvalidParameter = errors.New("audiocore: invalid parameter")

	// ErrRouteNotFound is returned when Router.RemoveRoute is called
	// with an id that does not name a live route.
	ErrRouteNotFound = errors.New("audiocore: route not found")

	// ErrSourceNotFound is returned when a route names a source id the
	// router has no registration for.
	ErrSourceNotFound = errors.New("audiocore: source not found")

	// ErrDestinationNotFound is returned when a route names a
	// destination id the router has no registration for.
	ErrDestinationNotFound = errors.New("audiocore: destination not found")

	// ErrEmergencyStopActive is returned by the limiter and any
	// component that refuses to pass audio while an emergency stop is
	// latched.
	ErrEmergencyStopActive = errors.New("audiocore: emergency stop active")

	// ErrSandboxViolation is returned by the file validator when a path
	// resolves outside its configured sandbox root.
	ErrSandboxViolation = errors.New("audiocore: path escapes sandbox root")

	// ErrPathTraversal is returned when a path contains a ".." segment
	// that would otherwise be caught only after symlink resolution.
	ErrPathTraversal = errors.New("audiocore: path traversal rejected")

	// ErrFileTooLarge is returned when a container exceeds the
	// configured maximum file size.
	ErrFileTooLarge = errors.New("audiocore: file exceeds maximum size")

	// ErrContentMismatch is returned when a container's magic bytes do
	// not match any allowed signature, or its extension is not in the
	// allow-list. Signature and extension are not compared with each
	// other.
	ErrContentMismatch = errors.New("audiocore: content does not match an allowed container format")
)

// ConfigError reports a single invalid configuration field with enough
// context for a caller to fix and retry, rather than a bare "invalid
// config" sentinel.
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("audiocore: config field %q=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func newConfigError(field string, value any, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Err: err}
}
