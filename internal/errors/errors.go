// Package errors provides domain-specific error types for telemon.
//
// These types carry structured context (operation, device, offending
// frame) that lets each asynchronous channel decide locally whether a
// failure ends its chain or is merely skipped.
package errors

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrCanceled is delivered to a completion handler whose pending
	// wait or read was cancelled before it could complete.
	ErrCanceled = errors.New("operation canceled")

	ErrPortClosed     = errors.New("serial port closed")
	ErrInFlight       = errors.New("operation already in flight")
	ErrMalformedFrame = errors.New("malformed frame")
	ErrMissingDevice  = errors.New("serial device path is required (use --help for usage)")
	ErrReactorStopped = errors.New("reactor has stopped")
)

// ── Structured error types ───────────────────────────────────────────

// SerialError represents a failure on the serial device.
type SerialError struct {
	Op        string // operation: "open", "configure", "read", "close"
	Device    string // device path
	Err       error  // underlying error
	Retryable bool   // whether the read chain may continue
}

func (e *SerialError) Error() string {
	s := fmt.Sprintf("serial %s %s: %v", e.Op, e.Device, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *SerialError) Unwrap() error { return e.Err }

// FrameError describes a delimited line whose payload did not decode.
type FrameError struct {
	Line []byte
	Err  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %q: %v", e.Line, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// Is makes every FrameError match ErrMalformedFrame.
func (e *FrameError) Is(target error) bool { return target == ErrMalformedFrame }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a SerialError, detecting retryability from the
// underlying error.
func Wrap(op, device string, err error) *SerialError {
	return &SerialError{
		Op:        op,
		Device:    device,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// Malformed wraps a decode failure for line.
func Malformed(line []byte, err error) *FrameError {
	cp := make([]byte, len(line))
	copy(cp, line)
	return &FrameError{Line: cp, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether a failed read leaves the channel usable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *SerialError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return classifyRetryable(err)
}

// IsConnectionLevel reports whether err ends a read chain for good:
// cancellation, a closed device, end of stream, or any failure that is
// not known to be transient.
func IsConnectionLevel(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCanceled) || errors.Is(err, ErrPortClosed) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
		return true
	}
	return !IsRetryable(err)
}

// IsBusyDevice reports whether an open failed because another process
// holds the device, or for a reason IsRetryable accepts.
func IsBusyDevice(err error) bool {
	return errors.Is(err, syscall.EBUSY) || IsRetryable(err)
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return classifyRetryable(pe.Err)
	}
	var t interface{ Timeout() bool }
	if errors.As(err, &t) {
		return t.Timeout()
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
