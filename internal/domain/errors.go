package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions of the control channel.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrNotConnected is returned when a send is attempted outside the Connected state.
	// No I/O is performed.
	ErrNotConnected = errors.New("simlink: not connected")

	// ErrAlreadyConnected is returned when Connect is called while a session
	// is connecting, connected or disconnecting.
	ErrAlreadyConnected = errors.New("simlink: already connected")

	// ErrConnectAborted is returned by Connect when Disconnect is called
	// while the dial is still in flight.
	ErrConnectAborted = errors.New("simlink: connect aborted")

	// ErrBrokenPipe is returned when a write to the simulation host fails.
	// The channel is torn down asynchronously.
	ErrBrokenPipe = errors.New("simlink: broken pipe")

	// ErrMalformedEnvelope is wrapped by every DecodeError.
	ErrMalformedEnvelope = errors.New("simlink: malformed envelope")

	// ErrEncode is returned when an envelope payload cannot be serialized.
	ErrEncode = errors.New("simlink: encode envelope")

	// ErrFrameTooLarge is returned when an inbound frame exceeds the size limit.
	ErrFrameTooLarge = errors.New("simlink: frame too large")

	// ErrInvalidCommand is returned for commands without a name.
	ErrInvalidCommand = errors.New("simlink: invalid command")

	// ErrInvalidEndpoint is returned when an endpoint fails validation.
	ErrInvalidEndpoint = errors.New("simlink: invalid endpoint")

	// ErrShutdownTimeout is returned when the receiver does not exit within
	// the disconnect grace period.
	ErrShutdownTimeout = errors.New("simlink: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("simlink: invalid configuration")
)

// ConnectErrorKind classifies connection failures.
type ConnectErrorKind int

const (
	// ConnectUnreachable covers failures that are not refused, timed out or unresolved.
	ConnectUnreachable ConnectErrorKind = iota
	ConnectRefused
	ConnectTimeout
	ConnectResolutionFailed
)

// String returns a human-readable representation of the kind.
func (k ConnectErrorKind) String() string {
	switch k {
	case ConnectRefused:
		return "Refused"
	case ConnectTimeout:
		return "Timeout"
	case ConnectResolutionFailed:
		return "ResolutionFailed"
	default:
		return "Unreachable"
	}
}

// ConnectError is returned by Connect when the dial fails.
// The channel is left in the Failed state and a new Connect may be issued.
type ConnectError struct {
	Kind     ConnectErrorKind
	Endpoint Endpoint
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("simlink: connect %s: %s: %v", e.Endpoint, e.Kind, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// DecodeError reports inbound bytes that could not be decoded into an Envelope.
// Raw holds the offending frame so it can be surfaced as unparsed text.
type DecodeError struct {
	Raw []byte
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMalformedEnvelope, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrMalformedEnvelope, e.Err}
}
