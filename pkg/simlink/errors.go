package simlink

import "github.com/helios-robotics/simlink/internal/domain"

// Errors returned by a Channel. Check them with errors.Is.
var (
	ErrNotConnected      = domain.ErrNotConnected
	ErrAlreadyConnected  = domain.ErrAlreadyConnected
	ErrConnectAborted    = domain.ErrConnectAborted
	ErrBrokenPipe        = domain.ErrBrokenPipe
	ErrMalformedEnvelope = domain.ErrMalformedEnvelope
	ErrEncode            = domain.ErrEncode
	ErrFrameTooLarge     = domain.ErrFrameTooLarge
	ErrInvalidCommand    = domain.ErrInvalidCommand
	ErrInvalidEndpoint   = domain.ErrInvalidEndpoint
	ErrShutdownTimeout   = domain.ErrShutdownTimeout
	ErrInvalidConfig     = domain.ErrInvalidConfig
)

type (
	// ConnectError describes a failed connection attempt. Check it with errors.As.
	ConnectError = domain.ConnectError

	// ConnectErrorKind classifies a ConnectError.
	ConnectErrorKind = domain.ConnectErrorKind

	// DecodeError describes an inbound frame that is not a valid envelope.
	DecodeError = domain.DecodeError
)

// Connect error kinds.
const (
	ConnectUnreachable      = domain.ConnectUnreachable
	ConnectRefused          = domain.ConnectRefused
	ConnectTimeout          = domain.ConnectTimeout
	ConnectResolutionFailed = domain.ConnectResolutionFailed
)
