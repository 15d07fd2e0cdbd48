package simlink

import (
	"github.com/helios-robotics/simlink/internal/adapters/sink"
	"github.com/helios-robotics/simlink/internal/domain"
	"github.com/helios-robotics/simlink/internal/ports"
)

type (
	// Endpoint is the host and port of the simulation.
	Endpoint = domain.Endpoint

	// ConfigPayload is the simulation configuration sent in config envelopes.
	ConfigPayload = domain.ConfigPayload

	// Envelope is a decoded inbound message.
	Envelope = domain.Envelope

	// Command is the content of a command envelope.
	Command = domain.Command

	// StatusEvent is one entry of the status stream.
	StatusEvent = domain.StatusEvent

	// EventType classifies a StatusEvent.
	EventType = domain.EventType

	// EventQueue is the bounded status queue returned by Channel.Events.
	EventQueue = sink.Queue

	// StatusSink receives every status event synchronously. Implementations
	// must not block.
	StatusSink = ports.StatusSink

	// Dialer opens the connection to the simulation host.
	// *net.Dialer satisfies this interface.
	Dialer = ports.Dialer

	// ConfigRepository loads and saves simulation configuration files.
	ConfigRepository = ports.ConfigRepository

	// Logger is the interface for structured logging.
	Logger = ports.Logger

	// LogField represents a structured log field.
	LogField = ports.Field
)

// Status event types.
const (
	EventStateChanged   = domain.EventStateChanged
	EventConnected      = domain.EventConnected
	EventConnectFailed  = domain.EventConnectFailed
	EventDisconnected   = domain.EventDisconnected
	EventConnectionLost = domain.EventConnectionLost
	EventReceived       = domain.EventReceived
	EventUnparsed       = domain.EventUnparsed
	EventSent           = domain.EventSent
	EventSendFailed     = domain.EventSendFailed
	EventConfigLoaded   = domain.EventConfigLoaded
	EventConfigSaved    = domain.EventConfigSaved
)

// Simulation commands.
const (
	CommandStart  = domain.CommandStart
	CommandStop   = domain.CommandStop
	CommandPause  = domain.CommandPause
	CommandResume = domain.CommandResume
)

// ParseEndpoint parses "host:port". A bare host gets the default port.
func ParseEndpoint(s string) (Endpoint, error) {
	return domain.ParseEndpoint(s)
}

// DefaultConfigPayload returns the configuration the simulation starts with.
func DefaultConfigPayload() ConfigPayload {
	return domain.DefaultConfigPayload()
}
