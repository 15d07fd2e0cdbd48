package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType classifies a StatusEvent.
type EventType string

const (
	EventStateChanged   EventType = "state_changed"
	EventConnected      EventType = "connected"
	EventConnectFailed  EventType = "connect_failed"
	EventDisconnected   EventType = "disconnected"
	EventConnectionLost EventType = "connection_lost"
	EventReceived       EventType = "received"
	EventUnparsed       EventType = "unparsed"
	EventSent           EventType = "sent"
	EventSendFailed     EventType = "send_failed"
	EventConfigLoaded   EventType = "config_loaded"
	EventConfigSaved    EventType = "config_saved"
)

// StatusEvent is one entry of the status stream consumed by the embedding surface.
type StatusEvent struct {
	ID      string
	Time    time.Time
	Type    EventType
	Message string

	// Envelope is set for EventReceived.
	Envelope *Envelope

	// Raw is the inbound frame for EventReceived and EventUnparsed.
	Raw []byte

	// Err is set for failure events; for EventUnparsed it is a *DecodeError.
	Err error
}

// NewStatusEvent stamps a new event with an ID and the current time.
func NewStatusEvent(typ EventType, message string) StatusEvent {
	return StatusEvent{
		ID:      uuid.NewString(),
		Time:    time.Now(),
		Type:    typ,
		Message: message,
	}
}

// WithErr attaches an error to the event.
func (e StatusEvent) WithErr(err error) StatusEvent {
	e.Err = err
	return e
}

// String renders the status line shown to an operator.
func (e StatusEvent) String() string {
	if e.Err != nil && e.Type != EventUnparsed {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}
