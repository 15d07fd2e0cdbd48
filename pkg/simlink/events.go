package simlink

// EventHandler receives notifications about Channel activity.
// Methods are called synchronously from the goroutine that caused the event,
// which may be the receiver. Implementations should return quickly.
type EventHandler interface {
	// OnStateChange is called after every connection state transition.
	OnStateChange(event StateChangeEvent)

	// OnStatus is called for every status event, including state changes.
	OnStatus(event StatusEvent)
}

// StateChangeEvent describes a connection state transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// BaseEventHandler provides no-op implementations of EventHandler.
// Embed it to implement only the methods you need.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnStatus(StatusEvent)           {}
