package ports

import "github.com/helios-robotics/simlink/internal/domain"

// StatusSink consumes the status stream of the channel.
//
// Publish is called from both the caller goroutine and the receiver
// goroutine. Implementations must be safe for concurrent use and must not
// block; a surface with single-threaded machinery should queue the event
// and drain it from its own context.
type StatusSink interface {
	Publish(event domain.StatusEvent)
}
