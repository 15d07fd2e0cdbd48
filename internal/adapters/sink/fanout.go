package sink

import (
	"github.com/helios-robotics/simlink/internal/domain"
	"github.com/helios-robotics/simlink/internal/ports"
)

// Fanout publishes every event to each of its sinks in order.
type Fanout []ports.StatusSink

// Publish forwards ev to every non-nil sink.
func (f Fanout) Publish(ev domain.StatusEvent) {
	for _, s := range f {
		if s != nil {
			s.Publish(ev)
		}
	}
}

// Func adapts a function to ports.StatusSink.
type Func func(domain.StatusEvent)

// Publish calls f(ev).
func (f Func) Publish(ev domain.StatusEvent) {
	f(ev)
}
