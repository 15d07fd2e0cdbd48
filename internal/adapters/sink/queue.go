// Package sink provides status sinks for the channel.
package sink

import (
	"context"
	"sync/atomic"

	"github.com/helios-robotics/simlink/internal/domain"
)

// DefaultQueueCapacity is the number of events a Queue holds before it
// starts dropping the oldest.
const DefaultQueueCapacity = 256

// Queue is a bounded, non-blocking status sink. Publish never blocks: when
// the queue is full the oldest event is discarded. The owner drains it from
// its own goroutine with Notify, Drain or Next.
type Queue struct {
	events  chan domain.StatusEvent
	dropped atomic.Uint64
}

// NewQueue creates a queue holding up to capacity events.
// A non-positive capacity selects DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{events: make(chan domain.StatusEvent, capacity)}
}

// Publish enqueues ev, evicting the oldest event if the queue is full.
func (q *Queue) Publish(ev domain.StatusEvent) {
	for {
		select {
		case q.events <- ev:
			return
		default:
		}
		select {
		case <-q.events:
			q.dropped.Add(1)
		default:
		}
	}
}

// Notify returns the channel events are delivered on. Receiving from it
// consumes the event.
func (q *Queue) Notify() <-chan domain.StatusEvent {
	return q.events
}

// Drain returns every queued event without blocking.
func (q *Queue) Drain() []domain.StatusEvent {
	var out []domain.StatusEvent
	for {
		select {
		case ev := <-q.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// Next blocks until an event is available or ctx is done.
func (q *Queue) Next(ctx context.Context) (domain.StatusEvent, error) {
	select {
	case ev := <-q.events:
		return ev, nil
	case <-ctx.Done():
		return domain.StatusEvent{}, ctx.Err()
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.events)
}

// Dropped returns how many events were evicted because the queue was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
