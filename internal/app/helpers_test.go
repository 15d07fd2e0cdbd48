package app

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/helios-robotics/simlink/internal/domain"
	"github.com/helios-robotics/simlink/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// recordingSink records every published status event.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.StatusEvent
	notify chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{notify: make(chan struct{}, 1)}
}

func (r *recordingSink) Publish(ev domain.StatusEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *recordingSink) Events() []domain.StatusEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.StatusEvent{}, r.events...)
}

func (r *recordingSink) Count(typ domain.EventType) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

// WaitFor blocks until an event of the given type has been published.
func (r *recordingSink) WaitFor(t *testing.T, typ domain.EventType, timeout time.Duration) domain.StatusEvent {
	t.Helper()
	deadline := time.After(timeout)
	for {
		for _, ev := range r.Events() {
			if ev.Type == typ {
				return ev
			}
		}
		select {
		case <-r.notify:
		case <-deadline:
			t.Fatalf("no %s event within %v", typ, timeout)
			return domain.StatusEvent{}
		}
	}
}

// waitForState polls until the manager reaches want.
func waitForState(t *testing.T, m *ConnectionManager, want State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v after %v, want %v", m.State(), timeout, want)
}

// funcDialer adapts a function to ports.Dialer and counts calls.
type funcDialer struct {
	calls atomic.Int32
	fn    func(ctx context.Context, network, address string) (net.Conn, error)
}

func (d *funcDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.calls.Add(1)
	return d.fn(ctx, network, address)
}

// blockingDialer blocks until the dial context is done.
func blockingDialer() *funcDialer {
	return &funcDialer{fn: func(ctx context.Context, _, _ string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
}

// failingWriteConn reads normally but fails every write.
type failingWriteConn struct {
	net.Conn
}

func (failingWriteConn) Write([]byte) (int, error) {
	return 0, &net.OpError{Op: "write", Net: "tcp", Err: errors.New("broken pipe")}
}

func newManager(sink ports.StatusSink, dialer ports.Dialer) *ConnectionManager {
	cfg := DefaultConnectionConfig()
	cfg.DisconnectGrace = 2 * time.Second
	return NewConnectionManager(cfg, dialer, sink, &mockLogger{}, nil)
}
