package app

import (
	"context"
	"sync"
	"time"

	"github.com/helios-robotics/simlink/internal/domain"
	"github.com/helios-robotics/simlink/internal/ports"
)

// DefaultDisconnectGrace is the maximum time to wait for the receiver to exit.
const DefaultDisconnectGrace = 2 * time.Second

// State represents the state of the connection to the simulation host.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnecting
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnecting:
		return "Disconnecting"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Lifecycle manages the connection state machine.
type Lifecycle struct {
	mu           sync.RWMutex
	state        State
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       ports.Logger
	eventEmitter EventEmitter
}

// EventEmitter is called when the connection state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// NewLifecycle creates a new lifecycle manager in StateIdle.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:        StateIdle,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current connection state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo attempts to transition to a new state.
// Returns an error if the transition is not valid.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state

	// Validate transition
	switch oldState {
	case StateIdle:
		if newState != StateConnecting {
			l.mu.Unlock()
			return domain.ErrNotConnected
		}
	case StateConnecting:
		if newState != StateConnected && newState != StateFailed && newState != StateDisconnecting {
			l.mu.Unlock()
			return domain.ErrAlreadyConnected
		}
	case StateConnected:
		if newState != StateDisconnecting {
			l.mu.Unlock()
			return domain.ErrAlreadyConnected
		}
	case StateDisconnecting:
		if newState != StateIdle {
			l.mu.Unlock()
			return domain.ErrAlreadyConnected
		}
	case StateFailed:
		if newState != StateConnecting && newState != StateIdle {
			l.mu.Unlock()
			return domain.ErrNotConnected
		}
	}

	l.state = newState
	l.mu.Unlock()

	// Emit event outside of lock
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)

	return nil
}

// CanConnect returns true if a connection attempt may start.
func (l *Lifecycle) CanConnect() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateIdle || l.state == StateFailed
}

// CanDisconnect returns true if there is a dial or session to tear down.
func (l *Lifecycle) CanDisconnect() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateConnected || l.state == StateConnecting
}

// SetCancel stores the cancel function of the in-flight dial.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel aborts the in-flight dial, if any.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// AddWorker increments the worker count.
func (l *Lifecycle) AddWorker() {
	l.wg.Add(1)
}

// WorkerDone decrements the worker count.
func (l *Lifecycle) WorkerDone() {
	l.wg.Done()
}

// WaitWithTimeout waits for all workers to finish with a timeout.
// Returns ErrShutdownTimeout if the timeout expires.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		l.logger.Warn("receiver did not exit within grace period",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
