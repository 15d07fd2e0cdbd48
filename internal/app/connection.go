package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/helios-robotics/simlink/internal/codec"
	"github.com/helios-robotics/simlink/internal/domain"
	"github.com/helios-robotics/simlink/internal/ports"
)

// Default connection settings.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
)

// ConnectionConfig contains the settings of a ConnectionManager.
type ConnectionConfig struct {
	Framing         codec.Framing
	MaxFrameBytes   int
	WriteTimeout    time.Duration
	DisconnectGrace time.Duration
}

// DefaultConnectionConfig returns newline framing with default timeouts.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		Framing:         codec.FramingNewline,
		MaxFrameBytes:   codec.DefaultMaxFrameBytes,
		WriteTimeout:    DefaultWriteTimeout,
		DisconnectGrace: DefaultDisconnectGrace,
	}
}

// ConnectionManager owns the socket to the simulation host and its state machine.
//
// At most one session exists at a time. The session pointer is guarded by mu;
// mu is never held across a dial, read, write or join. The receiver goroutine
// ends its own session through sessionEnded, which only wins if the session is
// still current, so a caller-initiated Disconnect and a peer close never tear
// down the same session twice.
type ConnectionManager struct {
	cfg       ConnectionConfig
	dialer    ports.Dialer
	sink      ports.StatusSink
	logger    ports.Logger
	lifecycle *Lifecycle

	mu       sync.Mutex
	session  *session
	dialDone chan struct{}
	aborted  bool
	nextID   uint64
}

// session is one live socket. It is never reused across Connect calls.
type session struct {
	id        uint64
	endpoint  domain.Endpoint
	conn      net.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (s *session) close() {
	s.closeOnce.Do(func() { _ = s.conn.Close() })
}

// NewConnectionManager creates a manager in StateIdle.
// A nil dialer selects net.Dialer; a nil emitter only feeds the sink.
func NewConnectionManager(
	cfg ConnectionConfig,
	dialer ports.Dialer,
	sink ports.StatusSink,
	logger ports.Logger,
	emitter EventEmitter,
) *ConnectionManager {
	if cfg.Framing == "" {
		cfg.Framing = codec.FramingNewline
	}
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = codec.DefaultMaxFrameBytes
	}
	if cfg.DisconnectGrace <= 0 {
		cfg.DisconnectGrace = DefaultDisconnectGrace
	}
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	if sink == nil {
		sink = discardSink{}
	}
	if logger == nil {
		logger = nopLogger{}
	}

	m := &ConnectionManager{
		cfg:    cfg,
		dialer: dialer,
		sink:   sink,
		logger: logger,
	}
	m.lifecycle = NewLifecycle(logger, stateEmitter{sink: sink, next: emitter})
	return m
}

// State returns a snapshot of the connection state.
// Safe to call concurrently from any goroutine.
func (m *ConnectionManager) State() State {
	return m.lifecycle.State()
}

// Endpoint returns the endpoint of the live session.
func (m *ConnectionManager) Endpoint() (domain.Endpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return domain.Endpoint{}, false
	}
	return m.session.endpoint, true
}

// Connect dials the simulation host and starts the receiver.
// It is valid only from StateIdle or StateFailed and blocks up to timeout.
// On failure the state is StateFailed and a *domain.ConnectError is returned.
func (m *ConnectionManager) Connect(ctx context.Context, ep domain.Endpoint, timeout time.Duration) error {
	if err := ep.Validate(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	m.mu.Lock()
	if m.session != nil || m.dialDone != nil || !m.lifecycle.CanConnect() {
		m.mu.Unlock()
		return domain.ErrAlreadyConnected
	}
	if err := m.lifecycle.TransitionTo(StateConnecting, "connect "+ep.String()); err != nil {
		m.mu.Unlock()
		return err
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	m.lifecycle.SetCancel(cancel)
	done := make(chan struct{})
	m.dialDone = done
	m.aborted = false
	m.mu.Unlock()

	conn, err := m.dialer.DialContext(dialCtx, "tcp", ep.Address())
	dialErr := dialCtx.Err()
	cancel()

	m.mu.Lock()
	m.dialDone = nil
	close(done)
	m.lifecycle.SetCancel(nil)

	if m.aborted {
		m.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		m.logger.Info("connect aborted by disconnect", ports.String("endpoint", ep.String()))
		return domain.ErrConnectAborted
	}

	if err != nil {
		cerr := classifyDialError(ep, err, dialErr)
		_ = m.lifecycle.TransitionTo(StateFailed, cerr.Kind.String())
		m.mu.Unlock()
		m.logger.Warn("connect failed",
			ports.String("endpoint", ep.String()),
			ports.String("kind", cerr.Kind.String()),
			ports.Err(err),
		)
		m.publish(domain.NewStatusEvent(domain.EventConnectFailed, "Connection error").WithErr(cerr))
		return cerr
	}

	m.nextID++
	s := &session{id: m.nextID, endpoint: ep, conn: conn}
	m.session = s
	_ = m.lifecycle.TransitionTo(StateConnected, "connected to "+ep.String())
	m.lifecycle.AddWorker()
	m.mu.Unlock()

	m.publish(domain.NewStatusEvent(domain.EventConnected, "Connected to "+ep.String()))
	go m.receive(s)
	return nil
}

// ConnectWithRetry repeats Connect with exponential backoff until it succeeds,
// ctx is done, or attempts connection failures have occurred.
// attempts <= 0 retries until ctx is done. Only *domain.ConnectError is retried.
func (m *ConnectionManager) ConnectWithRetry(ctx context.Context, ep domain.Endpoint, timeout time.Duration, attempts int) error {
	b := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	for attempt := 1; ; attempt++ {
		err := m.Connect(ctx, ep, timeout)
		if err == nil {
			return nil
		}
		var cerr *domain.ConnectError
		if !errors.As(err, &cerr) {
			return err
		}
		if attempts > 0 && attempt >= attempts {
			return err
		}
		m.logger.Warn("connect attempt failed, retrying",
			ports.Int("attempt", attempt),
			ports.Duration("backoff", b.Current()),
			ports.Err(err),
		)
		if err := b.Wait(ctx); err != nil {
			return err
		}
	}
}

// Send writes one framed payload to the simulation host.
// It returns domain.ErrNotConnected outside StateConnected. A failed write
// returns an error wrapping domain.ErrBrokenPipe and tears the session down
// in the background; Send itself does not wait for that.
func (m *ConnectionManager) Send(payload []byte) error {
	m.mu.Lock()
	s := m.session
	m.mu.Unlock()
	if s == nil {
		return domain.ErrNotConnected
	}

	frame := m.cfg.Framing.Frame(payload)

	s.writeMu.Lock()
	if m.cfg.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	}
	_, err := s.conn.Write(frame)
	s.writeMu.Unlock()

	if err != nil {
		// The receiver of a current session is still counted, so the
		// worker count is never zero here.
		m.mu.Lock()
		current := m.session == s
		if current {
			m.lifecycle.AddWorker()
		}
		m.mu.Unlock()
		if current {
			go func() {
				defer m.lifecycle.WorkerDone()
				m.sessionEnded(s, fmt.Errorf("write: %w", err))
			}()
		}
		return fmt.Errorf("%w: %v", domain.ErrBrokenPipe, err)
	}
	return nil
}

// Disconnect tears down the dial or session, if any, and returns to StateIdle.
// It is idempotent and valid from any state. Closing the socket unblocks the
// receiver's read; the receiver is joined within the disconnect grace period.
func (m *ConnectionManager) Disconnect() error {
	m.mu.Lock()

	if done := m.dialDone; done != nil {
		m.aborted = true
		_ = m.lifecycle.TransitionTo(StateDisconnecting, "disconnect during connect")
		m.mu.Unlock()

		m.lifecycle.Cancel()
		var err error
		select {
		case <-done:
		case <-time.After(m.cfg.DisconnectGrace):
			err = domain.ErrShutdownTimeout
		}
		_ = m.lifecycle.TransitionTo(StateIdle, "connect aborted")
		m.publish(domain.NewStatusEvent(domain.EventDisconnected, "Disconnected"))
		return err
	}

	s := m.session
	if s == nil {
		state := m.lifecycle.State()
		m.mu.Unlock()
		switch state {
		case StateFailed:
			return m.lifecycle.TransitionTo(StateIdle, "disconnect after failure")
		case StateDisconnecting:
			// A receiver-initiated teardown is in flight; wait for it.
			return m.lifecycle.WaitWithTimeout(m.cfg.DisconnectGrace)
		default:
			return nil
		}
	}

	m.session = nil
	_ = m.lifecycle.TransitionTo(StateDisconnecting, "disconnect requested")
	m.mu.Unlock()

	s.close()
	err := m.lifecycle.WaitWithTimeout(m.cfg.DisconnectGrace)

	_ = m.lifecycle.TransitionTo(StateIdle, "disconnected from "+s.endpoint.String())
	m.publish(domain.NewStatusEvent(domain.EventDisconnected, "Disconnected"))
	return err
}

// receive runs the receiver for one session and ends the session when the
// stream fails.
func (m *ConnectionManager) receive(s *session) {
	defer m.lifecycle.WorkerDone()

	r := NewReceiver(s.conn, m.cfg.Framing, m.cfg.MaxFrameBytes, m.sink, m.logger)
	err := r.Run()
	m.sessionEnded(s, err)
}

// sessionEnded tears s down after a transport failure. It is a no-op when s
// is no longer the current session, i.e. the caller already disconnected.
func (m *ConnectionManager) sessionEnded(s *session, cause error) {
	m.mu.Lock()
	if m.session != s {
		m.mu.Unlock()
		return
	}
	m.session = nil
	reason := "peer closed"
	if cause != nil && !errors.Is(cause, io.EOF) {
		reason = cause.Error()
	}
	_ = m.lifecycle.TransitionTo(StateDisconnecting, reason)
	m.mu.Unlock()

	s.close()
	m.logger.Warn("connection lost",
		ports.String("endpoint", s.endpoint.String()),
		ports.Uint64("session", s.id),
		ports.String("reason", reason),
	)
	m.publish(domain.NewStatusEvent(domain.EventConnectionLost, "Connection lost").WithErr(cause))

	_ = m.lifecycle.TransitionTo(StateIdle, "connection lost")
	m.publish(domain.NewStatusEvent(domain.EventDisconnected, "Disconnected"))
}

func (m *ConnectionManager) publish(ev domain.StatusEvent) {
	m.sink.Publish(ev)
}

// classifyDialError maps a dial failure onto a ConnectError kind.
// ctxErr is the dial context's error observed right after the dial returned.
func classifyDialError(ep domain.Endpoint, err, ctxErr error) *domain.ConnectError {
	cerr := &domain.ConnectError{Kind: domain.ConnectUnreachable, Endpoint: ep, Err: err}

	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.As(err, &dnsErr):
		if dnsErr.IsTimeout {
			cerr.Kind = domain.ConnectTimeout
		} else {
			cerr.Kind = domain.ConnectResolutionFailed
		}
	case errors.Is(err, syscall.ECONNREFUSED):
		cerr.Kind = domain.ConnectRefused
	case errors.Is(ctxErr, context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		cerr.Kind = domain.ConnectTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		cerr.Kind = domain.ConnectTimeout
	}
	return cerr
}

// stateEmitter forwards state changes to the status sink and an optional
// external emitter.
type stateEmitter struct {
	sink ports.StatusSink
	next EventEmitter
}

func (e stateEmitter) OnStateChange(previous, current State, reason string) {
	msg := fmt.Sprintf("State: %s -> %s (%s)", previous, current, reason)
	e.sink.Publish(domain.NewStatusEvent(domain.EventStateChanged, msg))
	if e.next != nil {
		e.next.OnStateChange(previous, current, reason)
	}
}

type discardSink struct{}

func (discardSink) Publish(domain.StatusEvent) {}

type nopLogger struct{}

func (nopLogger) Debug(string, ...ports.Field) {}
func (nopLogger) Info(string, ...ports.Field)  {}
func (nopLogger) Warn(string, ...ports.Field)  {}
func (nopLogger) Error(string, ...ports.Field) {}
