package app

import (
	"fmt"
	"strings"

	"github.com/helios-robotics/simlink/internal/codec"
	"github.com/helios-robotics/simlink/internal/domain"
	"github.com/helios-robotics/simlink/internal/ports"
)

// Sender is the part of the connection manager the dispatcher needs.
type Sender interface {
	State() State
	Send(payload []byte) error
}

// Dispatcher builds and sends command and config envelopes.
// Every attempt is reported to the status sink as sent or failed.
type Dispatcher struct {
	conn   Sender
	sink   ports.StatusSink
	logger ports.Logger
}

// NewDispatcher creates a dispatcher sending through conn.
func NewDispatcher(conn Sender, sink ports.StatusSink, logger ports.Logger) *Dispatcher {
	if sink == nil {
		sink = discardSink{}
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Dispatcher{conn: conn, sink: sink, logger: logger}
}

// SendCommand sends a command envelope. It fails fast with
// domain.ErrNotConnected, without any I/O, unless the channel is connected.
func (d *Dispatcher) SendCommand(name string, params map[string]any) error {
	failed := "Failed to send command " + name
	if d.conn.State() != StateConnected {
		return d.fail(failed, domain.ErrNotConnected)
	}
	if strings.TrimSpace(name) == "" {
		return d.fail(failed, fmt.Errorf("%w: empty command name", domain.ErrInvalidCommand))
	}
	return d.send(domain.NewCommandEnvelope(name, params), "Sent command: "+name, failed)
}

// SendConfig sends a config envelope with the same contract as SendCommand.
// Recognized fields with unexpected types are logged but still sent.
func (d *Dispatcher) SendConfig(cfg domain.ConfigPayload) error {
	failed := "Failed to send configuration"
	if d.conn.State() != StateConnected {
		return d.fail(failed, domain.ErrNotConnected)
	}
	for _, problem := range cfg.Check() {
		d.logger.Warn("config field type mismatch", ports.String("problem", problem))
	}
	return d.send(domain.NewConfigEnvelope(cfg), "Sent configuration", failed)
}

// Start asks the simulation to start.
func (d *Dispatcher) Start() error { return d.SendCommand(domain.CommandStart, nil) }

// Stop asks the simulation to stop.
func (d *Dispatcher) Stop() error { return d.SendCommand(domain.CommandStop, nil) }

// Pause asks the simulation to pause.
func (d *Dispatcher) Pause() error { return d.SendCommand(domain.CommandPause, nil) }

// Resume asks the simulation to resume.
func (d *Dispatcher) Resume() error { return d.SendCommand(domain.CommandResume, nil) }

func (d *Dispatcher) send(env domain.Envelope, sent, failed string) error {
	payload, err := codec.Encode(env)
	if err != nil {
		return d.fail(failed, err)
	}
	if err := d.conn.Send(payload); err != nil {
		return d.fail(failed, err)
	}
	d.logger.Debug("envelope sent",
		ports.String("kind", string(env.Kind)),
		ports.Int("bytes", len(payload)),
	)
	d.sink.Publish(domain.NewStatusEvent(domain.EventSent, sent))
	return nil
}

func (d *Dispatcher) fail(msg string, err error) error {
	d.logger.Warn("send failed", ports.String("action", msg), ports.Err(err))
	d.sink.Publish(domain.NewStatusEvent(domain.EventSendFailed, msg).WithErr(err))
	return err
}
