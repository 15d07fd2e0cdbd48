package simlink

import (
	"github.com/rs/zerolog"

	logAdapter "github.com/helios-robotics/simlink/internal/adapters/log"
	"github.com/helios-robotics/simlink/internal/ports"
)

// Option configures optional behavior of a Channel.
type Option func(*options)

// options holds the optional configuration for a Channel.
type options struct {
	logger       ports.Logger
	eventHandler EventHandler
	sinks        []ports.StatusSink
	dialer       ports.Dialer
	repo         ports.ConfigRepository
	plugins      []Plugin
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: logAdapter.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithZerolog logs through an existing zerolog.Logger.
func WithZerolog(logger zerolog.Logger) Option {
	return WithLogger(logAdapter.NewZerologAdapter(logger))
}

// WithEventHandler sets a handler for channel events.
// If not provided, events only reach the queue returned by Channel.Events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithStatusSink adds a sink that receives every status event synchronously,
// in addition to the event queue. Sinks may be called from the receiver
// goroutine and must not block.
func WithStatusSink(s StatusSink) Option {
	return func(o *options) {
		o.sinks = append(o.sinks, s)
	}
}

// WithDialer replaces the TCP dialer, e.g. to add a proxy or for testing.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithConfigRepository replaces the file-based configuration store.
func WithConfigRepository(repo ConfigRepository) Option {
	return func(o *options) {
		o.repo = repo
	}
}

// WithPlugin registers a plugin to be initialized by Channel.Open.
// Plugins are initialized in registration order and shut down in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
