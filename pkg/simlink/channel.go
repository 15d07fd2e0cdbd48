package simlink

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/helios-robotics/simlink/internal/adapters/fs"
	"github.com/helios-robotics/simlink/internal/adapters/sink"
	"github.com/helios-robotics/simlink/internal/app"
	"github.com/helios-robotics/simlink/internal/codec"
	"github.com/helios-robotics/simlink/internal/domain"
	"github.com/helios-robotics/simlink/internal/ports"
)

// Channel is a control channel to a simulation host.
// Use New() to create an instance, then Connect() to open the socket.
// All methods are safe for concurrent use.
type Channel struct {
	config     Config
	logger     ports.Logger
	conn       *app.ConnectionManager
	dispatcher *app.Dispatcher
	queue      *sink.Queue
	sink       ports.StatusSink
	repo       ports.ConfigRepository
	plugins    []Plugin

	mu     sync.Mutex
	opened bool
	cancel context.CancelFunc
}

// New creates a Channel in StateIdle. It does not connect.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Channel, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	framing, err := codec.ParseFraming(cfg.Framing)
	if err != nil {
		return nil, err
	}

	queue := sink.NewQueue(cfg.QueueCapacity)
	sinks := sink.Fanout{queue}
	sinks = append(sinks, o.sinks...)

	var emitter app.EventEmitter
	if o.eventHandler != nil {
		sinks = append(sinks, sink.Func(o.eventHandler.OnStatus))
		emitter = &eventEmitterWrapper{handler: o.eventHandler}
	}

	conn := app.NewConnectionManager(app.ConnectionConfig{
		Framing:         framing,
		MaxFrameBytes:   cfg.MaxFrameBytes,
		WriteTimeout:    cfg.WriteTimeout,
		DisconnectGrace: cfg.DisconnectGrace,
	}, o.dialer, sinks, o.logger, emitter)

	repo := o.repo
	if repo == nil {
		repo = fs.NewConfigFileRepository()
	}

	return &Channel{
		config:     cfg,
		logger:     o.logger,
		conn:       conn,
		dispatcher: app.NewDispatcher(conn, sinks, o.logger),
		queue:      queue,
		sink:       sinks,
		repo:       repo,
		plugins:    o.plugins,
	}, nil
}

// Config returns the configuration with defaults applied.
func (c *Channel) Config() Config {
	return c.config
}

// Open initializes the registered plugins. It does not connect.
// Calling Open on an open channel is a no-op.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opened {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	pluginCfg := PluginConfig{
		Channel:    c,
		ConfigPath: c.config.ConfigPath,
		Logger:     c.logger,
	}
	for i, p := range c.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			c.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			c.shutdownPlugins(c.plugins[:i])
			return err
		}
		c.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	c.cancel = cancel
	c.opened = true
	return nil
}

// Close disconnects and shuts the plugins down in reverse order.
// The channel can be opened again afterwards.
func (c *Channel) Close() error {
	c.mu.Lock()
	opened := c.opened
	cancel := c.cancel
	c.opened = false
	c.cancel = nil
	c.mu.Unlock()

	err := c.conn.Disconnect()

	if opened {
		if cancel != nil {
			cancel()
		}
		c.shutdownPlugins(c.plugins)
	}
	return err
}

func (c *Channel) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			c.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			c.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
}

// Connect connects to the configured endpoint.
func (c *Channel) Connect(ctx context.Context) error {
	return c.ConnectTo(ctx, c.config.Endpoint())
}

// ConnectTo connects to ep. It is valid only in StateIdle or StateFailed and
// blocks up to the connect timeout. On failure the state is StateFailed and
// the error is a *ConnectError.
func (c *Channel) ConnectTo(ctx context.Context, ep Endpoint) error {
	return c.conn.Connect(ctx, ep, c.config.ConnectTimeout)
}

// ConnectWithRetry connects to the configured endpoint, retrying with
// exponential backoff. attempts <= 0 retries until ctx is done.
func (c *Channel) ConnectWithRetry(ctx context.Context, attempts int) error {
	return c.conn.ConnectWithRetry(ctx, c.config.Endpoint(), c.config.ConnectTimeout, attempts)
}

// Disconnect closes the connection and waits for the receiver to exit.
// It is idempotent. ErrShutdownTimeout means the receiver outlived the grace
// period; the channel is Idle regardless.
func (c *Channel) Disconnect() error {
	return c.conn.Disconnect()
}

// SendCommand sends a command envelope. Without a connection it returns
// ErrNotConnected and performs no I/O.
func (c *Channel) SendCommand(name string, params map[string]any) error {
	return c.dispatcher.SendCommand(name, params)
}

// SendConfig sends a config envelope.
func (c *Channel) SendConfig(cfg ConfigPayload) error {
	return c.dispatcher.SendConfig(cfg)
}

// Start asks the simulation to start.
func (c *Channel) Start() error { return c.dispatcher.Start() }

// Stop asks the simulation to stop.
func (c *Channel) Stop() error { return c.dispatcher.Stop() }

// Pause asks the simulation to pause.
func (c *Channel) Pause() error { return c.dispatcher.Pause() }

// Resume asks the simulation to resume.
func (c *Channel) Resume() error { return c.dispatcher.Resume() }

// State returns the current connection state.
// Safe to call concurrently from any goroutine.
func (c *Channel) State() State {
	return convertState(c.conn.State())
}

// Endpoint returns the endpoint of the live connection.
func (c *Channel) Endpoint() (Endpoint, bool) {
	return c.conn.Endpoint()
}

// Events returns the status event queue. The owner drains it from its own
// goroutine; when nobody drains it the oldest events are dropped.
func (c *Channel) Events() *EventQueue {
	return c.queue
}

// LoadConfig reads the simulation configuration at path.
// An empty path selects Config.ConfigPath.
func (c *Channel) LoadConfig(ctx context.Context, path string) (ConfigPayload, error) {
	if path == "" {
		path = c.config.ConfigPath
	}
	cfg, err := c.repo.Load(ctx, path)
	if err != nil {
		c.logger.Warn("load config failed", ports.String("path", path), ports.Err(err))
		return nil, err
	}
	c.sink.Publish(domain.NewStatusEvent(domain.EventConfigLoaded, "Loaded config from "+path))
	return cfg, nil
}

// SaveConfig writes cfg to path atomically.
// An empty path selects Config.ConfigPath.
func (c *Channel) SaveConfig(ctx context.Context, path string, cfg ConfigPayload) error {
	if path == "" {
		path = c.config.ConfigPath
	}
	if err := c.repo.Save(ctx, path, cfg); err != nil {
		c.logger.Warn("save config failed", ports.String("path", path), ports.Err(err))
		return err
	}
	c.sink.Publish(domain.NewStatusEvent(domain.EventConfigSaved, "Saved config to "+path))
	return nil
}

// LoadOrDefaultConfig loads the configuration at path and falls back to
// DefaultConfigPayload when the file does not exist.
func (c *Channel) LoadOrDefaultConfig(ctx context.Context, path string) (ConfigPayload, error) {
	cfg, err := c.LoadConfig(ctx, path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfigPayload(), nil
	}
	return cfg, err
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interface.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}
