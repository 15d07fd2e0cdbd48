package simlink

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/helios-robotics/simlink/internal/app"
	"github.com/helios-robotics/simlink/internal/codec"
	"github.com/helios-robotics/simlink/internal/domain"
	"github.com/helios-robotics/simlink/internal/adapters/sink"
)

// Default configuration values.
const (
	DefaultHost            = domain.DefaultHost
	DefaultPort            = domain.DefaultPort
	DefaultConnectTimeout  = app.DefaultConnectTimeout
	DefaultWriteTimeout    = app.DefaultWriteTimeout
	DefaultDisconnectGrace = app.DefaultDisconnectGrace
	DefaultMaxFrameBytes   = codec.DefaultMaxFrameBytes
	DefaultQueueCapacity   = sink.DefaultQueueCapacity
	DefaultFraming         = string(codec.FramingNewline)
	DefaultConfigFileName  = "sim_config.json"
)

// Config holds the settings of a Channel.
// Zero values are replaced by defaults in SetDefaults.
type Config struct {
	// Host is the simulation host name or IP address.
	// Default: localhost
	Host string

	// Port is the TCP port of the simulation host.
	// Default: 10000
	Port int

	// ConnectTimeout bounds a single connection attempt.
	// Default: 5 seconds
	ConnectTimeout time.Duration

	// WriteTimeout bounds a single framed write.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// DisconnectGrace is how long Disconnect waits for the receiver to exit.
	// Default: 2 seconds
	DisconnectGrace time.Duration

	// Framing selects the stream framing: "newline" or "raw".
	// Default: newline
	Framing string

	// MaxFrameBytes limits the size of an inbound frame.
	// Default: 1 MiB
	MaxFrameBytes int

	// QueueCapacity is the size of the status event queue.
	// Default: 256
	QueueCapacity int

	// ConfigPath is the simulation configuration file used by LoadConfig
	// and SaveConfig when no path is given.
	// Default: $HOME/.simlink/sim_config.json
	ConfigPath string
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields with default values.
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.DisconnectGrace == 0 {
		c.DisconnectGrace = DefaultDisconnectGrace
	}
	if c.Framing == "" {
		c.Framing = DefaultFraming
	}
	if c.MaxFrameBytes == 0 {
		c.MaxFrameBytes = DefaultMaxFrameBytes
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.ConfigPath == "" {
		c.ConfigPath = DefaultConfigPath()
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Endpoint().Validate(); err != nil {
		return err
	}
	if _, err := codec.ParseFraming(c.Framing); err != nil {
		return err
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("%w: connect timeout must not be negative", ErrInvalidConfig)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("%w: write timeout must not be negative", ErrInvalidConfig)
	}
	if c.DisconnectGrace < 0 {
		return fmt.Errorf("%w: disconnect grace must not be negative", ErrInvalidConfig)
	}
	if c.MaxFrameBytes < 0 {
		return fmt.Errorf("%w: max frame bytes must not be negative", ErrInvalidConfig)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("%w: queue capacity must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Endpoint returns the configured simulation host endpoint.
func (c Config) Endpoint() Endpoint {
	return Endpoint{Host: c.Host, Port: c.Port}
}

// DefaultConfigPath returns $HOME/.simlink/sim_config.json, or a path
// relative to the working directory when the home directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(home, ".simlink", DefaultConfigFileName)
}
