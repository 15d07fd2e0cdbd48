package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/helios-robotics/simlink/pkg/simlink"
)

// Log formats accepted by --log-format.
const (
	LogFormatAuto    = "auto"
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config holds CLI configuration for simlink.
type Config struct {
	Host string
	Port int

	ConnectTimeout  time.Duration
	WriteTimeout    time.Duration
	DisconnectGrace time.Duration
	Retries         int

	Framing       string
	MaxFrameBytes int
	QueueCapacity int

	SimConfigPath string
	Watch         bool

	LogLevel  string
	LogFormat string
	NoColor   bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Host:            simlink.DefaultHost,
		Port:            simlink.DefaultPort,
		ConnectTimeout:  simlink.DefaultConnectTimeout,
		WriteTimeout:    simlink.DefaultWriteTimeout,
		DisconnectGrace: simlink.DefaultDisconnectGrace,
		Retries:         1,
		Framing:         simlink.DefaultFraming,
		MaxFrameBytes:   simlink.DefaultMaxFrameBytes,
		QueueCapacity:   simlink.DefaultQueueCapacity,
		SimConfigPath:   simlink.DefaultConfigPath(),
		LogLevel:        "info",
		LogFormat:       LogFormatAuto,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	switch c.LogFormat {
	case LogFormatAuto, LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("log format %q: want auto, console or json", c.LogFormat)
	}

	cfg := c.ChannelConfig()
	return cfg.Validate()
}

// ChannelConfig converts the CLI configuration to a channel configuration.
func (c *Config) ChannelConfig() simlink.Config {
	return simlink.Config{
		Host:            c.Host,
		Port:            c.Port,
		ConnectTimeout:  c.ConnectTimeout,
		WriteTimeout:    c.WriteTimeout,
		DisconnectGrace: c.DisconnectGrace,
		Framing:         c.Framing,
		MaxFrameBytes:   c.MaxFrameBytes,
		QueueCapacity:   c.QueueCapacity,
		ConfigPath:      c.SimConfigPath,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	value = strings.ToLower(value)
	*dst = value == "true" || value == "1"
}
