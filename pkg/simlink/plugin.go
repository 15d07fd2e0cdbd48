package simlink

import "context"

// Plugin extends a Channel with optional behavior.
// Plugins are initialized by Channel.Open in registration order and shut
// down by Channel.Close in reverse order.
type Plugin interface {
	// Name returns a unique identifier used in logs.
	Name() string

	// Initialize starts the plugin. ctx is canceled when the channel closes.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to plugins on initialization.
type PluginConfig struct {
	// Channel is the channel the plugin is attached to.
	Channel *Channel

	// ConfigPath is the simulation configuration file of the channel.
	ConfigPath string

	// Logger is the channel's logger.
	Logger Logger
}
