package configwatcher

import "github.com/helios-robotics/simlink/pkg/simlink"

// WithConfigWatcher returns a simlink Option that enables config file watching.
// The watcher starts with Channel.Open and stops with Channel.Close.
//
// Usage:
//
//	ch, err := simlink.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) simlink.Option {
	plugin := New(cfg)
	return simlink.WithPlugin(plugin)
}

// WithDefaultConfigWatcher returns a simlink Option that enables config
// watching with default settings (debounce 100ms, retry every 5s).
//
// Usage:
//
//	ch, err := simlink.New(cfg, configwatcher.WithDefaultConfigWatcher())
func WithDefaultConfigWatcher() simlink.Option {
	return WithConfigWatcher(DefaultConfig())
}
