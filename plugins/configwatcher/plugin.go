// Package configwatcher pushes the simulation configuration file to the
// simulation whenever it changes on disk.
package configwatcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/helios-robotics/simlink/pkg/simlink"
)

// Default settings.
const (
	DefaultDebounceDelay = 100 * time.Millisecond
	DefaultRetryInterval = 5 * time.Second
)

// Target is the part of a channel the watcher drives.
// *simlink.Channel satisfies this interface.
type Target interface {
	State() simlink.State
	LoadConfig(ctx context.Context, path string) (simlink.ConfigPayload, error)
	SendConfig(cfg simlink.ConfigPayload) error
}

// Plugin implements config watching functionality.
// It watches the directory of the configuration file, so editors that save
// through a rename are seen too, and sends the file to the simulation after
// every change while the channel is connected.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	debounceDelay time.Duration
	retryInterval time.Duration
	sendOnConnect bool
	path          string

	// Runtime state
	target   Target
	logger   simlink.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	pending  bool
	sent     uint64
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path overrides the configuration file of the channel.
	Path string

	// DebounceDelay is the delay to wait after a file change before sending.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// RetryInterval is how often a change made while disconnected is retried.
	// Default: 5 seconds
	RetryInterval time.Duration

	// SendOnConnect also sends the file once when the watcher first sees the
	// channel connected.
	SendOnConnect bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: DefaultDebounceDelay,
		RetryInterval: DefaultRetryInterval,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	return &Plugin{
		debounceDelay: cfg.DebounceDelay,
		retryInterval: cfg.RetryInterval,
		sendOnConnect: cfg.SendOnConnect,
		path:          cfg.Path,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize starts watching the configuration file of cfg.Channel.
func (p *Plugin) Initialize(ctx context.Context, cfg simlink.PluginConfig) error {
	if cfg.Channel == nil {
		return errors.New("configwatcher: no channel")
	}
	return p.Watch(ctx, cfg.Channel, cfg.ConfigPath, cfg.Logger)
}

// Watch starts watching path and pushing it to target. A Path set in the
// plugin Config takes precedence over path.
func (p *Plugin) Watch(ctx context.Context, target Target, path string, logger simlink.Logger) error {
	p.mu.Lock()
	if p.path == "" {
		p.path = path
	}
	p.target = target
	p.logger = logger
	path = p.path
	p.mu.Unlock()

	if path == "" {
		logger.Warn("Config watcher disabled: no config path")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	logger.Info("Config watcher plugin initialized", simlink.LogField{Key: "path", Value: path})

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops the config watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	p.wg.Wait()
	return nil
}

// Sent returns how many times the file has been pushed.
func (p *Plugin) Sent() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

// watchLoop watches for config file changes.
func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	retry := time.NewTicker(p.retryInterval)
	defer retry.Stop()

	name := filepath.Base(p.path)
	wasConnected := false

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.debounceSend(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("Config watcher: watcher error", simlink.LogField{Key: "error", Value: err})

		case <-retry.C:
			connected := p.target.State() == simlink.StateConnected
			p.mu.Lock()
			pending := p.pending
			p.mu.Unlock()
			if connected && (pending || (p.sendOnConnect && !wasConnected)) {
				p.send(ctx)
			}
			wasConnected = connected
		}
	}
}

func (p *Plugin) debounceSend(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		p.send(ctx)
	})
}

// send loads the file and pushes it. A change seen while disconnected is
// kept pending and retried on the next tick.
func (p *Plugin) send(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if p.target.State() != simlink.StateConnected {
		p.mu.Lock()
		p.pending = true
		p.mu.Unlock()
		p.logger.Debug("Config watcher: not connected, change kept pending")
		return
	}

	cfg, err := p.target.LoadConfig(ctx, p.path)
	if err != nil {
		// A half-written or removed file is retried on the next change.
		p.logger.Warn("Config watcher: load failed", simlink.LogField{Key: "error", Value: err})
		return
	}
	if err := p.target.SendConfig(cfg); err != nil {
		p.mu.Lock()
		p.pending = true
		p.mu.Unlock()
		p.logger.Warn("Config watcher: send failed", simlink.LogField{Key: "error", Value: err})
		return
	}

	p.mu.Lock()
	p.pending = false
	p.sent++
	p.mu.Unlock()
	p.logger.Info("Config watcher: sent configuration update")
}

// Ensure Plugin implements simlink.Plugin.
var _ simlink.Plugin = (*Plugin)(nil)
