package configwatcher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/helios-robotics/simlink/internal/testutil/testpeer"
	"github.com/helios-robotics/simlink/pkg/simlink"
)

// noopLogger implements simlink.Logger for testing.
type noopLogger struct{}

func (noopLogger) Debug(msg string, fields ...simlink.LogField) {}
func (noopLogger) Info(msg string, fields ...simlink.LogField)  {}
func (noopLogger) Warn(msg string, fields ...simlink.LogField)  {}
func (noopLogger) Error(msg string, fields ...simlink.LogField) {}

// fakeTarget records pushed configs.
type fakeTarget struct {
	mu        sync.Mutex
	state     simlink.State
	sent      []simlink.ConfigPayload
	sentCh    chan simlink.ConfigPayload
	loadCalls int
}

func newFakeTarget(state simlink.State) *fakeTarget {
	return &fakeTarget{state: state, sentCh: make(chan simlink.ConfigPayload, 16)}
}

func (f *fakeTarget) State() simlink.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeTarget) setState(s simlink.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
}

func (f *fakeTarget) LoadConfig(ctx context.Context, path string) (simlink.ConfigPayload, error) {
	f.mu.Lock()
	f.loadCalls++
	f.mu.Unlock()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg simlink.ConfigPayload
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *fakeTarget) SendConfig(cfg simlink.ConfigPayload) error {
	f.mu.Lock()
	f.sent = append(f.sent, cfg)
	f.mu.Unlock()
	f.sentCh <- cfg
	return nil
}

func writeConfig(t *testing.T, path, env string) {
	t.Helper()
	data := `{"environmentName":"` + env + `"}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitSent(t *testing.T, f *fakeTarget, timeout time.Duration) simlink.ConfigPayload {
	t.Helper()
	select {
	case cfg := <-f.sentCh:
		return cfg
	case <-time.After(timeout):
		t.Fatalf("no config sent within %v", timeout)
		return nil
	}
}

func TestPlugin_Name(t *testing.T) {
	if got := New(DefaultConfig()).Name(); got != "configwatcher" {
		t.Errorf("Name() = %q, want configwatcher", got)
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{})
	if p.debounceDelay != DefaultDebounceDelay {
		t.Errorf("debounceDelay = %v, want %v", p.debounceDelay, DefaultDebounceDelay)
	}
	if p.retryInterval != DefaultRetryInterval {
		t.Errorf("retryInterval = %v, want %v", p.retryInterval, DefaultRetryInterval)
	}
}

func TestPlugin_PushesChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.json")
	writeConfig(t, path, "Initial")

	target := newFakeTarget(simlink.StateConnected)
	p := New(Config{DebounceDelay: 10 * time.Millisecond, RetryInterval: time.Hour})
	if err := p.Watch(context.Background(), target, path, noopLogger{}); err != nil {
		t.Fatalf("Watch() = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	writeConfig(t, path, "Changed")

	cfg := waitSent(t, target, 2*time.Second)
	if env, _ := cfg.EnvironmentName(); env != "Changed" {
		t.Errorf("sent environmentName = %q, want Changed", env)
	}
	if p.Sent() == 0 {
		t.Error("Sent() = 0 after a push")
	}
}

func TestPlugin_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.json")
	writeConfig(t, path, "Initial")

	target := newFakeTarget(simlink.StateConnected)
	p := New(Config{DebounceDelay: 10 * time.Millisecond, RetryInterval: time.Hour})
	if err := p.Watch(context.Background(), target, path, noopLogger{}); err != nil {
		t.Fatalf("Watch() = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	writeConfig(t, filepath.Join(dir, "other.json"), "Other")

	select {
	case cfg := <-target.sentCh:
		t.Fatalf("unexpected push: %v", cfg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestPlugin_PendingWhileDisconnected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.json")
	writeConfig(t, path, "Initial")

	target := newFakeTarget(simlink.StateIdle)
	p := New(Config{DebounceDelay: 10 * time.Millisecond, RetryInterval: 30 * time.Millisecond})
	if err := p.Watch(context.Background(), target, path, noopLogger{}); err != nil {
		t.Fatalf("Watch() = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	writeConfig(t, path, "Offline")

	select {
	case cfg := <-target.sentCh:
		t.Fatalf("pushed while disconnected: %v", cfg)
	case <-time.After(150 * time.Millisecond):
	}

	target.setState(simlink.StateConnected)

	cfg := waitSent(t, target, 2*time.Second)
	if env, _ := cfg.EnvironmentName(); env != "Offline" {
		t.Errorf("sent environmentName = %q, want Offline", env)
	}
}

func TestPlugin_NoPathDisablesWatcher(t *testing.T) {
	p := New(DefaultConfig())
	if err := p.Watch(context.Background(), newFakeTarget(simlink.StateIdle), "", noopLogger{}); err != nil {
		t.Fatalf("Watch() = %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
}

func TestPlugin_ShutdownStopsWatching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.json")
	writeConfig(t, path, "Initial")

	target := newFakeTarget(simlink.StateConnected)
	p := New(Config{DebounceDelay: 10 * time.Millisecond, RetryInterval: time.Hour})
	if err := p.Watch(context.Background(), target, path, noopLogger{}); err != nil {
		t.Fatalf("Watch() = %v", err)
	}

	done := make(chan struct{})
	go func() {
		_ = p.Shutdown(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return")
	}

	writeConfig(t, path, "AfterShutdown")
	select {
	case cfg := <-target.sentCh:
		t.Fatalf("pushed after shutdown: %v", cfg)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestPlugin_EndToEnd wires the watcher to a real channel and peer.
func TestPlugin_EndToEnd(t *testing.T) {
	peer := testpeer.Start(t)
	path := filepath.Join(t.TempDir(), "sim.json")
	writeConfig(t, path, "Initial")

	ch, err := simlink.New(simlink.Config{
		Host:       peer.Endpoint().Host,
		Port:       peer.Endpoint().Port,
		ConfigPath: path,
	}, WithConfigWatcher(Config{DebounceDelay: 10 * time.Millisecond, RetryInterval: time.Hour}))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	t.Cleanup(func() { _ = ch.Close() })

	if err := ch.Open(context.Background()); err != nil {
		t.Fatalf("Open() = %v", err)
	}
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() = %v", err)
	}

	writeConfig(t, path, "Warehouse2")

	var msg struct {
		Type    string                `json:"type"`
		Content simlink.ConfigPayload `json:"content"`
	}
	// Editors may produce several events; the first push carries the new content.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if err := json.Unmarshal([]byte(peer.NextLine(t, 3*time.Second)), &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env, _ := msg.Content.EnvironmentName(); env == "Warehouse2" {
			break
		}
	}
	if msg.Type != "config" {
		t.Errorf("type = %q, want config", msg.Type)
	}
	if env, _ := msg.Content.EnvironmentName(); env != "Warehouse2" {
		t.Errorf("environmentName = %q, want Warehouse2", env)
	}
}
