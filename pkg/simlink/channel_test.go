package simlink_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/helios-robotics/simlink/internal/testutil/testpeer"
	"github.com/helios-robotics/simlink/pkg/simlink"
)

// recordingHandler records state changes and status events.
type recordingHandler struct {
	mu       sync.Mutex
	changes  []simlink.StateChangeEvent
	statuses []simlink.StatusEvent
}

func (h *recordingHandler) OnStateChange(ev simlink.StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changes = append(h.changes, ev)
}

func (h *recordingHandler) OnStatus(ev simlink.StatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, ev)
}

func (h *recordingHandler) Changes() []simlink.StateChangeEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]simlink.StateChangeEvent{}, h.changes...)
}

func newChannel(t *testing.T, ep simlink.Endpoint, opts ...simlink.Option) *simlink.Channel {
	t.Helper()
	cfg := simlink.Config{
		Host:           ep.Host,
		Port:           ep.Port,
		ConnectTimeout: time.Second,
		ConfigPath:     filepath.Join(t.TempDir(), "sim.json"),
	}
	ch, err := simlink.New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func waitForState(t *testing.T, ch *simlink.Channel, want simlink.State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ch.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v after %v, want %v", ch.State(), timeout, want)
}

func TestConfig_SetDefaults(t *testing.T) {
	var cfg simlink.Config
	cfg.SetDefaults()

	if cfg.Host != "localhost" || cfg.Port != 10000 {
		t.Errorf("endpoint = %s:%d, want localhost:10000", cfg.Host, cfg.Port)
	}
	if cfg.ConnectTimeout != 5*time.Second {
		t.Errorf("ConnectTimeout = %v, want 5s", cfg.ConnectTimeout)
	}
	if cfg.DisconnectGrace != 2*time.Second {
		t.Errorf("DisconnectGrace = %v, want 2s", cfg.DisconnectGrace)
	}
	if cfg.Framing != "newline" {
		t.Errorf("Framing = %q, want newline", cfg.Framing)
	}
	if cfg.ConfigPath == "" {
		t.Error("ConfigPath not set")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*simlink.Config)
		wantErr error
	}{
		{"defaults", func(*simlink.Config) {}, nil},
		{"port out of range", func(c *simlink.Config) { c.Port = 70000 }, simlink.ErrInvalidEndpoint},
		{"blank host", func(c *simlink.Config) { c.Host = " " }, simlink.ErrInvalidEndpoint},
		{"unknown framing", func(c *simlink.Config) { c.Framing = "length" }, simlink.ErrInvalidConfig},
		{"negative timeout", func(c *simlink.Config) { c.ConnectTimeout = -1 }, simlink.ErrInvalidConfig},
		{"negative queue", func(c *simlink.Config) { c.QueueCapacity = -1 }, simlink.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := simlink.DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := simlink.New(simlink.Config{Framing: "bogus"}); !errors.Is(err, simlink.ErrInvalidConfig) {
		t.Errorf("New() = %v, want ErrInvalidConfig", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state simlink.State
		want  string
	}{
		{simlink.StateIdle, "Idle"},
		{simlink.StateConnecting, "Connecting"},
		{simlink.StateConnected, "Connected"},
		{simlink.StateDisconnecting, "Disconnecting"},
		{simlink.StateFailed, "Failed"},
		{simlink.State(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestChannel_CommandRoundTrip(t *testing.T) {
	peer := testpeer.Start(t)
	handler := &recordingHandler{}
	ch := newChannel(t, peer.Endpoint(), simlink.WithEventHandler(handler))

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if ch.State() != simlink.StateConnected {
		t.Fatalf("state = %v, want Connected", ch.State())
	}

	if err := ch.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if got, want := peer.NextLine(t, time.Second), `{"type":"command","content":{"command":"start","parameters":{}}}`; got != want {
		t.Errorf("peer got %s, want %s", got, want)
	}

	if err := ch.SendCommand("spawn", map[string]any{"count": 2}); err != nil {
		t.Fatalf("SendCommand() = %v", err)
	}
	if got, want := peer.NextLine(t, time.Second), `{"type":"command","content":{"command":"spawn","parameters":{"count":2}}}`; got != want {
		t.Errorf("peer got %s, want %s", got, want)
	}

	if err := ch.Disconnect(); err != nil {
		t.Fatalf("Disconnect() = %v", err)
	}
	if ch.State() != simlink.StateIdle {
		t.Errorf("state = %v, want Idle", ch.State())
	}

	changes := handler.Changes()
	want := []simlink.State{
		simlink.StateConnecting,
		simlink.StateConnected,
		simlink.StateDisconnecting,
		simlink.StateIdle,
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d state changes, want %d: %+v", len(changes), len(want), changes)
	}
	for i, c := range changes {
		if c.Current != want[i] {
			t.Errorf("change %d = %v, want %v", i, c.Current, want[i])
		}
	}
}

func TestChannel_EventsQueue(t *testing.T) {
	peer := testpeer.Start(t)
	ch := newChannel(t, peer.Endpoint())

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	peer.WaitConn(t, time.Second)
	peer.Write(t, `{"type":"command","content":{"command":"pause","parameters":{}}}`+"\n")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		ev, err := ch.Events().Next(ctx)
		if err != nil {
			t.Fatalf("no received event: %v", err)
		}
		if ev.Type != simlink.EventReceived {
			continue
		}
		if ev.Envelope == nil || ev.Envelope.Command == nil || ev.Envelope.Command.Name != simlink.CommandPause {
			t.Fatalf("received envelope = %+v", ev.Envelope)
		}
		return
	}
}

func TestChannel_SendWhileIdle(t *testing.T) {
	peer := testpeer.Start(t)
	ch := newChannel(t, peer.Endpoint())

	if err := ch.SendCommand("start", nil); !errors.Is(err, simlink.ErrNotConnected) {
		t.Errorf("SendCommand() = %v, want ErrNotConnected", err)
	}
	if err := ch.SendConfig(simlink.DefaultConfigPayload()); !errors.Is(err, simlink.ErrNotConnected) {
		t.Errorf("SendConfig() = %v, want ErrNotConnected", err)
	}
	if peer.Accepted() != 0 {
		t.Errorf("peer accepted %d connections, want 0", peer.Accepted())
	}

	var failed int
	for _, ev := range ch.Events().Drain() {
		if ev.Type == simlink.EventSendFailed {
			failed++
		}
	}
	if failed != 2 {
		t.Errorf("got %d send_failed events, want 2", failed)
	}
}

func TestChannel_ConnectRefused(t *testing.T) {
	peer := testpeer.Start(t)
	ep := peer.Endpoint()
	peer.Close()

	ch := newChannel(t, ep)

	err := ch.Connect(context.Background())
	var cerr *simlink.ConnectError
	if !errors.As(err, &cerr) || cerr.Kind != simlink.ConnectRefused {
		t.Fatalf("Connect() = %v, want refused ConnectError", err)
	}
	if ch.State() != simlink.StateFailed {
		t.Errorf("state = %v, want Failed", ch.State())
	}
}

func TestChannel_PeerCloseReturnsToIdle(t *testing.T) {
	peer := testpeer.Start(t)
	ch := newChannel(t, peer.Endpoint())

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	peer.WaitConn(t, time.Second)
	peer.CloseConn()

	waitForState(t, ch, simlink.StateIdle, 2*time.Second)
	if _, ok := ch.Endpoint(); ok {
		t.Error("Endpoint() still reports a session")
	}
}

func TestChannel_ConfigPersistence(t *testing.T) {
	ch := newChannel(t, simlink.Endpoint{Host: "localhost", Port: 10000})
	ctx := context.Background()

	cfg, err := ch.LoadOrDefaultConfig(ctx, "")
	if err != nil {
		t.Fatalf("LoadOrDefaultConfig() = %v", err)
	}
	if !reflect.DeepEqual(cfg, simlink.DefaultConfigPayload()) {
		t.Errorf("missing file did not yield defaults: %v", cfg)
	}

	cfg["environmentName"] = "Lab"
	if err := ch.SaveConfig(ctx, "", cfg); err != nil {
		t.Fatalf("SaveConfig() = %v", err)
	}
	got, err := ch.LoadConfig(ctx, "")
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("LoadConfig() = %v, want %v", got, cfg)
	}

	var saved, loaded bool
	for _, ev := range ch.Events().Drain() {
		switch ev.Type {
		case simlink.EventConfigSaved:
			saved = true
		case simlink.EventConfigLoaded:
			loaded = true
		}
	}
	if !saved || !loaded {
		t.Errorf("saved=%v loaded=%v, want both events", saved, loaded)
	}
}

func TestChannel_SendConfigContent(t *testing.T) {
	peer := testpeer.Start(t)
	ch := newChannel(t, peer.Endpoint())

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	cfg := simlink.DefaultConfigPayload()
	if err := ch.SendConfig(cfg); err != nil {
		t.Fatalf("SendConfig() = %v", err)
	}

	var msg struct {
		Type    string                `json:"type"`
		Content simlink.ConfigPayload `json:"content"`
	}
	if err := json.Unmarshal([]byte(peer.NextLine(t, time.Second)), &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "config" || !reflect.DeepEqual(msg.Content, cfg) {
		t.Errorf("peer got %+v, want config %v", msg, cfg)
	}
}
