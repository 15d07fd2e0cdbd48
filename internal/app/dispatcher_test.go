package app

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/helios-robotics/simlink/internal/domain"
	"github.com/helios-robotics/simlink/internal/testutil/testpeer"
)

// fakeSender records payloads without a socket.
type fakeSender struct {
	state    State
	err      error
	payloads [][]byte
}

func (f *fakeSender) State() State { return f.state }

func (f *fakeSender) Send(payload []byte) error {
	f.payloads = append(f.payloads, payload)
	return f.err
}

func connectedDispatcher(t *testing.T) (*Dispatcher, *testpeer.Peer, *recordingSink) {
	t.Helper()
	peer := testpeer.Start(t)
	sink := newRecordingSink()
	m := newManager(sink, nil)
	t.Cleanup(func() { _ = m.Disconnect() })

	if err := m.Connect(context.Background(), peer.Endpoint(), time.Second); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	return NewDispatcher(m, sink, &mockLogger{}), peer, sink
}

func TestDispatcher_StartCommandOnTheWire(t *testing.T) {
	d, peer, sink := connectedDispatcher(t)

	if err := d.SendCommand("start", map[string]any{}); err != nil {
		t.Fatalf("SendCommand() = %v", err)
	}

	got := peer.NextLine(t, time.Second)
	want := `{"type":"command","content":{"command":"start","parameters":{}}}`
	if got != want {
		t.Errorf("wire = %s, want %s", got, want)
	}

	ev := sink.WaitFor(t, domain.EventSent, time.Second)
	if ev.Message != "Sent command: start" {
		t.Errorf("sent message = %q", ev.Message)
	}
}

func TestDispatcher_Verbs(t *testing.T) {
	d, peer, _ := connectedDispatcher(t)

	verbs := []struct {
		name string
		call func() error
	}{
		{domain.CommandStart, d.Start},
		{domain.CommandStop, d.Stop},
		{domain.CommandPause, d.Pause},
		{domain.CommandResume, d.Resume},
	}

	for _, v := range verbs {
		if err := v.call(); err != nil {
			t.Fatalf("%s() = %v", v.name, err)
		}
		var msg struct {
			Type    string `json:"type"`
			Content struct {
				Command    string         `json:"command"`
				Parameters map[string]any `json:"parameters"`
			} `json:"content"`
		}
		line := peer.NextLine(t, time.Second)
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			t.Fatalf("peer got invalid JSON %q: %v", line, err)
		}
		if msg.Type != "command" || msg.Content.Command != v.name {
			t.Errorf("%s sent %s", v.name, line)
		}
		if msg.Content.Parameters == nil || len(msg.Content.Parameters) != 0 {
			t.Errorf("%s parameters = %v, want {}", v.name, msg.Content.Parameters)
		}
	}
}

func TestDispatcher_SendConfigOnTheWire(t *testing.T) {
	d, peer, sink := connectedDispatcher(t)

	cfg := domain.ConfigPayload{
		domain.FieldROSIPAddress:     "10.0.0.5",
		domain.FieldROSProtocol:      float64(0),
		domain.FieldConnectOnStartup: false,
		domain.FieldRobotModel:       float64(2),
		domain.FieldEnvironmentName:  "Lab",
	}
	if err := d.SendConfig(cfg); err != nil {
		t.Fatalf("SendConfig() = %v", err)
	}

	var msg struct {
		Type    string         `json:"type"`
		Content map[string]any `json:"content"`
	}
	line := peer.NextLine(t, time.Second)
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		t.Fatalf("peer got invalid JSON %q: %v", line, err)
	}
	if msg.Type != "config" {
		t.Errorf("type = %q, want config", msg.Type)
	}
	if !reflect.DeepEqual(msg.Content, map[string]any(cfg)) {
		t.Errorf("content = %v, want %v", msg.Content, cfg)
	}

	ev := sink.WaitFor(t, domain.EventSent, time.Second)
	if ev.Message != "Sent configuration" {
		t.Errorf("sent message = %q", ev.Message)
	}
}

func TestDispatcher_NotConnectedDoesNoIO(t *testing.T) {
	peer := testpeer.Start(t)
	dialer := blockingDialer()
	sink := newRecordingSink()
	m := newManager(sink, dialer)
	d := NewDispatcher(m, sink, &mockLogger{})

	err := d.SendCommand("start", nil)
	if !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("SendCommand() = %v, want ErrNotConnected", err)
	}
	if err := d.SendConfig(domain.DefaultConfigPayload()); !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("SendConfig() = %v, want ErrNotConnected", err)
	}

	if got := dialer.calls.Load(); got != 0 {
		t.Errorf("dial calls = %d, want 0", got)
	}
	if got := peer.Accepted(); got != 0 {
		t.Errorf("peer accepted %d connections, want 0", got)
	}
	if m.State() != StateIdle {
		t.Errorf("state = %v, want Idle", m.State())
	}
	if got := sink.Count(domain.EventSendFailed); got != 2 {
		t.Errorf("got %d send_failed events, want 2", got)
	}
	ev := sink.WaitFor(t, domain.EventSendFailed, time.Second)
	if ev.Message != "Failed to send command start" {
		t.Errorf("failure message = %q", ev.Message)
	}
}

func TestDispatcher_Errors(t *testing.T) {
	tests := []struct {
		name      string
		sender    *fakeSender
		command   string
		wantErr   error
		wantSends int
	}{
		{"not connected", &fakeSender{state: StateConnecting}, "start", domain.ErrNotConnected, 0},
		{"empty name", &fakeSender{state: StateConnected}, "  ", domain.ErrInvalidCommand, 0},
		{"broken pipe", &fakeSender{state: StateConnected, err: domain.ErrBrokenPipe}, "stop", domain.ErrBrokenPipe, 1},
		{"ok", &fakeSender{state: StateConnected}, "stop", nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := newRecordingSink()
			d := NewDispatcher(tt.sender, sink, &mockLogger{})

			err := d.SendCommand(tt.command, nil)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SendCommand() = %v, want %v", err, tt.wantErr)
			}
			if len(tt.sender.payloads) != tt.wantSends {
				t.Errorf("sends = %d, want %d", len(tt.sender.payloads), tt.wantSends)
			}
			wantType := domain.EventSent
			if tt.wantErr != nil {
				wantType = domain.EventSendFailed
			}
			if got := sink.Count(wantType); got != 1 {
				t.Errorf("got %d %s events, want 1", got, wantType)
			}
		})
	}
}

func TestDispatcher_SendConfigWithTypeMismatchStillSends(t *testing.T) {
	s := &fakeSender{state: StateConnected}
	d := NewDispatcher(s, nil, &mockLogger{})

	cfg := domain.ConfigPayload{domain.FieldRobotModel: "two"}
	if err := d.SendConfig(cfg); err != nil {
		t.Fatalf("SendConfig() = %v", err)
	}
	if len(s.payloads) != 1 {
		t.Fatalf("sends = %d, want 1", len(s.payloads))
	}
	want := `{"type":"config","content":{"robotModel":"two"}}`
	if string(s.payloads[0]) != want {
		t.Errorf("payload = %s, want %s", s.payloads[0], want)
	}
}
