package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/helios-robotics/simlink/internal/domain"
)

// wireEnvelope is the JSON shape on the wire.
type wireEnvelope struct {
	Type    string `json:"type"`
	Content any    `json:"content,omitempty"`
}

// Encode serializes an envelope to UTF-8 JSON.
// Output is deterministic: map keys are emitted in sorted order.
func Encode(env domain.Envelope) ([]byte, error) {
	w := wireEnvelope{Type: string(env.Kind)}

	switch env.Kind {
	case "":
		return nil, fmt.Errorf("%w: missing kind", domain.ErrEncode)
	case domain.KindCommand:
		if env.Command == nil {
			return nil, fmt.Errorf("%w: command envelope without command", domain.ErrEncode)
		}
		cmd := *env.Command
		if cmd.Parameters == nil {
			cmd.Parameters = map[string]any{}
		}
		w.Content = cmd
	case domain.KindConfig:
		cfg := env.Config
		if cfg == nil {
			cfg = domain.ConfigPayload{}
		}
		w.Content = map[string]any(cfg)
	default:
		if len(env.Raw) > 0 {
			w.Content = env.Raw
		}
	}

	b, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncode, err)
	}
	return b, nil
}

// Decode parses one JSON document into an envelope.
//
// It returns a *domain.DecodeError when the bytes are not JSON, the type is
// missing or not a string, or a known kind carries content of the wrong
// shape. Unknown kinds are not an error: they come back with Kind set to
// the raw type and Raw set to the compacted content.
func Decode(data []byte) (domain.Envelope, error) {
	var w struct {
		Type    json.RawMessage `json:"type"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.Envelope{}, decodeErr(data, err)
	}
	if len(w.Type) == 0 || isNull(w.Type) {
		return domain.Envelope{}, decodeErr(data, errors.New("missing type"))
	}
	var kind string
	if err := json.Unmarshal(w.Type, &kind); err != nil {
		return domain.Envelope{}, decodeErr(data, fmt.Errorf("type is not a string: %s", w.Type))
	}
	if kind == "" {
		return domain.Envelope{}, decodeErr(data, errors.New("empty type"))
	}

	switch domain.Kind(kind) {
	case domain.KindCommand:
		cmd, err := decodeCommand(w.Content)
		if err != nil {
			return domain.Envelope{}, decodeErr(data, err)
		}
		return domain.Envelope{Kind: domain.KindCommand, Command: cmd}, nil

	case domain.KindConfig:
		if len(w.Content) == 0 || isNull(w.Content) {
			return domain.Envelope{}, decodeErr(data, errors.New("config without content"))
		}
		var cfg domain.ConfigPayload
		if err := json.Unmarshal(w.Content, &cfg); err != nil {
			return domain.Envelope{}, decodeErr(data, fmt.Errorf("config content: %w", err))
		}
		return domain.Envelope{Kind: domain.KindConfig, Config: cfg}, nil

	default:
		env := domain.Envelope{Kind: domain.Kind(kind)}
		if len(w.Content) > 0 && !isNull(w.Content) {
			var buf bytes.Buffer
			if err := json.Compact(&buf, w.Content); err != nil {
				return domain.Envelope{}, decodeErr(data, err)
			}
			env.Raw = buf.Bytes()
		}
		return env, nil
	}
}

func decodeCommand(content json.RawMessage) (*domain.Command, error) {
	if len(content) == 0 || isNull(content) {
		return nil, errors.New("command without content")
	}
	var c struct {
		Command    *string        `json:"command"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal(content, &c); err != nil {
		return nil, fmt.Errorf("command content: %w", err)
	}
	if c.Command == nil {
		return nil, errors.New("command content without command name")
	}
	if c.Parameters == nil {
		c.Parameters = map[string]any{}
	}
	return &domain.Command{Name: *c.Command, Parameters: c.Parameters}, nil
}

func decodeErr(data []byte, err error) error {
	raw := make([]byte, len(data))
	copy(raw, data)
	return &domain.DecodeError{Raw: raw, Err: err}
}

func isNull(b json.RawMessage) bool {
	return string(bytes.TrimSpace(b)) == "null"
}
