package domain

import "encoding/json"

// Kind tags an Envelope. Values other than KindCommand and KindConfig are
// carried through as unknown kinds.
type Kind string

const (
	KindCommand Kind = "command"
	KindConfig  Kind = "config"
)

// Known reports whether the kind is one the channel understands.
func (k Kind) Known() bool {
	return k == KindCommand || k == KindConfig
}

// Well-known simulation commands.
const (
	CommandStart  = "start"
	CommandStop   = "stop"
	CommandPause  = "pause"
	CommandResume = "resume"
)

// Command is the content of a command envelope.
type Command struct {
	Name       string         `json:"command"`
	Parameters map[string]any `json:"parameters"`
}

// Envelope is one typed message exchanged with the simulation host.
// Exactly one of Command, Config or Raw is set, matching Kind.
type Envelope struct {
	Kind    Kind
	Command *Command
	Config  ConfigPayload

	// Raw holds the undecoded content of an unknown kind.
	Raw json.RawMessage
}

// NewCommandEnvelope builds a command envelope. Nil parameters become an empty map.
func NewCommandEnvelope(name string, params map[string]any) Envelope {
	if params == nil {
		params = map[string]any{}
	}
	return Envelope{
		Kind:    KindCommand,
		Command: &Command{Name: name, Parameters: params},
	}
}

// NewConfigEnvelope builds a config envelope. A nil payload becomes an empty map.
func NewConfigEnvelope(cfg ConfigPayload) Envelope {
	if cfg == nil {
		cfg = ConfigPayload{}
	}
	return Envelope{Kind: KindConfig, Config: cfg}
}
