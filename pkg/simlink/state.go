package simlink

import "github.com/helios-robotics/simlink/internal/app"

// State is the connection state of a Channel.
type State int

const (
	// StateIdle means there is no connection. Connect is allowed.
	StateIdle State = iota
	// StateConnecting means a dial is in flight.
	StateConnecting
	// StateConnected means the socket is open and the receiver is running.
	StateConnected
	// StateDisconnecting means the session is being torn down.
	StateDisconnecting
	// StateFailed means the last connection attempt failed. Connect is allowed.
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return convertToAppState(s).String()
}

func convertState(s app.State) State {
	switch s {
	case app.StateConnecting:
		return StateConnecting
	case app.StateConnected:
		return StateConnected
	case app.StateDisconnecting:
		return StateDisconnecting
	case app.StateFailed:
		return StateFailed
	default:
		return StateIdle
	}
}

func convertToAppState(s State) app.State {
	switch s {
	case StateIdle:
		return app.StateIdle
	case StateConnecting:
		return app.StateConnecting
	case StateConnected:
		return app.StateConnected
	case StateDisconnecting:
		return app.StateDisconnecting
	case StateFailed:
		return app.StateFailed
	default:
		return app.State(-1)
	}
}
