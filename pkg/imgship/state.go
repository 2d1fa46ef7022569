package imgship

import (
	"github.com/bft-labs/imgship/pkg/lifecycle"
	"github.com/bft-labs/imgship/pkg/transfer"
)

// State is the lifecycle state of a Shipper in background mode.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

var shipperTable = lifecycle.Table[State]{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting},
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// SessionStartEvent is emitted before a session opens the device.
type SessionStartEvent struct {
	ImagePath string
	Digest    string
	Size      int64
}

// SessionCompleteEvent is emitted after a successful transfer.
type SessionCompleteEvent struct {
	ImagePath string
	Result    transfer.Result
}

// SessionErrorEvent is emitted after a failed session.
type SessionErrorEvent struct {
	ImagePath string
	Error     error
	Kind      transfer.Kind
	BytesSent int64
}

// EventHandler receives shipper events. Calls are synchronous from the
// session goroutine and should return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnSessionStart(SessionStartEvent)
	OnSessionComplete(SessionCompleteEvent)
	OnSessionError(SessionErrorEvent)
}

// NoopEventHandler can be embedded to implement only some callbacks.
type NoopEventHandler struct{}

func (NoopEventHandler) OnStateChange(StateChangeEvent)         {}
func (NoopEventHandler) OnSessionStart(SessionStartEvent)       {}
func (NoopEventHandler) OnSessionComplete(SessionCompleteEvent) {}
func (NoopEventHandler) OnSessionError(SessionErrorEvent)       {}

// SessionState re-exports the per-transfer state for observers.
type SessionState = transfer.State
