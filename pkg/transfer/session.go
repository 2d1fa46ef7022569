package transfer

import (
	"time"

	"github.com/bft-labs/imgship/pkg/lifecycle"
	"github.com/bft-labs/imgship/pkg/log"
)

// State is the state of a transfer session.
type State int

const (
	StateIdle State = iota
	StateHeaderSent
	StateStreaming
	StateComplete
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateHeaderSent:
		return "HeaderSent"
	case StateStreaming:
		return "Streaming"
	case StateComplete:
		return "Complete"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Complete and Failed are terminal.
var sessionTable = lifecycle.Table[State]{
	StateIdle:       {StateHeaderSent, StateFailed},
	StateHeaderSent: {StateStreaming, StateFailed},
	StateStreaming:  {StateComplete, StateFailed},
}

// Result describes a completed transfer.
type Result struct {
	TotalBytes  int64
	Elapsed     time.Duration
	Units       int
	HeaderBytes int
}

// session is the per-call transfer state. It is discarded when the call returns.
type session struct {
	machine   *lifecycle.Machine[State]
	now       func() time.Time
	start     time.Time
	total     int64
	sent      int64
	units     int
	hdrLen    int
	lastEvent int64
}

func newSession(total int64, now func() time.Time, logger log.Logger, emitter lifecycle.EventEmitter[State]) *session {
	return &session{
		machine:   lifecycle.NewMachine("session", StateIdle, sessionTable, logger, emitter),
		now:       now,
		start:     now(),
		total:     total,
		lastEvent: -1,
	}
}

func (s *session) advance(to State, reason string) {
	// transitions are driven by the engine in table order
	_ = s.machine.TransitionTo(to, reason)
}

func (s *session) fail(kind Kind, op string, err error) *Error {
	state := s.machine.State()
	s.advance(StateFailed, op)
	return &Error{
		Kind:       kind,
		Op:         op,
		State:      state,
		BytesSent:  s.sent,
		TotalBytes: s.total,
		Elapsed:    s.now().Sub(s.start),
		Err:        err,
	}
}

func (s *session) result() Result {
	return Result{
		TotalBytes:  s.sent,
		Elapsed:     s.now().Sub(s.start),
		Units:       s.units,
		HeaderBytes: s.hdrLen,
	}
}
