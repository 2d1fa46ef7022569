package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/imgship/pkg/header"
)

// Sentinel errors matched by *Error via errors.Is.
var (
	// ErrConfiguration is returned before any I/O when the header format or
	// plan cannot carry the payload.
	ErrConfiguration = errors.New("transfer: configuration error")

	// ErrChannelUnavailable is returned when the channel cannot be opened.
	// No bytes have been sent.
	ErrChannelUnavailable = errors.New("transfer: channel unavailable")

	// ErrChannelFailure is returned when a write, flush or writability
	// wait fails mid-transfer.
	ErrChannelFailure = errors.New("transfer: channel failure")

	// ErrCanceled is returned when the context is canceled mid-transfer.
	ErrCanceled = errors.New("transfer: canceled")

	// ErrWritableTimeout is wrapped when the channel stays unwritable for
	// longer than Plan.WritableTimeout.
	ErrWritableTimeout = errors.New("channel not writable before timeout")

	// ErrNoWritableCheck is wrapped when backpressure is requested on a
	// channel that does not implement WritableChecker.
	ErrNoWritableCheck = errors.New("channel has no writability check")
)

// Kind classifies transfer errors.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindChannelUnavailable
	KindChannelFailure
	KindEncodingOverflow
	KindCanceled
)

// String returns a stable lowercase name, used as a metrics label.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindChannelUnavailable:
		return "channel_unavailable"
	case KindChannelFailure:
		return "channel_failure"
	case KindEncodingOverflow:
		return "encoding_overflow"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindChannelUnavailable:
		return ErrChannelUnavailable
	case KindChannelFailure:
		return ErrChannelFailure
	case KindEncodingOverflow:
		return header.ErrEncodingOverflow
	case KindCanceled:
		return ErrCanceled
	default:
		return nil
	}
}

// Error is returned by Engine.Transfer and Engine.Send. It carries enough
// context for the caller to decide whether to restart the session.
type Error struct {
	Kind Kind

	// Op is the step that failed, e.g. "write header" or "flush unit".
	Op string

	// State is the session state when the failure occurred.
	State State

	// BytesSent is the payload offset after the last flushed unit.
	BytesSent  int64
	TotalBytes int64
	Elapsed    time.Duration

	Err error
}

// Error implements error.
func (e *Error) Error() string {
	msg := fmt.Sprintf("transfer: %s: %s", e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s (%d/%d bytes sent in %s, state %s)",
		msg, e.BytesSent, e.TotalBytes, e.Elapsed.Round(time.Millisecond), e.State)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf classifies err. It returns KindUnknown for nil or foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Kind
	}
	switch {
	case errors.Is(err, header.ErrEncodingOverflow):
		return KindEncodingOverflow
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	return KindUnknown
}
