package lifecycle

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is matched by every rejected transition.
var ErrInvalidTransition = errors.New("invalid state transition")

// State is the constraint for machine states.
type State interface {
	comparable
	fmt.Stringer
}

// Table lists the allowed target states for each source state.
type Table[S State] map[S][]S

// Allows reports whether from -> to is listed.
func (t Table[S]) Allows(from, to S) bool {
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (t Table[S]) Terminal(s S) bool {
	return len(t[s]) == 0
}

// EventEmitter is called when a machine changes state.
type EventEmitter[S State] interface {
	OnStateChange(previous, current S, reason string)
}

// EmitterFunc is func type of EventEmitter.
type EmitterFunc[S State] func(previous, current S, reason string)

// OnStateChange implements EventEmitter.
func (f EmitterFunc[S]) OnStateChange(previous, current S, reason string) {
	f(previous, current, reason)
}

// TransitionError describes a rejected transition.
type TransitionError[S State] struct {
	Machine string
	From    S
	To      S
}

// Error implements error.
func (e *TransitionError[S]) Error() string {
	return fmt.Sprintf("%s: invalid transition %s -> %s", e.Machine, e.From, e.To)
}

// Is matches ErrInvalidTransition.
func (e *TransitionError[S]) Is(target error) bool {
	return target == ErrInvalidTransition
}
