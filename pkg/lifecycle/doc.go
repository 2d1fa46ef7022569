// Package lifecycle provides validated state machines and worker
// coordination.
//
// A Machine holds a current state and a transition table. Every transition
// is checked against the table; rejected transitions return a
// *TransitionError matching ErrInvalidTransition. Observers are notified
// outside of the machine's lock.
//
// # Usage
//
//	table := lifecycle.Table[State]{
//	    Idle:       {HeaderSent, Failed},
//	    HeaderSent: {Streaming, Failed},
//	    Streaming:  {Complete, Failed},
//	}
//	m := lifecycle.NewMachine("session", Idle, table, logger, nil)
//	if err := m.TransitionTo(HeaderSent, "header flushed"); err != nil {
//	    return err
//	}
//
// States with no outgoing transitions are terminal.
//
// Group tracks background workers and bounds how long shutdown may wait
// for them.
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
