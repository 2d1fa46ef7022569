package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bft-labs/imgship/pkg/log"
)

// ErrShutdownTimeout is returned when workers do not finish in time.
var ErrShutdownTimeout = errors.New("shutdown timeout")

// Machine is a state machine guarded by a transition table.
type Machine[S State] struct {
	mu      sync.RWMutex
	name    string
	state   S
	table   Table[S]
	logger  log.Logger
	emitter EventEmitter[S]
}

// NewMachine creates a machine in the initial state. logger and emitter may be nil.
func NewMachine[S State](name string, initial S, table Table[S], logger log.Logger, emitter EventEmitter[S]) *Machine[S] {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Machine[S]{
		name:    name,
		state:   initial,
		table:   table,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current state.
func (m *Machine[S]) State() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Can reports whether a transition to s is currently allowed.
func (m *Machine[S]) Can(s S) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.table.Allows(m.state, s)
}

// Terminal reports whether the current state has no outgoing transitions.
func (m *Machine[S]) Terminal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.table.Terminal(m.state)
}

// TransitionTo moves the machine to s if the table allows it.
func (m *Machine[S]) TransitionTo(s S, reason string) error {
	m.mu.Lock()
	old := m.state
	if !m.table.Allows(old, s) {
		m.mu.Unlock()
		return &TransitionError[S]{Machine: m.name, From: old, To: s}
	}
	m.state = s
	m.mu.Unlock()

	if m.emitter != nil {
		m.emitter.OnStateChange(old, s, reason)
	}

	m.logger.Debug("state transition",
		log.String("machine", m.name),
		log.String("from", old.String()),
		log.String("to", s.String()),
		log.String("reason", reason),
	)
	return nil
}

// Group tracks background workers and their cancel function.
type Group struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	cancel context.CancelFunc
	logger log.Logger
}

// NewGroup creates an empty worker group.
func NewGroup(logger log.Logger) *Group {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Group{logger: logger}
}

// SetCancel stores the cancel function used by Cancel.
func (g *Group) SetCancel(cancel context.CancelFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancel = cancel
}

// Cancel triggers the stored cancel function, if any.
func (g *Group) Cancel() {
	g.mu.Lock()
	cancel := g.cancel
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Go runs fn on a tracked goroutine.
func (g *Group) Go(fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn()
	}()
}

// WaitWithTimeout waits for all workers to finish.
// Returns ErrShutdownTimeout if the timeout expires.
func (g *Group) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		g.logger.Warn("shutdown timeout, forcing exit",
			log.Duration("timeout", timeout),
		)
		return ErrShutdownTimeout
	}
}
