package lifecycle

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type light int

const (
	red light = iota
	green
	yellow
	broken
)

func (l light) String() string {
	switch l {
	case red:
		return "Red"
	case green:
		return "Green"
	case yellow:
		return "Yellow"
	case broken:
		return "Broken"
	default:
		return "Unknown"
	}
}

var lightTable = Table[light]{
	red:    {green, broken},
	green:  {yellow, broken},
	yellow: {red, broken},
}

type recorder struct {
	mu     sync.Mutex
	events [][2]light
}

func (r *recorder) OnStateChange(previous, current light, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, [2]light{previous, current})
}

func TestMachine_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    light
		to      light
		wantErr bool
	}{
		{"red to green", red, green, false},
		{"green to yellow", green, yellow, false},
		{"yellow to red", yellow, red, false},
		{"any to broken", green, broken, false},
		{"red to yellow", red, yellow, true},
		{"green to red", green, red, true},
		{"broken is terminal", broken, red, true},
		{"self transition", red, red, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine("light", tt.from, lightTable, nil, nil)
			err := m.TransitionTo(tt.to, "test")
			if (err != nil) != tt.wantErr {
				t.Fatalf("TransitionTo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("error %v does not match ErrInvalidTransition", err)
				}
				if m.State() != tt.from {
					t.Errorf("state = %v after rejected transition, want %v", m.State(), tt.from)
				}
			} else if m.State() != tt.to {
				t.Errorf("state = %v, want %v", m.State(), tt.to)
			}
		})
	}
}

func TestMachine_EmitsEvents(t *testing.T) {
	rec := &recorder{}
	m := NewMachine[light]("light", red, lightTable, nil, rec)

	_ = m.TransitionTo(green, "go")
	_ = m.TransitionTo(red, "invalid")
	_ = m.TransitionTo(broken, "fault")

	if len(rec.events) != 2 {
		t.Fatalf("got %d events, want 2", len(rec.events))
	}
	if rec.events[0] != [2]light{red, green} || rec.events[1] != [2]light{green, broken} {
		t.Errorf("events = %v", rec.events)
	}
	if !m.Terminal() {
		t.Error("broken should be terminal")
	}
}

func TestMachine_Can(t *testing.T) {
	m := NewMachine("light", red, lightTable, nil, EmitterFunc[light](func(_, _ light, _ string) {}))
	if !m.Can(green) {
		t.Error("Can(green) = false from red")
	}
	if m.Can(yellow) {
		t.Error("Can(yellow) = true from red")
	}
}

func TestTransitionError_Message(t *testing.T) {
	err := &TransitionError[light]{Machine: "light", From: red, To: yellow}
	if got, want := err.Error(), "light: invalid transition Red -> Yellow"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestGroup_WaitWithTimeout(t *testing.T) {
	g := NewGroup(nil)
	release := make(chan struct{})
	g.Go(func() { <-release })

	if err := g.WaitWithTimeout(20 * time.Millisecond); !errors.Is(err, ErrShutdownTimeout) {
		t.Fatalf("WaitWithTimeout() = %v, want ErrShutdownTimeout", err)
	}

	close(release)
	if err := g.WaitWithTimeout(time.Second); err != nil {
		t.Fatalf("WaitWithTimeout() = %v, want nil", err)
	}
}

func TestGroup_Cancel(t *testing.T) {
	g := NewGroup(nil)
	g.Cancel() // no cancel set

	called := false
	g.SetCancel(func() { called = true })
	g.Cancel()
	if !called {
		t.Error("cancel func not called")
	}
}
