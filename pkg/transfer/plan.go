package transfer

import (
	"errors"
	"fmt"
	"time"
)

// Defaults applied by DefaultPlan.
const (
	DefaultUnitSize        = 1024
	DefaultWritableTimeout = 5 * time.Second
	DefaultPollInterval    = 10 * time.Millisecond
)

// ErrInvalidPlan is wrapped by Plan.Validate failures.
var ErrInvalidPlan = errors.New("transfer: invalid plan")

// Cadence controls how often progress events are emitted.
// The final event is always emitted regardless of cadence.
type Cadence struct {
	// Units emits an event every Units payload units. 0 means every unit.
	Units int

	// Bytes emits an event whenever BytesSent crosses a multiple of Bytes.
	// Takes precedence over Units when positive.
	Bytes int64

	// FinalOnly suppresses all but the final event.
	FinalOnly bool
}

func (c Cadence) due(units int, prev, sent int64) bool {
	if c.FinalOnly {
		return false
	}
	if c.Bytes > 0 {
		return sent/c.Bytes > prev/c.Bytes
	}
	k := c.Units
	if k <= 0 {
		k = 1
	}
	return units%k == 0
}

// Plan describes how the payload is split into writes and paced.
type Plan struct {
	// UnitSize is the number of payload bytes per write. The last unit is
	// truncated to the remaining byte count.
	UnitSize int

	// UnitDelay is slept after every unit when positive.
	UnitDelay time.Duration

	// Backpressure polls the channel's WritableChecker after every unit
	// until it reports writable.
	Backpressure bool

	// WritableTimeout bounds each writability wait. 0 waits indefinitely.
	WritableTimeout time.Duration

	// PollInterval is the longest pause between writability probes.
	PollInterval time.Duration

	// HeaderSettle is slept after the header, before the first payload byte.
	HeaderSettle time.Duration

	// Progress is the progress event cadence.
	Progress Cadence
}

// DefaultPlan returns 1024-byte units with no pacing.
func DefaultPlan() Plan {
	return Plan{
		UnitSize:        DefaultUnitSize,
		WritableTimeout: DefaultWritableTimeout,
		PollInterval:    DefaultPollInterval,
	}
}

// Validate checks the plan for errors.
func (p Plan) Validate() error {
	if p.UnitSize < 1 {
		return fmt.Errorf("%w: unit size %d must be at least 1", ErrInvalidPlan, p.UnitSize)
	}
	if p.UnitDelay < 0 {
		return fmt.Errorf("%w: unit delay must not be negative", ErrInvalidPlan)
	}
	if p.HeaderSettle < 0 {
		return fmt.Errorf("%w: header settle must not be negative", ErrInvalidPlan)
	}
	if p.WritableTimeout < 0 {
		return fmt.Errorf("%w: writable timeout must not be negative", ErrInvalidPlan)
	}
	if p.Backpressure && p.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive with backpressure", ErrInvalidPlan)
	}
	if p.Progress.Units < 0 || p.Progress.Bytes < 0 {
		return fmt.Errorf("%w: progress cadence must not be negative", ErrInvalidPlan)
	}
	return nil
}

// Units returns the number of payload writes needed for n bytes.
func (p Plan) Units(n int64) int64 {
	if n <= 0 || p.UnitSize < 1 {
		return 0
	}
	return (n + int64(p.UnitSize) - 1) / int64(p.UnitSize)
}
