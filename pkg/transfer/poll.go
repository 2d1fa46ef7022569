package transfer

import "time"

const minPollInterval = 100 * time.Microsecond

// poller yields exponentially growing waits between writability probes,
// capped at max. A fresh wait starts from the initial interval.
type poller struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newPoller(max time.Duration) *poller {
	initial := minPollInterval
	if max < initial {
		initial = max
	}
	return &poller{initial: initial, max: max, current: initial}
}

// Next returns the current wait and doubles it for the following call.
func (p *poller) Next() time.Duration {
	d := p.current
	p.current *= 2
	if p.current > p.max {
		p.current = p.max
	}
	return d
}

// Reset restarts from the initial interval.
func (p *poller) Reset() {
	p.current = p.initial
}
