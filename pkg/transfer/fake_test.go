package transfer

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"
)

var errInjected = errors.New("injected i/o error")

// fakeChannel records every write call and flush in order.
type fakeChannel struct {
	mu        sync.Mutex
	writes    [][]byte
	ops       []byte // 'w' write, 'f' flush, 'p' writability probe
	written   int64
	failAfter int64 // fail the write that would pass this many bytes; <0 never
	failFlush int   // fail the nth flush (1-based); 0 never
	flushes   int
	closed    bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{failAfter: -1}
}

func (c *fakeChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, 'w')
	if c.failAfter >= 0 && c.written+int64(len(p)) > c.failAfter {
		n := c.failAfter - c.written
		c.written += n
		return int(n), errInjected
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	c.written += int64(len(p))
	return len(p), nil
}

func (c *fakeChannel) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, 'f')
	c.flushes++
	if c.failFlush > 0 && c.flushes == c.failFlush {
		return errInjected
	}
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) writeCalls() int {
	n := 0
	for _, op := range c.ops {
		if op == 'w' {
			n++
		}
	}
	return n
}

// payload returns the concatenation of all writes after the first skip calls.
func (c *fakeChannel) payload(skip int) []byte {
	buf := bytes.NewBuffer([]byte{})
	for _, w := range c.writes[skip:] {
		buf.Write(w)
	}
	return buf.Bytes()
}

// pollingChannel adds a scripted writability probe.
type pollingChannel struct {
	*fakeChannel
	script []bool // consumed per probe; true once exhausted unless never
	never  bool
	probes int
}

func (c *pollingChannel) Writable() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, 'p')
	c.probes++
	if c.never {
		return false, nil
	}
	if len(c.script) == 0 {
		return true, nil
	}
	ok := c.script[0]
	c.script = c.script[1:]
	return ok, nil
}

// fakeClock advances only when slept on.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) Report(e Event) {
	r.events = append(r.events, e)
}

func testPayload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i>>8)
	}
	return b
}

func testEngine(clock *fakeClock, opts ...EngineOption) *Engine {
	return NewEngine(append([]EngineOption{WithClock(clock.Now, clock.Sleep)}, opts...)...)
}
