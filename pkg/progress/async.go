package progress

import (
	"sync"
	"sync/atomic"

	"github.com/bft-labs/imgship/pkg/transfer"
)

// DefaultBuffer is the event buffer used when NewAsync gets a non-positive size.
const DefaultBuffer = 64

// Async forwards events to another reporter on its own goroutine.
// Intermediate events are dropped when the buffer is full; the final event
// of a transfer is always delivered.
type Async struct {
	next    transfer.Reporter
	ch      chan item
	done    chan struct{}
	dropped atomic.Int64
	once    sync.Once
}

// NewAsync starts forwarding to next. Call Close to flush and stop.
func NewAsync(next transfer.Reporter, buffer int) *Async {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	a := &Async{
		next: next,
		ch:   make(chan item, buffer),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

// item is an event or, when ack is set, a Sync marker.
type item struct {
	event transfer.Event
	ack   chan struct{}
}

func (a *Async) run() {
	defer close(a.done)
	for it := range a.ch {
		if it.ack != nil {
			close(it.ack)
			continue
		}
		a.next.Report(it.event)
	}
}

// Report implements transfer.Reporter. It must not be called after Close.
func (a *Async) Report(e transfer.Event) {
	if e.Final() {
		a.ch <- item{event: e}
		return
	}
	select {
	case a.ch <- item{event: e}:
	default:
		a.dropped.Add(1)
	}
}

// Sync blocks until every event reported before the call has been
// forwarded. It must not be called after Close.
func (a *Async) Sync() {
	ack := make(chan struct{})
	a.ch <- item{ack: ack}
	<-ack
}

// Dropped returns the number of intermediate events discarded so far.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

// Close delivers buffered events and waits for the forwarder to exit.
func (a *Async) Close() {
	a.once.Do(func() {
		close(a.ch)
	})
	<-a.done
}

// Multi fans events out to several reporters in order.
type Multi []transfer.Reporter

// Report implements transfer.Reporter.
func (m Multi) Report(e transfer.Event) {
	for _, r := range m {
		if r != nil {
			r.Report(e)
		}
	}
}
