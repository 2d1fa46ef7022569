package transfer

// Event reports how many payload bytes have been written and flushed.
type Event struct {
	BytesSent  int64
	TotalBytes int64
}

// Final reports whether the event marks the end of the payload.
func (e Event) Final() bool {
	return e.BytesSent == e.TotalBytes
}

// Reporter receives progress events. Report is called from the streaming
// loop and must return quickly; see package progress for an async wrapper.
type Reporter interface {
	Report(Event)
}

// ReporterFunc is func type of Reporter.
type ReporterFunc func(Event)

// Report implements Reporter.
func (f ReporterFunc) Report(e Event) {
	f(e)
}

type nopReporter struct{}

func (nopReporter) Report(Event) {}
