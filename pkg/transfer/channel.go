package transfer

import (
	"context"
	"io"
)

// Channel is a pre-configured, exclusively owned byte stream to the receiver.
type Channel interface {
	io.Writer

	// Flush blocks until previously written bytes have left the host.
	Flush() error
}

// WritableChecker is implemented by channels that can report, without
// blocking, whether they accept more data.
type WritableChecker interface {
	Writable() (bool, error)
}

// Port is a Channel that must be closed when the session ends.
type Port interface {
	Channel
	io.Closer
}

// Opener acquires a Port for one session.
type Opener interface {
	Open(ctx context.Context) (Port, error)
}

// OpenerFunc is func type of Opener.
type OpenerFunc func(ctx context.Context) (Port, error)

// Open implements Opener.
func (f OpenerFunc) Open(ctx context.Context) (Port, error) {
	return f(ctx)
}
