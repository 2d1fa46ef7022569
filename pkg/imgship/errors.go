package imgship

import (
	"errors"

	"github.com/bft-labs/imgship/pkg/lifecycle"
)

var (
	// ErrAlreadyRunning is returned by Start when the shipper is running.
	ErrAlreadyRunning = errors.New("imgship: already running")

	// ErrNotRunning is returned by Stop when the shipper is not running.
	ErrNotRunning = errors.New("imgship: not running")

	// ErrInvalidConfig is wrapped by Config.Validate failures.
	ErrInvalidConfig = errors.New("imgship: invalid config")

	// ErrShutdownTimeout is returned by Stop when the worker does not exit
	// within ShutdownTimeout.
	ErrShutdownTimeout = lifecycle.ErrShutdownTimeout
)
