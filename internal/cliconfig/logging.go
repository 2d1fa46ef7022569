package cliconfig

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/bft-labs/imgship/pkg/log"
)

// Logger returns the CLI logger: console output on stderr at info level,
// or debug level when verbose.
func Logger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return log.NewConsoleAdapter(os.Stderr, level).Logger()
}
