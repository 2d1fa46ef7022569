// Package log provides the logging abstraction used across imgship.
//
// Library code logs through the Logger interface so that embedding
// applications can route transfer logs into their own logging stack.
// A zerolog adapter is provided for the CLI, and a no-op logger is the
// default for library users and tests.
//
//	logger := log.NewZerologAdapter()
//	session := logger.With(log.String("device", "/dev/ttyUSB0"))
//	session.Info("header sent", log.Hex("header", hdr))
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
