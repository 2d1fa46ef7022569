package imgship

import (
	"github.com/bft-labs/imgship/pkg/log"
	"github.com/bft-labs/imgship/pkg/metrics"
	"github.com/bft-labs/imgship/pkg/transfer"
)

// Option configures optional behavior of a Shipper.
type Option func(*options)

type options struct {
	logger       log.Logger
	opener       transfer.Opener
	reporter     transfer.Reporter
	eventHandler EventHandler
	plugins      []Plugin
	metrics      *metrics.Metrics
	engineOpts   []transfer.EngineOption
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOpener replaces the serial device opener, e.g. with a fake in tests
// or a TCP bridge to a remote UART.
func WithOpener(opener transfer.Opener) Option {
	return func(o *options) {
		o.opener = opener
	}
}

// WithReporter sets the progress reporter used by every session.
func WithReporter(r transfer.Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithEventHandler sets a handler for shipper events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the shipper starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithMetrics records every session in m. Config.MetricsFile, when set,
// receives the registry after each session.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithEngineOptions passes options through to the transfer engine.
func WithEngineOptions(opts ...transfer.EngineOption) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}
