package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bft-labs/imgship/pkg/header"
	"github.com/bft-labs/imgship/pkg/lifecycle"
	"github.com/bft-labs/imgship/pkg/log"
)

// Engine runs transfer sessions. An Engine holds no per-session state and
// may be shared, but each concurrent session needs its own channel.
type Engine struct {
	logger  log.Logger
	sleep   func(context.Context, time.Duration) error
	now     func() time.Time
	emitter lifecycle.EventEmitter[State]
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(logger log.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStateEmitter observes session state transitions.
func WithStateEmitter(emitter lifecycle.EventEmitter[State]) EngineOption {
	return func(e *Engine) {
		e.emitter = emitter
	}
}

// WithClock replaces time.Now and the context-aware sleep, for tests.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) EngineOption {
	return func(e *Engine) {
		e.now = now
		e.sleep = sleep
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: log.NewNoopLogger(),
		sleep:  sleepContext,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Transfer is shorthand for NewEngine().Transfer.
func Transfer(ctx context.Context, ch Channel, payload []byte, format header.Format, plan Plan, reporter Reporter) (Result, error) {
	return NewEngine().Transfer(ctx, ch, payload, format, plan, reporter)
}

// Validate checks that format and plan can carry a payload of n bytes.
// It performs no I/O.
func Validate(n int64, format header.Format, plan Plan) error {
	if err := format.Validate(); err != nil {
		return err
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("negative payload length %d", n)
	}
	if !format.Fits(uint64(n)) {
		return &header.OverflowError{Length: uint64(n), Width: format.Width}
	}
	return nil
}

// Send opens a port, transfers payload over it, and closes the port on
// every path. Open failures are reported as ErrChannelUnavailable.
func (e *Engine) Send(ctx context.Context, opener Opener, payload []byte, format header.Format, plan Plan, reporter Reporter) (Result, error) {
	total := int64(len(payload))
	start := e.now()
	if err := Validate(total, format, plan); err != nil {
		return Result{}, &Error{Kind: KindConfiguration, Op: "validate", State: StateIdle, TotalBytes: total, Err: err}
	}

	port, err := opener.Open(ctx)
	if err != nil {
		e.logger.Error("open channel failed", log.Err(err))
		return Result{}, &Error{
			Kind:       KindChannelUnavailable,
			Op:         "open",
			State:      StateIdle,
			TotalBytes: total,
			Elapsed:    e.now().Sub(start),
			Err:        err,
		}
	}
	defer func() {
		if cerr := port.Close(); cerr != nil {
			e.logger.Warn("close channel failed", log.Err(cerr))
		}
	}()

	return e.Transfer(ctx, port, payload, format, plan, reporter)
}

// Transfer writes the header and payload to ch. It does not close ch.
func (e *Engine) Transfer(ctx context.Context, ch Channel, payload []byte, format header.Format, plan Plan, reporter Reporter) (Result, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	total := int64(len(payload))
	s := newSession(total, e.now, e.logger, e.emitter)

	if err := Validate(total, format, plan); err != nil {
		return Result{}, s.fail(KindConfiguration, "validate", err)
	}
	var checker WritableChecker
	if plan.Backpressure {
		wc, ok := ch.(WritableChecker)
		if !ok {
			return Result{}, s.fail(KindConfiguration, "validate", ErrNoWritableCheck)
		}
		checker = wc
	}

	hdr, err := header.Encode(uint64(total), format)
	if err != nil {
		return Result{}, s.fail(KindConfiguration, "encode header", err)
	}
	s.hdrLen = len(hdr)

	if err := e.writeHeader(ctx, ch, hdr, format.Framing); err != nil {
		return Result{}, s.fail(kindFor(err), "write header", err)
	}
	s.advance(StateHeaderSent, "header flushed")
	e.logger.Debug("header sent",
		log.Hex("header", hdr),
		log.String("format", format.String()),
		log.Int64("length", total),
	)

	if plan.HeaderSettle > 0 {
		if err := e.sleep(ctx, plan.HeaderSettle); err != nil {
			return Result{}, s.fail(KindCanceled, "header settle", err)
		}
	}

	s.advance(StateStreaming, "payload started")
	p := newPoller(plan.PollInterval)
	for s.sent < total {
		if err := ctx.Err(); err != nil {
			return Result{}, s.fail(KindCanceled, "stream", err)
		}

		end := s.sent + int64(plan.UnitSize)
		if end > total {
			end = total
		}
		if err := writeFull(ch, payload[s.sent:end]); err != nil {
			return Result{}, s.fail(KindChannelFailure, "write unit", err)
		}
		if err := ch.Flush(); err != nil {
			return Result{}, s.fail(KindChannelFailure, "flush unit", err)
		}
		prev := s.sent
		s.sent = end
		s.units++

		if checker != nil {
			if err := e.waitWritable(ctx, checker, plan.WritableTimeout, p); err != nil {
				return Result{}, s.fail(kindFor(err), "wait writable", err)
			}
		}
		if plan.UnitDelay > 0 {
			if err := e.sleep(ctx, plan.UnitDelay); err != nil {
				return Result{}, s.fail(KindCanceled, "unit delay", err)
			}
		}

		if plan.Progress.due(s.units, prev, s.sent) {
			s.report(reporter)
		}
	}

	// the final event is always total/total, including empty payloads
	s.report(reporter)
	s.advance(StateComplete, "payload flushed")

	res := s.result()
	e.logger.Info("transfer complete",
		log.Int64("bytes", res.TotalBytes),
		log.Int("units", res.Units),
		log.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (s *session) report(r Reporter) {
	if s.lastEvent == s.sent {
		return
	}
	s.lastEvent = s.sent
	r.Report(Event{BytesSent: s.sent, TotalBytes: s.total})
}

func (e *Engine) writeHeader(ctx context.Context, ch Channel, hdr []byte, framing header.Framing) error {
	if framing == header.Bulk {
		if err := writeFull(ch, hdr); err != nil {
			return err
		}
		return ch.Flush()
	}
	for i := range hdr {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFull(ch, hdr[i:i+1]); err != nil {
			return err
		}
		if err := ch.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) waitWritable(ctx context.Context, wc WritableChecker, timeout time.Duration, p *poller) error {
	start := e.now()
	p.Reset()
	for {
		ok, err := wc.Writable()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if timeout > 0 && e.now().Sub(start) >= timeout {
			return fmt.Errorf("%w after %s", ErrWritableTimeout, timeout)
		}
		if err := e.sleep(ctx, p.Next()); err != nil {
			return err
		}
	}
}

func writeFull(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}

// kindFor maps an I/O-path error to a Kind, treating context errors as
// cancellation and everything else as a channel failure.
func kindFor(err error) Kind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindChannelFailure
}
