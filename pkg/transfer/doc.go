// Package transfer streams an image to a bootloader over a byte channel.
//
// A transfer writes the length header (see package header), optionally
// waits for the receiver to settle, then writes the payload in fixed-size
// units. After every unit the channel is flushed and the configured pacing
// is applied: a writability check, a fixed delay, or both.
//
// # Usage
//
//	engine := transfer.NewEngine(transfer.WithLogger(logger))
//	preset, _ := transfer.LookupPreset("u32le-chunked")
//	res, err := engine.Send(ctx, opener, img, preset.Format, preset.Plan, reporter)
//	if errors.Is(err, transfer.ErrChannelFailure) {
//	    var terr *transfer.Error
//	    errors.As(err, &terr)
//	    // terr.BytesSent is the last flushed unit boundary
//	}
//
// # Session states
//
// Each call runs one session: Idle -> HeaderSent -> Streaming -> Complete,
// or Failed from any non-terminal state. Sessions are never resumed; a
// failed image must be resent from the start on a fresh channel.
//
// # Cancellation
//
// The context is checked between writes. Canceling stops writing and
// returns ErrCanceled. The receiver has no abort signal, so it is left
// waiting for the remaining bytes and usually needs a reset.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package transfer
