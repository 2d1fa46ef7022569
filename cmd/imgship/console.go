package main

import (
	"fmt"
	"io"

	"github.com/bft-labs/imgship/pkg/imgship"
	"github.com/bft-labs/imgship/pkg/transfer"
)

// consoleHandler prints the operator-facing summary around each session.
type consoleHandler struct {
	imgship.NoopEventHandler
	out      io.Writer
	progress interface{ Sync() }
}

func (h *consoleHandler) OnSessionStart(e imgship.SessionStartEvent) {
	fmt.Fprintf(h.out, "Image: %s (%s)\n", e.ImagePath, e.Digest[:12])
	fmt.Fprintf(h.out, "Image size: 0x%x (%d bytes)\n", e.Size, e.Size)
}

func (h *consoleHandler) OnSessionComplete(e imgship.SessionCompleteEvent) {
	h.progress.Sync()
	fmt.Fprintln(h.out, "Transfer finished!")
	fmt.Fprintf(h.out, "Elapsed: %.2fs\n", e.Result.Elapsed.Seconds())
}

func (h *consoleHandler) OnSessionError(e imgship.SessionErrorEvent) {
	h.progress.Sync()
	if e.Kind == transfer.KindCanceled {
		fmt.Fprintf(h.out, "Transfer canceled after %d bytes; reset the board before sending again\n", e.BytesSent)
	}
}
