// Package progress turns transfer progress events into operator output.
//
// Text prints right-justified "sent/total bytes" lines, either rewritten in
// place on a terminal or appended one per event. Async decouples a slow
// reporter from the streaming loop so that terminal output never paces the
// UART.
//
//	text := progress.NewText(os.Stdout, progress.InPlace(progress.IsTerminal(os.Stdout)))
//	r := progress.NewAsync(text, 64)
//	defer r.Close()
//	engine.Transfer(ctx, ch, img, format, plan, r)
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package progress
