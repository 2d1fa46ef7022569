// Package imgship provides an embeddable sender for UART boot images.
//
// A Shipper loads an image, opens a serial device and streams the image to
// a bootloader using a header format and transfer plan. It can be used as a
// one-shot sender or kept running in the background, re-sending the image
// whenever a plugin (such as the image watcher) asks for it.
//
// # Basic Usage
//
//	cfg := imgship.Config{
//	    ImagePath: "kernel8.img",
//	    Device:    "/dev/ttyUSB0",
//	    Preset:    "u64le-bytewise",
//	}
//
//	s, err := imgship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := s.Send(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Background Mode
//
// Start sends the image once and then waits for triggers until Stop:
//
//	s, err := imgship.New(cfg, imagewatcher.WithImageWatcher(imagewatcher.DefaultConfig()))
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	// ... until shutdown signal ...
//	_ = s.Stop()
//
// Sessions never overlap: a trigger that arrives during a transfer queues
// exactly one follow-up session.
//
// # Lifecycle States
//
// A Shipper is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] or [StateCrashed]. A failed transfer does not crash the
// shipper; [Shipper.Err] returns the most recent session error.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// Use [ModuleVersions] to get versions of all sub-modules.
package imgship
