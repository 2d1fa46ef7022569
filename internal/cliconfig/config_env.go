package cliconfig

import (
	"os"
	"time"
)

// ApplyEnvConfig applies configuration from environment variables (IMGSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(cfg, changed)

	s.setString("file", os.Getenv("IMGSHIP_IMAGE"), &cfg.ImagePath)
	s.setString("device", os.Getenv("IMGSHIP_DEVICE"), &cfg.Device)
	s.setString("preset", os.Getenv("IMGSHIP_PRESET"), &cfg.Preset)
	s.setString(KeyByteOrder, os.Getenv("IMGSHIP_BYTE_ORDER"), &cfg.ByteOrder)
	s.setString(KeyFraming, os.Getenv("IMGSHIP_FRAMING"), &cfg.Framing)
	s.setString("state-dir", os.Getenv("IMGSHIP_STATE_DIR"), &cfg.StateDir)
	s.setString("metrics-file", os.Getenv("IMGSHIP_METRICS_FILE"), &cfg.MetricsFile)

	ints := []struct {
		flag string
		env  string
		dst  *int
	}{
		{"baud", "IMGSHIP_BAUD", &cfg.Baud},
		{KeyHeaderWidth, "IMGSHIP_HEADER_WIDTH", &cfg.HeaderWidth},
		{KeyUnitSize, "IMGSHIP_UNIT_SIZE", &cfg.UnitSize},
		{KeyProgressBytes, "IMGSHIP_PROGRESS_BYTES", &cfg.ProgressBytes},
	}
	for _, i := range ints {
		if err := s.setIntFromString(i.flag, os.Getenv(i.env), i.dst); err != nil {
			return err
		}
	}

	durations := []struct {
		flag string
		env  string
		dst  *time.Duration
	}{
		{KeyUnitDelay, "IMGSHIP_UNIT_DELAY", &cfg.UnitDelay},
		{KeyHeaderSettle, "IMGSHIP_HEADER_SETTLE", &cfg.HeaderSettle},
		{KeyWritableTimeout, "IMGSHIP_WRITABLE_TIMEOUT", &cfg.WritableTimeout},
		{KeyPollInterval, "IMGSHIP_POLL_INTERVAL", &cfg.PollInterval},
		{"debounce", "IMGSHIP_DEBOUNCE", &cfg.Debounce},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, os.Getenv(d.env), d.dst); err != nil {
			return err
		}
	}

	s.setBoolFromString(KeyBackpressure, os.Getenv("IMGSHIP_BACKPRESSURE"), &cfg.Backpressure)
	s.setBoolFromString("watch", os.Getenv("IMGSHIP_WATCH"), &cfg.Watch)
	s.setBoolFromString("verbose", os.Getenv("IMGSHIP_VERBOSE"), &cfg.Verbose)

	return nil
}
