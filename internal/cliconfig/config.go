package cliconfig

import (
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/bft-labs/imgship/pkg/header"
	"github.com/bft-labs/imgship/pkg/transfer"
)

// Defaults for the CLI.
const (
	DefaultImagePath = "kernel8.img"
	DefaultBaud      = 115200
	DefaultDebounce  = 500 * time.Millisecond
)

// Protocol keys. When one of these is given by file, env or flag it
// overrides the value from the selected preset.
const (
	KeyHeaderWidth     = "header-width"
	KeyByteOrder       = "byte-order"
	KeyFraming         = "framing"
	KeyUnitSize        = "unit-size"
	KeyUnitDelay       = "unit-delay"
	KeyHeaderSettle    = "header-settle"
	KeyBackpressure    = "backpressure"
	KeyWritableTimeout = "writable-timeout"
	KeyPollInterval    = "poll-interval"
	KeyProgressBytes   = "progress-bytes"
)

// Config holds CLI configuration for imgship.
type Config struct {
	ImagePath string
	Device    string
	Baud      int
	Preset    string

	HeaderWidth     int
	ByteOrder       string
	Framing         string
	UnitSize        int
	UnitDelay       time.Duration
	HeaderSettle    time.Duration
	Backpressure    bool
	WritableTimeout time.Duration
	PollInterval    time.Duration
	ProgressBytes   int

	StateDir    string
	MetricsFile string
	Watch       bool
	Debounce    time.Duration
	Verbose     bool

	explicit map[string]bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ImagePath: DefaultImagePath,
		Device:    DefaultDevice(),
		Baud:      DefaultBaud,
		Preset:    transfer.DefaultPresetName,
		Debounce:  DefaultDebounce,
	}
}

// DefaultDevice returns the usual USB-serial adapter name on this OS.
func DefaultDevice() string {
	return defaultDevice(runtime.GOOS)
}

func defaultDevice(goos string) string {
	switch goos {
	case "windows":
		return "COM3"
	case "darwin":
		return "/dev/cu.SLAB_USBtoUART"
	default:
		return "/dev/ttyUSB0"
	}
}

// MarkExplicit records keys set on the command line.
func (c *Config) MarkExplicit(keys map[string]bool) {
	for k, v := range keys {
		if v {
			c.mark(k)
		}
	}
}

// Explicit reports whether key was set by file, env or flag.
func (c *Config) Explicit(key string) bool {
	return c.explicit[key]
}

func (c *Config) mark(key string) {
	if c.explicit == nil {
		c.explicit = make(map[string]bool)
	}
	c.explicit[key] = true
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ImagePath == "" {
		return fmt.Errorf("image file is required")
	}
	if c.Device == "" {
		return fmt.Errorf("device is required")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("baud must be positive")
	}
	if c.Watch && c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	if _, _, err := c.Resolve(); err != nil {
		return err
	}
	return nil
}

// Resolve returns the header format and plan: the preset's, with every
// explicitly set protocol key applied on top.
func (c *Config) Resolve() (header.Format, transfer.Plan, error) {
	name := c.Preset
	if name == "" {
		name = transfer.DefaultPresetName
	}
	p, err := transfer.LookupPreset(name)
	if err != nil {
		return header.Format{}, transfer.Plan{}, err
	}
	format, plan := p.Format, p.Plan

	if c.Explicit(KeyHeaderWidth) {
		format.Width = c.HeaderWidth
	}
	if c.Explicit(KeyByteOrder) {
		if format.Order, err = header.ParseByteOrder(c.ByteOrder); err != nil {
			return header.Format{}, transfer.Plan{}, err
		}
	}
	if c.Explicit(KeyFraming) {
		if format.Framing, err = header.ParseFraming(c.Framing); err != nil {
			return header.Format{}, transfer.Plan{}, err
		}
	}
	if c.Explicit(KeyUnitSize) {
		plan.UnitSize = c.UnitSize
	}
	if c.Explicit(KeyUnitDelay) {
		plan.UnitDelay = c.UnitDelay
	}
	if c.Explicit(KeyHeaderSettle) {
		plan.HeaderSettle = c.HeaderSettle
	}
	if c.Explicit(KeyBackpressure) {
		plan.Backpressure = c.Backpressure
	}
	if c.Explicit(KeyWritableTimeout) {
		plan.WritableTimeout = c.WritableTimeout
	}
	if c.Explicit(KeyPollInterval) {
		plan.PollInterval = c.PollInterval
	}
	if c.Explicit(KeyProgressBytes) {
		plan.Progress = transfer.Cadence{Bytes: int64(c.ProgressBytes)}
	}

	if err := format.Validate(); err != nil {
		return header.Format{}, transfer.Plan{}, err
	}
	if err := plan.Validate(); err != nil {
		return header.Format{}, transfer.Plan{}, err
	}
	return format, plan, nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set,
// and records every key it applies.
type configSetter struct {
	changed map[string]bool
	cfg     *Config
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(cfg *Config, changed map[string]bool) *configSetter {
	return &configSetter{changed: changed, cfg: cfg}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
	s.cfg.mark(flag)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
	s.cfg.mark(flag)
}

// setDuration parses and sets a duration from string if valid and flag not changed.
// "0s" is applied: it disables a preset's delay.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	s.cfg.mark(flag)
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
	s.cfg.mark(flag)
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	s.cfg.mark(flag)
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
	s.cfg.mark(flag)
}
