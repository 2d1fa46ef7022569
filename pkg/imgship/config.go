package imgship

import (
	"fmt"
	"time"

	"github.com/bft-labs/imgship/pkg/header"
	"github.com/bft-labs/imgship/pkg/transfer"
)

// DefaultBaud is used when Config.Baud is zero.
const DefaultBaud = 115200

// DefaultShutdownTimeout bounds how long Stop waits for a session to abort.
const DefaultShutdownTimeout = 10 * time.Second

// Config describes what to send and where.
type Config struct {
	// ImagePath is the image file to send. Required.
	ImagePath string

	// Device is the serial device. Required unless WithOpener is used.
	Device string

	// Baud is the serial line rate. Default: 115200.
	Baud int

	// Preset names the protocol preset Format and Plan default from.
	// Default: transfer.DefaultPresetName when Format is unset.
	Preset string

	// Format is the header format. A zero Format takes the preset's.
	Format header.Format

	// Plan is the transfer plan. A zero Plan takes the preset's.
	Plan transfer.Plan

	// StateDir receives status.json after every session. Empty disables it.
	StateDir string

	// MetricsFile is a node_exporter textfile written after every session
	// when metrics are enabled. Empty disables it.
	MetricsFile string

	// ShutdownTimeout bounds Stop. Default: 10s.
	ShutdownTimeout time.Duration
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Preset == "" && (c.Format == (header.Format{}) || c.Plan.UnitSize == 0) {
		c.Preset = transfer.DefaultPresetName
	}
	if c.Preset == "" {
		return
	}
	p, err := transfer.LookupPreset(c.Preset)
	if err != nil {
		// reported by Validate
		return
	}
	if c.Format == (header.Format{}) {
		c.Format = p.Format
	}
	if c.Plan.UnitSize == 0 {
		c.Plan = p.Plan
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ImagePath == "" {
		return fmt.Errorf("%w: image path is required", ErrInvalidConfig)
	}
	if c.Baud < 0 {
		return fmt.Errorf("%w: baud must not be negative", ErrInvalidConfig)
	}
	if c.Preset != "" {
		if _, err := transfer.LookupPreset(c.Preset); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if err := c.Format.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Plan.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: shutdown timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}
