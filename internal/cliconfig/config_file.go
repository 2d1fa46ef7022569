package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ImagePath string `toml:"image"`
	Device    string `toml:"device"`
	Baud      int    `toml:"baud"`
	Preset    string `toml:"preset"`

	HeaderWidth     int    `toml:"header_width"`
	ByteOrder       string `toml:"byte_order"`
	Framing         string `toml:"framing"`
	UnitSize        int    `toml:"unit_size"`
	UnitDelay       string `toml:"unit_delay"`
	HeaderSettle    string `toml:"header_settle"`
	Backpressure    *bool  `toml:"backpressure"`
	WritableTimeout string `toml:"writable_timeout"`
	PollInterval    string `toml:"poll_interval"`
	ProgressBytes   int    `toml:"progress_bytes"`

	StateDir    string `toml:"state_dir"`
	MetricsFile string `toml:"metrics_file"`
	Watch       *bool  `toml:"watch"`
	Debounce    string `toml:"debounce"`
	Verbose     *bool  `toml:"verbose"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.imgship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".imgship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(cfg, changed)

	s.setString("file", fc.ImagePath, &cfg.ImagePath)
	s.setString("device", fc.Device, &cfg.Device)
	s.setInt("baud", fc.Baud, &cfg.Baud)
	s.setString("preset", fc.Preset, &cfg.Preset)

	s.setInt(KeyHeaderWidth, fc.HeaderWidth, &cfg.HeaderWidth)
	s.setString(KeyByteOrder, fc.ByteOrder, &cfg.ByteOrder)
	s.setString(KeyFraming, fc.Framing, &cfg.Framing)
	s.setInt(KeyUnitSize, fc.UnitSize, &cfg.UnitSize)
	s.setBool(KeyBackpressure, fc.Backpressure, &cfg.Backpressure)
	s.setInt(KeyProgressBytes, fc.ProgressBytes, &cfg.ProgressBytes)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{KeyUnitDelay, fc.UnitDelay, &cfg.UnitDelay},
		{KeyHeaderSettle, fc.HeaderSettle, &cfg.HeaderSettle},
		{KeyWritableTimeout, fc.WritableTimeout, &cfg.WritableTimeout},
		{KeyPollInterval, fc.PollInterval, &cfg.PollInterval},
		{"debounce", fc.Debounce, &cfg.Debounce},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("metrics-file", fc.MetricsFile, &cfg.MetricsFile)
	s.setBool("watch", fc.Watch, &cfg.Watch)
	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
