package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/imgship/internal/cliconfig"
	"github.com/bft-labs/imgship/pkg/imgship"
	"github.com/bft-labs/imgship/pkg/log"
	"github.com/bft-labs/imgship/pkg/metrics"
	"github.com/bft-labs/imgship/pkg/progress"
	"github.com/bft-labs/imgship/plugins/imagewatcher"
)

const helpDescription = `
Send a kernel image to a UART bootloader.

The image length goes out first as a fixed-width header, then the image
itself, paced so the bootloader's receive loop can keep up. Pick the preset
that matches your bootloader, or override individual protocol settings.

Configure via file ($HOME/.imgship/config.toml), IMGSHIP_* environment
variables, or flags; flags win.
`

var exampleUsage = strings.TrimSpace(`
  imgship -f kernel8.img -d /dev/ttyUSB0
  imgship --preset u32le-chunked --unit-delay 50ms
  imgship --watch --state-dir ~/.imgship
  imgship presets
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger := cliconfig.Logger(false)
		logger.Error().Err(err).Msg("imgship")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "imgship",
		Short:         "Send a kernel image to a UART bootloader",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, &cfg, cfgPath); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.imgship/config.toml)")
	f.StringVarP(&cfg.ImagePath, "file", "f", cfg.ImagePath, "image file to send")
	f.StringVarP(&cfg.Device, "device", "d", cfg.Device, "serial device")
	f.IntVarP(&cfg.Baud, "baud", "b", cfg.Baud, "baud rate")
	f.StringVar(&cfg.Preset, "preset", cfg.Preset, "protocol preset (see 'imgship presets')")

	f.IntVar(&cfg.HeaderWidth, cliconfig.KeyHeaderWidth, 0, "override header width in bytes (4 or 8)")
	f.StringVar(&cfg.ByteOrder, cliconfig.KeyByteOrder, "", "override header byte order (le or be)")
	f.StringVar(&cfg.Framing, cliconfig.KeyFraming, "", "override header framing (bulk or bytewise)")
	f.IntVar(&cfg.UnitSize, cliconfig.KeyUnitSize, 0, "override payload bytes per write")
	f.DurationVar(&cfg.UnitDelay, cliconfig.KeyUnitDelay, 0, "override delay after each write")
	f.DurationVar(&cfg.HeaderSettle, cliconfig.KeyHeaderSettle, 0, "override delay between header and payload")
	f.BoolVar(&cfg.Backpressure, cliconfig.KeyBackpressure, false, "override: wait for the device to drain after each write")
	f.DurationVar(&cfg.WritableTimeout, cliconfig.KeyWritableTimeout, 0, "override bound on each drain wait (0 waits forever)")
	f.DurationVar(&cfg.PollInterval, cliconfig.KeyPollInterval, 0, "override drain poll interval")
	f.IntVar(&cfg.ProgressBytes, cliconfig.KeyProgressBytes, 0, "override progress line every N bytes")

	f.BoolVar(&cfg.Watch, "watch", cfg.Watch, "keep running and re-send whenever the image is rebuilt")
	f.DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "quiet period after an image write before re-sending")
	f.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for status.json (disabled when empty)")
	f.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "node_exporter textfile to write after each transfer")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "debug logging")

	root.AddCommand(newPresetsCmd(), newPortsCmd(), newStatusCmd())
	return root
}

// loadConfig layers defaults, file, env and flags into cfg.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("config file not found: %s", cfgPath)
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}
	cfg.MarkExplicit(changed)

	return cfg.Validate()
}

func run(cmd *cobra.Command, cfg cliconfig.Config) error {
	logger := cliconfig.Logger(cfg.Verbose)
	format, plan, err := cfg.Resolve()
	if err != nil {
		return err
	}
	logger.Debug().
		Str("image", cfg.ImagePath).
		Str("device", cfg.Device).
		Int("baud", cfg.Baud).
		Str("preset", cfg.Preset).
		Str("header", format.String()).
		Interface("plan", plan).
		Msg("configuration")

	out := cmd.OutOrStdout()
	text := progress.NewText(out, progress.InPlace(progress.IsTerminal(out)))
	reporter := progress.NewAsync(text, progress.DefaultBuffer)
	defer reporter.Close()

	opts := []imgship.Option{
		imgship.WithLogger(log.NewZerologAdapterWithLogger(logger)),
		imgship.WithReporter(reporter),
		imgship.WithEventHandler(&consoleHandler{out: out, progress: reporter}),
	}
	if cfg.MetricsFile != "" {
		opts = append(opts, imgship.WithMetrics(metrics.New()))
	}
	if cfg.Watch {
		opts = append(opts, imagewatcher.WithImageWatcher(imagewatcher.Config{DebounceDelay: cfg.Debounce}))
	}

	s, err := imgship.New(imgship.Config{
		ImagePath:   cfg.ImagePath,
		Device:      cfg.Device,
		Baud:        cfg.Baud,
		Preset:      cfg.Preset,
		Format:      format,
		Plan:        plan,
		StateDir:    cfg.StateDir,
		MetricsFile: cfg.MetricsFile,
	}, opts...)
	if err != nil {
		return fmt.Errorf("create imgship: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Watch {
		_, err := s.Send(ctx)
		return err
	}
	return watch(ctx, s, logger)
}

func watch(ctx context.Context, s *imgship.Shipper, logger zerolog.Logger) error {
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start imgship: %w", err)
	}
	logger.Info().Msg("watching for image changes, press Ctrl-C to stop")

	<-ctx.Done()
	logger.Info().Msg("received signal, stopping...")

	if err := s.Stop(); err != nil && !errors.Is(err, imgship.ErrNotRunning) {
		return fmt.Errorf("stop imgship: %w", err)
	}
	return nil
}
