package imgship

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/imgship/internal/adapters/serial"
	"github.com/bft-labs/imgship/pkg/image"
	"github.com/bft-labs/imgship/pkg/lifecycle"
	"github.com/bft-labs/imgship/pkg/log"
	"github.com/bft-labs/imgship/pkg/metrics"
	"github.com/bft-labs/imgship/pkg/state"
	"github.com/bft-labs/imgship/pkg/transfer"
)

// Shipper sends an image to a bootloader. Use New() to create an instance.
type Shipper struct {
	config  Config
	opts    options
	engine  *transfer.Engine
	opener  transfer.Opener
	repo    state.Repository
	metrics *metrics.Metrics
	logger  log.Logger
	machine *lifecycle.Machine[State]
	group   *lifecycle.Group
	plugins []Plugin
	now     func() time.Time

	// session serializes Send calls
	session sync.Mutex

	mu      sync.RWMutex
	lastErr error
	last    state.Record

	tmu     sync.Mutex
	trigger chan string
}

// New creates a Shipper with the given configuration.
// The instance is created in StateStopped.
func New(cfg Config, opts ...Option) (*Shipper, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	opener := o.opener
	if opener == nil {
		if cfg.Device == "" {
			return nil, fmt.Errorf("%w: device is required", ErrInvalidConfig)
		}
		opener = serial.NewOpener(cfg.Device, cfg.Baud, logger)
	}

	var repo state.Repository
	if cfg.StateDir != "" {
		repo = state.NewFileRepository(cfg.StateDir)
	}

	s := &Shipper{
		config:  cfg,
		opts:    o,
		opener:  opener,
		repo:    repo,
		metrics: o.metrics,
		logger:  logger,
		group:   lifecycle.NewGroup(logger),
		plugins: o.plugins,
		now:     time.Now,
	}

	var emitter lifecycle.EventEmitter[State]
	if o.eventHandler != nil {
		emitter = lifecycle.EmitterFunc[State](func(prev, cur State, reason string) {
			o.eventHandler.OnStateChange(StateChangeEvent{Previous: prev, Current: cur, Reason: reason})
		})
	}
	s.machine = lifecycle.NewMachine("shipper", StateStopped, shipperTable, logger, emitter)

	engineOpts := append([]transfer.EngineOption{transfer.WithLogger(logger)}, o.engineOpts...)
	s.engine = transfer.NewEngine(engineOpts...)
	return s, nil
}

// Config returns the effective configuration after defaults.
func (s *Shipper) Config() Config {
	return s.config
}

// Send loads the image and runs one transfer session. Concurrent calls are
// serialized.
func (s *Shipper) Send(ctx context.Context) (transfer.Result, error) {
	s.session.Lock()
	defer s.session.Unlock()

	res, err := s.send(ctx)
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return res, err
}

func (s *Shipper) send(ctx context.Context) (transfer.Result, error) {
	start := s.now()
	rec := state.Record{
		Image:     s.config.ImagePath,
		Device:    s.config.Device,
		Preset:    s.config.Preset,
		Header:    s.config.Format.String(),
		StartedAt: start,
	}

	img, err := image.Load(s.config.ImagePath)
	if err != nil {
		s.logger.Error("load image failed", log.String("image", s.config.ImagePath), log.Err(err))
		s.finish(ctx, rec, transfer.Result{}, err)
		return transfer.Result{}, err
	}
	rec.Digest = img.Digest.String()
	rec.TotalBytes = img.Size()

	logger := s.logger.With(
		log.String("image", img.Path),
		log.String("digest", img.Digest.Short()),
	)
	logger.Info("sending image",
		log.Int64("size", img.Size()),
		log.String("device", s.config.Device),
		log.String("header", s.config.Format.String()),
	)
	if h := s.opts.eventHandler; h != nil {
		h.OnSessionStart(SessionStartEvent{ImagePath: img.Path, Digest: rec.Digest, Size: img.Size()})
	}

	res, err := s.engine.Send(ctx, s.opener, img.Data, s.config.Format, s.config.Plan, s.opts.reporter)
	s.finish(ctx, rec, res, err)

	if h := s.opts.eventHandler; h != nil {
		if err != nil {
			var sent int64
			var terr *transfer.Error
			if errors.As(err, &terr) {
				sent = terr.BytesSent
			}
			h.OnSessionError(SessionErrorEvent{ImagePath: img.Path, Error: err, Kind: transfer.KindOf(err), BytesSent: sent})
		} else {
			h.OnSessionComplete(SessionCompleteEvent{ImagePath: img.Path, Result: res})
		}
	}
	return res, err
}

// finish persists the outcome. Bookkeeping failures are logged, never returned.
func (s *Shipper) finish(ctx context.Context, rec state.Record, res transfer.Result, err error) {
	elapsed := res.Elapsed
	sent := res.TotalBytes
	var terr *transfer.Error
	if errors.As(err, &terr) {
		elapsed = terr.Elapsed
		sent = terr.BytesSent
	}
	if elapsed == 0 {
		elapsed = s.now().Sub(rec.StartedAt)
	}
	kind := ""
	if err != nil {
		kind = transfer.KindOf(err).String()
	}
	rec.Finish(sent, elapsed, err, kind, transfer.KindOf(err) == transfer.KindCanceled)

	s.mu.Lock()
	s.last = rec
	s.mu.Unlock()

	if s.repo != nil {
		// the session context may already be canceled
		if serr := s.repo.Save(context.WithoutCancel(ctx), rec); serr != nil {
			s.logger.Warn("save transfer record failed", log.Err(serr))
		}
	}
	if s.metrics != nil {
		s.metrics.Observe(res, err, rec.FinishedAt)
		if s.config.MetricsFile != "" {
			if werr := s.metrics.WriteTextfile(s.config.MetricsFile); werr != nil {
				s.logger.Warn("write metrics failed", log.Err(werr))
			}
		}
	}
}

// LastRecord returns the record of the most recent session.
func (s *Shipper) LastRecord() state.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Err returns the error of the most recent session, nil if it succeeded.
func (s *Shipper) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Shipper) Status() State {
	return s.machine.State()
}

// Trigger queues a session in background mode. It never blocks.
func (s *Shipper) Trigger(reason string) {
	s.tmu.Lock()
	ch := s.trigger
	s.tmu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- reason:
	default:
		s.logger.Debug("session already queued", log.String("reason", reason))
	}
}

// Start sends the image once and keeps running, sending again on every
// Trigger, until Stop or ctx cancellation.
func (s *Shipper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.machine.Can(StateStarting) {
		return ErrAlreadyRunning
	}
	if err := s.machine.TransitionTo(StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.group.SetCancel(cancel)
	trigger := make(chan string, 1)
	trigger <- "initial send"
	s.tmu.Lock()
	s.trigger = trigger
	s.tmu.Unlock()

	pluginCfg := PluginConfig{
		ImagePath: s.config.ImagePath,
		Device:    s.config.Device,
		StateDir:  s.config.StateDir,
		Logger:    s.logger,
		Trigger:   s.Trigger,
	}
	for i, p := range s.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			s.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			for j := i - 1; j >= 0; j-- {
				_ = s.plugins[j].Shutdown(context.Background())
			}
			_ = s.machine.TransitionTo(StateCrashed, "plugin init failed: "+p.Name())
			return fmt.Errorf("initialize plugin %s: %w", p.Name(), err)
		}
		s.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	if err := s.machine.TransitionTo(StateRunning, "worker started"); err != nil {
		cancel()
		return err
	}
	s.group.Go(func() {
		s.run(runCtx, trigger)
	})
	return nil
}

func (s *Shipper) run(ctx context.Context, trigger <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-trigger:
			s.logger.Info("session triggered", log.String("reason", reason))
			if _, err := s.Send(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Error("session failed", log.Err(err))
			}
		}
	}
}

// Stop aborts any session in flight, shuts plugins down in reverse order
// and waits up to Config.ShutdownTimeout for the worker.
func (s *Shipper) Stop() error {
	s.mu.Lock()
	if !s.machine.Can(StateStopping) {
		s.mu.Unlock()
		return ErrNotRunning
	}
	if err := s.machine.TransitionTo(StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.group.Cancel()
	s.tmu.Lock()
	s.trigger = nil
	s.tmu.Unlock()
	s.mu.Unlock()

	err := s.group.WaitWithTimeout(s.config.ShutdownTimeout)

	shutdownCtx := context.Background()
	for i := len(s.plugins) - 1; i >= 0; i-- {
		p := s.plugins[i]
		if perr := p.Shutdown(shutdownCtx); perr != nil {
			s.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(perr))
		} else {
			s.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}

	if err != nil {
		_ = s.machine.TransitionTo(StateCrashed, "shutdown timeout")
	} else {
		_ = s.machine.TransitionTo(StateStopped, "graceful shutdown")
	}
	return err
}

// validateModuleVersions checks that all module versions are compatible.
func validateModuleVersions() error {
	for name, m := range modules() {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible checks if version >= minVersion.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
