// Package imagewatcher re-sends the image whenever it is rebuilt.
// It watches the image's directory and triggers a fresh session once writes
// to the image have been quiet for the debounce delay.
package imagewatcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/imgship/pkg/imgship"
	"github.com/bft-labs/imgship/pkg/log"
)

// Config holds configuration options for the image watcher plugin.
type Config struct {
	// DebounceDelay is how long writes must be quiet before re-sending.
	// Linkers and objcopy write the image in several bursts.
	// Default: 500 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 500 * time.Millisecond,
	}
}

// Plugin implements image watching.
type Plugin struct {
	mu sync.Mutex

	debounceDelay time.Duration

	imagePath string
	logger    log.Logger
	trigger   func(reason string)
	watcher   *fsnotify.Watcher
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	debounce  *time.Timer
}

// New creates a new image watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultConfig().DebounceDelay
	}
	return &Plugin{debounceDelay: cfg.DebounceDelay}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "imagewatcher"
}

// Initialize starts watching cfg.ImagePath.
func (p *Plugin) Initialize(ctx context.Context, cfg imgship.PluginConfig) error {
	if cfg.Trigger == nil {
		return errors.New("imagewatcher: no trigger")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	path, err := filepath.Abs(cfg.ImagePath)
	if err != nil {
		return fmt.Errorf("imagewatcher: resolve image path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("imagewatcher: create watcher: %w", err)
	}
	// the directory, not the file: build tools replace the image by rename
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("imagewatcher: watch %s: %w", filepath.Dir(path), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.imagePath = path
	p.logger = logger.With(log.String("plugin", p.Name()))
	p.trigger = cfg.Trigger
	p.watcher = watcher
	p.cancel = cancel
	p.mu.Unlock()

	p.logger.Info("watching image for changes", log.String("image", path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx)
	return nil
}

// Shutdown stops the watcher and drops any pending trigger.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()
	defer p.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.imagePath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			p.logger.Debug("image changed", log.String("op", event.Op.String()))
			p.debounceTrigger(ctx)

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("image watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceTrigger(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.trigger("image rebuilt")
	})
}

// Ensure Plugin implements imgship.Plugin.
var _ imgship.Plugin = (*Plugin)(nil)
