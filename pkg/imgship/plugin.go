package imgship

import (
	"context"

	"github.com/bft-labs/imgship/pkg/log"
)

// Plugin extends a Shipper in background mode. Plugins are initialized in
// registration order by Start and shut down in reverse order by Stop.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, cfg PluginConfig) error
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to plugins at Initialize.
type PluginConfig struct {
	ImagePath string
	Device    string
	StateDir  string
	Logger    log.Logger

	// Trigger queues a fresh session. It never blocks; triggers that
	// arrive while one is already queued are coalesced.
	Trigger func(reason string)
}
