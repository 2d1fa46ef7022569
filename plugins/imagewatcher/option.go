package imagewatcher

import "github.com/bft-labs/imgship/pkg/imgship"

// WithImageWatcher returns an imgship Option that re-sends the image every
// time it is rebuilt. It only has an effect in background mode (Start).
//
// Usage:
//
//	s, err := imgship.New(cfg,
//	    imagewatcher.WithImageWatcher(imagewatcher.Config{
//	        DebounceDelay: 200 * time.Millisecond,
//	    }),
//	)
func WithImageWatcher(cfg Config) imgship.Option {
	return imgship.WithPlugin(New(cfg))
}

// WithDefaultImageWatcher enables image watching with a 500ms debounce.
func WithDefaultImageWatcher() imgship.Option {
	return WithImageWatcher(DefaultConfig())
}
