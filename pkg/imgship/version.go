package imgship

import (
	"github.com/bft-labs/imgship/pkg/header"
	"github.com/bft-labs/imgship/pkg/image"
	"github.com/bft-labs/imgship/pkg/lifecycle"
	"github.com/bft-labs/imgship/pkg/log"
	"github.com/bft-labs/imgship/pkg/metrics"
	"github.com/bft-labs/imgship/pkg/progress"
	"github.com/bft-labs/imgship/pkg/state"
	"github.com/bft-labs/imgship/pkg/transfer"
)

// Version information for the imgship facade.
const (
	// Version is the current version of the imgship module.
	Version = "1.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "1.0.0"
)

type moduleVersion struct {
	version    string
	minVersion string
}

func modules() map[string]moduleVersion {
	return map[string]moduleVersion{
		"header":    {header.Version, header.MinCompatibleVersion},
		"transfer":  {transfer.Version, transfer.MinCompatibleVersion},
		"image":     {image.Version, image.MinCompatibleVersion},
		"state":     {state.Version, state.MinCompatibleVersion},
		"metrics":   {metrics.Version, metrics.MinCompatibleVersion},
		"lifecycle": {lifecycle.Version, lifecycle.MinCompatibleVersion},
		"log":       {log.Version, log.MinCompatibleVersion},
		"progress":  {progress.Version, progress.MinCompatibleVersion},
	}
}

// ModuleVersions returns the version of every sub-module.
func ModuleVersions() map[string]string {
	out := make(map[string]string)
	for name, m := range modules() {
		out[name] = m.version
	}
	out["imgship"] = Version
	return out
}
