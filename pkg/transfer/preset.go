package transfer

import (
	"fmt"
	"sort"
	"time"

	"github.com/bft-labs/imgship/pkg/header"
)

// Preset is a named header format and plan matching a family of receivers.
// Picking the wrong preset for a receiver is a caller error: the protocols
// are mutually incompatible.
type Preset struct {
	Name        string
	Description string
	Format      header.Format
	Plan        Plan
}

var presets = map[string]Preset{
	"u64le-bytewise": {
		Name:        "u64le-bytewise",
		Description: "8-byte LE length sent byte by byte, payload one byte per write",
		Format:      header.Format{Width: 8, Order: header.LittleEndian, Framing: header.Bytewise},
		Plan: Plan{
			UnitSize:        1,
			WritableTimeout: DefaultWritableTimeout,
			PollInterval:    DefaultPollInterval,
			Progress:        Cadence{Bytes: 100},
		},
	},
	"u64le-chunked": {
		Name:        "u64le-chunked",
		Description: "8-byte LE length sent byte by byte, payload in flushed 1 KiB chunks",
		Format:      header.Format{Width: 8, Order: header.LittleEndian, Framing: header.Bytewise},
		Plan: Plan{
			UnitSize:        1024,
			WritableTimeout: DefaultWritableTimeout,
			PollInterval:    DefaultPollInterval,
		},
	},
	"u32le-chunked": {
		Name:        "u32le-chunked",
		Description: "4-byte LE length in one write, 500ms settle, 1 KiB chunks 20ms apart",
		Format:      header.Format{Width: 4, Order: header.LittleEndian, Framing: header.Bulk},
		Plan: Plan{
			UnitSize:        1024,
			UnitDelay:       20 * time.Millisecond,
			HeaderSettle:    500 * time.Millisecond,
			WritableTimeout: DefaultWritableTimeout,
			PollInterval:    DefaultPollInterval,
		},
	},
	"u32be-polled": {
		Name:        "u32be-polled",
		Description: "4-byte BE length in one write, 10ms settle, one byte per write gated on writability",
		Format:      header.Format{Width: 4, Order: header.BigEndian, Framing: header.Bulk},
		Plan: Plan{
			UnitSize:        1,
			Backpressure:    true,
			HeaderSettle:    10 * time.Millisecond,
			WritableTimeout: DefaultWritableTimeout,
			PollInterval:    time.Millisecond,
			Progress:        Cadence{Bytes: 1024},
		},
	},
}

// DefaultPresetName is the preset used when none is configured.
const DefaultPresetName = "u64le-bytewise"

// LookupPreset returns the preset with the given name.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: unknown preset %q", ErrConfiguration, name)
	}
	return p, nil
}

// Presets returns all presets sorted by name.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
