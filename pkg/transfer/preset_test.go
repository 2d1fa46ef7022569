package transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/imgship/pkg/header"
)

func TestPresets(t *testing.T) {
	all := Presets()
	require.Len(t, all, 4)
	for i, p := range all {
		require.NoErrorf(t, p.Format.Validate(), p.Name)
		require.NoErrorf(t, p.Plan.Validate(), p.Name)
		if i > 0 {
			require.Less(t, all[i-1].Name, p.Name)
		}
	}

	p, err := LookupPreset(DefaultPresetName)
	require.NoError(t, err)
	require.Equal(t, 8, p.Format.Width)
	require.Equal(t, header.Bytewise, p.Format.Framing)

	p, err = LookupPreset("u32be-polled")
	require.NoError(t, err)
	require.True(t, p.Plan.Backpressure)
	require.Equal(t, header.BigEndian, p.Format.Order)

	_, err = LookupPreset("lab9")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestPoller(t *testing.T) {
	p := newPoller(time.Millisecond)
	got := []time.Duration{p.Next(), p.Next(), p.Next(), p.Next(), p.Next()}
	require.Equal(t, []time.Duration{
		100 * time.Microsecond,
		200 * time.Microsecond,
		400 * time.Microsecond,
		800 * time.Microsecond,
		time.Millisecond,
	}, got)
	p.Reset()
	require.Equal(t, 100*time.Microsecond, p.Next())

	small := newPoller(10 * time.Microsecond)
	require.Equal(t, 10*time.Microsecond, small.Next())
	require.Equal(t, 10*time.Microsecond, small.Next())
}
