package points

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestAccrueZeroElapsed(t *testing.T) {
	p := DefaultRateParams()
	snap := Snapshot{Points: 42.5, LastUpdate: t0, Balance: 800, NFTs: 3}

	res := Accrue(p, snap, Observation{Balance: 800, NFTs: 3, Now: t0})
	require.Equal(t, 42.5, res.NewPoints)
	require.Equal(t, 0.0, res.Earned)
	require.False(t, res.Reset)
	require.Equal(t, 0.0, res.Elapsed)
}

func TestAccrueClockGoesBackwards(t *testing.T) {
	p := DefaultRateParams()
	snap := Snapshot{Points: 10, LastUpdate: t0, Balance: 500, NFTs: 0}

	res := Accrue(p, snap, Observation{Balance: 500, NFTs: 0, Now: t0.Add(-time.Hour)})
	require.Equal(t, 10.0, res.NewPoints)
	require.Equal(t, 0.0, res.Elapsed)
}

func TestAccrueUsesPreviousSnapshotRate(t *testing.T) {
	p := DefaultRateParams()
	snap := Snapshot{Points: 100, LastUpdate: t0, Balance: 500, NFTs: 4}

	// balance jumped to cap just before the query; the interval is still
	// settled at the old 500-token rate
	res := Accrue(p, snap, Observation{Balance: 1000, NFTs: 4, Now: t0.Add(12 * time.Hour)})

	expected := p.DailyRate(500, 4) * 12 * 3600 / 86400
	require.False(t, res.Reset)
	require.InDelta(t, expected, res.Earned, 1e-9)
	require.InDelta(t, 100+expected, res.NewPoints, 1e-9)
}

func TestAccrueFullDayAtCap(t *testing.T) {
	p := DefaultRateParams()
	snap := Snapshot{Points: 0, LastUpdate: t0, Balance: 1000, NFTs: 10}

	res := Accrue(p, snap, Observation{Balance: 1000, NFTs: 10, Now: t0.Add(24 * time.Hour)})
	require.InDelta(t, 124.9875, res.NewPoints, 1e-4)
}

func TestAccrueResetOnBalanceDrop(t *testing.T) {
	p := DefaultRateParams()
	snap := Snapshot{Points: 2000, LastUpdate: t0, Balance: 500, NFTs: 2}

	res := Accrue(p, snap, Observation{Balance: 400, NFTs: 2, Now: t0.Add(time.Hour)})
	require.True(t, res.Reset)
	require.Equal(t, 0.0, res.NewPoints)
	require.Equal(t, 0.0, res.Earned)
}

func TestAccrueResetOnNFTDrop(t *testing.T) {
	p := DefaultRateParams()
	snap := Snapshot{Points: 999, LastUpdate: t0, Balance: 100, NFTs: 5}

	res := Accrue(p, snap, Observation{Balance: 150, NFTs: 4, Now: t0.Add(time.Minute)})
	require.True(t, res.Reset)
	require.Equal(t, 0.0, res.NewPoints)
}
