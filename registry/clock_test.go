package registry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wildproof/wildproof/registry"
)

func TestUnitClock(t *testing.T) {
	t.Parallel()
	genesis := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := registry.NewUnitClock(genesis, 10*time.Minute)

	t.Run("before genesis", func(t *testing.T) {
		require.Zero(t, clock.UnitAt(genesis.Add(-time.Hour)))
	})
	t.Run("within first unit", func(t *testing.T) {
		require.Zero(t, clock.UnitAt(genesis))
		require.Zero(t, clock.UnitAt(genesis.Add(9*time.Minute)))
	})
	t.Run("later units", func(t *testing.T) {
		require.Equal(t, uint64(1), clock.UnitAt(genesis.Add(10*time.Minute)))
		require.Equal(t, uint64(144), clock.UnitAt(genesis.Add(24*time.Hour)))
	})
	t.Run("unit start", func(t *testing.T) {
		require.Equal(t, genesis.Add(time.Hour), clock.UnitStart(6))
		require.Equal(t, uint64(6), clock.UnitAt(clock.UnitStart(6)))
	})
	t.Run("now", func(t *testing.T) {
		past := registry.NewUnitClock(time.Now().Add(-25*time.Minute), 10*time.Minute)
		require.Equal(t, uint64(2), past.Now())
	})
}

func TestManualClock(t *testing.T) {
	t.Parallel()
	clock := registry.NewManualClock(5)
	require.Equal(t, uint64(5), clock.Now())

	require.Equal(t, uint64(8), clock.Advance(3))
	clock.Set(20)
	require.Equal(t, uint64(20), clock.Now())

	// never goes backwards
	clock.Set(10)
	require.Equal(t, uint64(20), clock.Now())
}
