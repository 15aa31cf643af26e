package registry

import (
	"sync/atomic"
	"time"
)

//go:generate mockgen -package mocks -destination mocks/clock.go . Clock

// Clock supplies the current time in registry time units.
// Readings must never decrease.
type Clock interface {
	Now() uint64
}

// UnitClock counts whole units elapsed since genesis.
type UnitClock struct {
	genesis time.Time
	unit    time.Duration
	now     func() time.Time
}

func NewUnitClock(genesis time.Time, unit time.Duration) *UnitClock {
	return &UnitClock{genesis: genesis, unit: unit, now: time.Now}
}

func (c *UnitClock) Now() uint64 {
	return c.UnitAt(c.now())
}

// UnitAt returns the unit containing the given point in time.
func (c *UnitClock) UnitAt(when time.Time) uint64 {
	sinceGenesis := when.Sub(c.genesis)
	if sinceGenesis < 0 || c.unit <= 0 {
		return 0
	}
	return uint64(sinceGenesis / c.unit)
}

// UnitStart returns the point in time at which the given unit begins.
func (c *UnitClock) UnitStart(unit uint64) time.Time {
	return c.genesis.Add(c.unit * time.Duration(unit))
}

// ManualClock is advanced explicitly by its owner.
type ManualClock struct {
	now atomic.Uint64
}

func NewManualClock(start uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

func (c *ManualClock) Now() uint64 {
	return c.now.Load()
}

// Set moves the clock to t. It is a no-op if t is in the past.
func (c *ManualClock) Set(t uint64) {
	for {
		cur := c.now.Load()
		if t <= cur || c.now.CompareAndSwap(cur, t) {
			return
		}
	}
}

// Advance moves the clock forward by d units and returns the new reading.
func (c *ManualClock) Advance(d uint64) uint64 {
	return c.now.Add(d)
}
