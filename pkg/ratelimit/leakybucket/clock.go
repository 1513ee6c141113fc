package leakybucket

import "time"

// Tick is an integer point in time at a configurable resolution.
type Tick int64

// Common tick resolutions, in ticks per second.
const (
	Millisecond int64 = 1_000
	Microsecond int64 = 1_000_000
	Nanosecond  int64 = 1_000_000_000
)

// DefaultResolution is the tick resolution used when none is configured.
const DefaultResolution = Microsecond

// MaxResolution is the finest resolution ToTicks converts without overflowing int64.
const MaxResolution = Nanosecond

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ToTicks converts t into ticks, rounding seconds*resolution to the nearest integer.
// Resolutions up to one tick per nanosecond are exact.
func ToTicks(t time.Time, resolution int64) Tick {
	sec := t.Unix()
	nsec := int64(t.Nanosecond())

	frac := (nsec*resolution + int64(time.Second)/2) / int64(time.Second)
	return Tick(sec*resolution + frac)
}

// TickClock reads a Clock at a fixed resolution.
type TickClock struct {
	Clock      Clock
	Resolution int64
}

// NewTickClock returns a TickClock. A nil clock means SystemClock and a
// non-positive resolution means DefaultResolution.
func NewTickClock(clock Clock, resolution int64) TickClock {
	if clock == nil {
		clock = SystemClock{}
	}
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	return TickClock{Clock: clock, Resolution: resolution}
}

// Now returns the current tick.
func (c TickClock) Now() Tick {
	return ToTicks(c.Clock.Now(), c.Resolution)
}
