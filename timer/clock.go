package timer

import "time"

// Clock serves microsecond timestamps off a synchronization point: a wall
// clock reading caught right at a tick boundary, paired with the monotonic
// reading taken in the same instant. Later timestamps are the reference plus
// the monotonic delta, so they never jump when the system time changes.
type Clock struct {
	ref      time.Time
	refMicro int64
}

// NewClock returns an already-synchronized clock.
func NewClock() *Clock {
	c := &Clock{}
	c.Synchronize()
	return c
}

// Synchronize loops trying to catch the difference between two wall clock
// readings, then saves off the reading at that instant together with its
// monotonic counter as the reference point. This isn't entirely fool-proof:
// the goroutine could get rescheduled between two readings, leaving a small
// gap in the pairing. The side effect is rare and bounded, so we live with
// it. Don't use this code if lives depend on it.
func (c *Clock) Synchronize() {
	before := time.Now()
	now := time.Now()
	for now.UnixMicro() == before.UnixMicro() {
		now = time.Now()
	}
	c.ref = now
	c.refMicro = now.UnixMicro()
}

// Micros returns microseconds since the Unix epoch, computed as the
// reference timestamp plus the elapsed monotonic ticks.
func (c *Clock) Micros() int64 {
	return c.refMicro + time.Since(c.ref).Microseconds()
}

// Since returns the microseconds elapsed since a previous Micros reading.
func (c *Clock) Since(start int64) int64 {
	return c.Micros() - start
}
