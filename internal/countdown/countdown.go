// Package countdown derives a displayable seconds-remaining value from a
// server-anchored timestamp and a duration. Ticking is owned by the caller;
// sampling at any local interval cannot drift because every sample recomputes
// from the absolute end time.
package countdown

import "time"

type Countdown struct {
	end time.Time
}

func New(anchor time.Time, d time.Duration) Countdown {
	return Countdown{end: anchor.Add(d)}
}

// Remaining reports whole seconds left, rounded up and floored at 0, so a
// sample taken exactly at the anchor reads the full duration.
func (c Countdown) Remaining(now time.Time) int {
	left := c.end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

func (c Countdown) Expired(now time.Time) bool {
	return !now.Before(c.end)
}
