package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps report timestamps. Tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock, in UTC.
func Now() time.Time {
	return clock.Now().UTC()
}
