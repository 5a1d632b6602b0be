package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests and the simulator inject a fake
// for deterministic wave timelines.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Clock returns the active time source. The observer loop sleeps on it, so
// a fake clock drives the entire engine in tests.
func Clock() clockwork.Clock {
	return clock
}
