package domain

import "time"

// PollInterval picks the observation polling interval as a step function
// of the time remaining until the wave is predicted to hit the user (or
// until event start, before a hit prediction exists). Sub-50ms precision
// only matters in the final second, when many devices must fire their
// hit choreography together; everything coarser saves battery.
func PollInterval(remaining time.Duration) time.Duration {
	switch {
	case remaining > time.Hour:
		return time.Hour
	case remaining > 5*time.Minute:
		return 5 * time.Minute
	case remaining > 35*time.Second:
		return time.Second
	case remaining > time.Second:
		return 500 * time.Millisecond
	}
	return 50 * time.Millisecond
}
