package services

import "time"

// Clock returns the current time. Tests replace it to pin "now".
type Clock func() time.Time

// SystemClock is the wall clock
func SystemClock() time.Time {
	return time.Now()
}
