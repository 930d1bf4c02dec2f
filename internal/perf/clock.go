package perf

import "time"

// Clock supplies timestamps to the engine.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, including its monotonic reading.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
