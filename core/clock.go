package core

import "time"

// Clock abstracts the time source so controllers can be tested
// against a deterministic clock
type Clock interface {
	Now() time.Time
}

// MonotonicClock provides the real system time with monotonic readings
type MonotonicClock struct{}

// NewMonotonicClock creates a real time source
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{}
}

// Now returns the current time with monotonic clock reading
func (c *MonotonicClock) Now() time.Time {
	return time.Now()
}
