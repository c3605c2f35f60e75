// Package clock abstracts wall time so uptime and timestamps can be controlled in tests.
package clock

import "time"

// Clock reports the current time
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

type system struct{}

func (system) Now() time.Time                  { return time.Now() }
func (system) Since(t time.Time) time.Duration { return time.Since(t) }

// New returns the system clock
func New() Clock {
	return system{}
}
