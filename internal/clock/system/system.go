// Package system provides the wall clock.
package system

import "time"

// Clock implements crawler.Clock with the host's local time, which is what
// the event date default is expressed in.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current local time.
func (Clock) Now() time.Time {
	return time.Now()
}
