// Package time holds clock helpers
package time

import "time"

// Clock is the now source services take so tests can pin time
type Clock func() time.Time

// System is the wall clock in UTC
func System() time.Time { return time.Now().UTC() }

// OrSystem returns c, or System when c is nil
func (c Clock) OrSystem() Clock {
	if c == nil {
		return System
	}
	return c
}

// Ptr returns &t, or nil for the zero time
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
