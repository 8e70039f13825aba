// Package clock abstracts the wall clock so timestamps can be fixed in tests.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

// New returns the system clock.
func New() Real {
	return Real{}
}

// Now returns the current UTC time.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock that returns a settable instant.
type Fixed struct {
	Current time.Time
}

var _ Clock = (*Fixed)(nil)

// NewFixed returns a Fixed clock set to t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{Current: t}
}

func (c *Fixed) Now() time.Time {
	return c.Current
}

// Advance moves the clock forward by d.
func (c *Fixed) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}
