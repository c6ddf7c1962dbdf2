// Package clock abstracts time for components that stamp records, so tests
// can use a fixed clock.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by time.Now.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed is a Clock that always returns the same instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
