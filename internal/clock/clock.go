// Package clock abstracts the wall clock so business-day boundaries can be
// frozen in tests.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock and reports it in the business location.
type Real struct {
	Location *time.Location
}

// NewReal returns a Real clock for loc; a nil loc means UTC.
func NewReal(loc *time.Location) Real {
	if loc == nil {
		loc = time.UTC
	}
	return Real{Location: loc}
}

func (r Real) Now() time.Time {
	return time.Now().In(r.Location)
}

// Fixed always returns the same instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time {
	return f.T
}

// Location returns the location carried by c's current time.
func Location(c Clock) *time.Location {
	return c.Now().Location()
}
