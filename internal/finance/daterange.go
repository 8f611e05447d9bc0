package finance

import (
	"errors"
	"fmt"
	"time"
)

// DayLayout is the wire format of date-only query parameters
const DayLayout = "2006-01-02"

var (
	ErrMissingRange  = errors.New("start_date and end_date are required")
	ErrInvertedRange = errors.New("end_date must not be before start_date")
)

// DateRange is an inclusive [Start, End] window. End always sits on the last
// millisecond of its day so same-day records are never dropped.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange normalizes start to midnight and end to 23:59:59.999 in loc
func NewDateRange(start, end time.Time, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	r := DateRange{
		Start: StartOfDay(start, loc),
		End:   EndOfDay(end, loc),
	}
	if r.End.Before(r.Start) {
		return DateRange{}, ErrInvertedRange
	}
	return r, nil
}

// ParseDateRange reads two YYYY-MM-DD strings as a business-day range
func ParseDateRange(startStr, endStr string, loc *time.Location) (DateRange, error) {
	if startStr == "" || endStr == "" {
		return DateRange{}, ErrMissingRange
	}
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(DayLayout, startStr, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start_date %q, expected YYYY-MM-DD", startStr)
	}
	end, err := time.ParseInLocation(DayLayout, endStr, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end_date %q, expected YYYY-MM-DD", endStr)
	}
	return NewDateRange(start, end, loc)
}

// Contains reports whether t falls inside the range, both ends inclusive
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Location returns the business location the range was built in
func (r DateRange) Location() *time.Location {
	if r.Start.IsZero() {
		return time.UTC
	}
	return r.Start.Location()
}

func (r DateRange) String() string {
	return r.Start.Format(DayLayout) + " - " + r.End.Format(DayLayout)
}

// StartOfDay returns midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999 of t's calendar day in loc. It is built from
// the wall clock, so days of 23 or 25 hours around DST changes end on time.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

// MonthRange covers a whole calendar month
func MonthRange(year int, month time.Month, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := start.AddDate(0, 1, -1)
	return DateRange{Start: start, End: EndOfDay(last, loc)}
}

// YearRange covers a whole calendar year
func YearRange(year int, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.UTC
	}
	return DateRange{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		End:   EndOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, loc), loc),
	}
}

// PreviousMonth steps back one calendar month, wrapping January to December
func PreviousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// AddMonthsClamped advances t by n calendar months. A day that does not exist
// in the target month is clamped to that month's last day (Jan 31 + 1 = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	first := time.Date(y, m+time.Month(n), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
