// Package calendar works with civil dates: a time.Time at midnight UTC that
// carries no meaningful time-of-day or zone.
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for every civil date in the system.
const DateLayout = "2006-01-02"

// Clock returns the current instant. Engines never read the wall clock
// directly; callers pass a Clock (or its value) down instead.
type Clock func() time.Time

// SystemClock reads the process clock in local time.
func SystemClock() time.Time {
	return time.Now()
}

// Date builds a civil date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time-of-day of t, keeping the calendar day as seen in
// t's own location.
func Truncate(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// Today returns the civil date of the clock's current instant.
func Today(clock Clock) time.Time {
	if clock == nil {
		clock = SystemClock
	}
	return Truncate(clock())
}

// Parse reads a YYYY-MM-DD string.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseOptional returns nil for an empty string.
func ParseOptional(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Format renders a civil date, or "" for the zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatPtr renders an optional civil date.
func FormatPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Format(*t)
}

// FormatOptional is like FormatPtr but keeps the absence explicit for JSON.
func FormatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := Format(*t)
	return &s
}

// AddDays shifts a civil date by n calendar days (n may be negative).
func AddDays(t time.Time, n int) time.Time {
	return Truncate(t).AddDate(0, 0, n)
}

// DaysBetween counts whole days from `from` to `to`, both truncated to midnight.
func DaysBetween(from, to time.Time) int {
	return int(Truncate(to).Sub(Truncate(from)).Hours() / 24)
}

// MonthStart returns the first day of the month `offset` months after t's month.
func MonthStart(t time.Time, offset int) time.Time {
	return Date(t.Year(), t.Month()+time.Month(offset), 1)
}

// Equal compares the calendar day of two instants.
func Equal(a, b time.Time) bool {
	return Truncate(a).Equal(Truncate(b))
}

// Ptr returns a pointer to a copy of t.
func Ptr(t time.Time) *time.Time {
	return &t
}
