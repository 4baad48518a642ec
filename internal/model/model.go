// Package model defines the value objects that flow through the analytics engine.
// Every value is built once per evaluation cycle and never mutated afterwards.
package model

import (
	"math"
	"time"
)

// DateLayout is the calendar-date format used on every external surface
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in UTC
func Today() time.Time {
	return Day(time.Now())
}

// DaysBetween returns the number of calendar days from start to end (ACT).
// Negative when end is before start.
func DaysBetween(start, end time.Time) int {
	return int(math.Round(Day(end).Sub(Day(start)).Hours() / 24))
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// ParseDay parses a DateLayout string into a UTC calendar date
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}
