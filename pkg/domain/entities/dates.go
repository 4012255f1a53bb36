package entities

import "time"

// The engine works in calendar dates; time-of-day is not modeled.

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays returns the calendar date days after t (negative days go backward).
func AddDays(t time.Time, days int) time.Time {
	return Day(t).AddDate(0, 0, days)
}

// DaysBetween returns the whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
