package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its own calendar date. Every date the
// planner handles goes through Day so that day arithmetic never sees a
// time-of-day or DST offset.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays moves a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween counts calendar days from a to b. Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(Day(b).Sub(Day(a)).Hours() / 24))
}

// StartOfWeek snaps t back to the most recent weekStart, or t itself when it
// already falls on weekStart.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	d := Day(t)
	back := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDate(0, 0, -back)
}

// SubtractMonths moves t back by a possibly fractional number of months:
// whole calendar months first, then round(fraction*30) days.
func SubtractMonths(t time.Time, months float64) time.Time {
	whole := math.Floor(months)
	days := int(math.Round((months - whole) * 30))
	return Day(t).AddDate(0, -int(whole), -days)
}
