// utils/dates.go
package utils

import (
	"math"
	"time"
)

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return BeginningOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(math.Round(end.Sub(start).Hours() / 24))
}

func DaysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// AddMonthsClamped adds n months to t, clamping the day to the last day of
// the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	// normalise the target month without letting the day spill over
	target := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := DaysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func AddYearsClamped(t time.Time, n int) time.Time {
	return AddMonthsClamped(t, 12*n)
}

// MonthRange returns the first instant of the month containing t and the
// first instant of the following month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// WallShift moves a time by whole calendar days plus a change of wall-clock
// time, so repeated occurrences keep their local hour across DST changes.
type WallShift struct {
	Days  int
	Clock time.Duration
}

// WallShiftBetween measures the move from one time to another in loc.
func WallShiftBetween(from, to time.Time, loc *time.Location) WallShift {
	from, to = from.In(loc), to.In(loc)
	return WallShift{
		Days:  DaysBetween(from, to),
		Clock: clockOf(to) - clockOf(from),
	}
}

func (s WallShift) IsZero() bool {
	return s.Days == 0 && s.Clock == 0
}

// Apply moves t by the shift, reading its date and clock in loc.
func (s WallShift) Apply(t time.Time, loc *time.Location) time.Time {
	if s.IsZero() {
		return t
	}
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d+s.Days, t.Hour(), t.Minute(), t.Second(), t.Nanosecond()+int(s.Clock), loc)
}

func clockOf(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second + time.Duration(t.Nanosecond())
}
