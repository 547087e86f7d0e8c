// Package progress computes elapsed and remaining fractions of the day window,
// week, month and year that contain an instant.
//
// All calendar arithmetic is done on calendar fields. time.Date is only used
// to build and normalise dates.
package progress

import (
	"fmt"
	"math"
	"time"
)

const (
	secondsPerDay  = 86400
	secondsPerWeek = 7 * secondsPerDay
)

// PeriodProgress is the position of an instant inside a period.
// Elapsed + Remaining == 1.
type PeriodProgress struct {
	Elapsed   float64 `json:"elapsed"`
	Remaining float64 `json:"remaining"`
}

// FromElapsed clamps elapsed to [0,1] and derives Remaining.
func FromElapsed(elapsed float64) PeriodProgress {
	e := Clamp(elapsed)
	return PeriodProgress{Elapsed: e, Remaining: 1 - e}
}

// RemainingPercent formats the remaining fraction as a percentage label.
func (p PeriodProgress) RemainingPercent(decimals int) string {
	return Percent(p.Remaining, decimals)
}

// Clamp limits v to [0,1]. NaN clamps to 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Percent renders fraction*100 with the given number of decimals, e.g. "71.88%".
func Percent(fraction float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return fmt.Sprintf("%.*f%%", decimals, Clamp(fraction)*100)
}

// secondsOfDay returns the wall-clock seconds since local midnight.
func secondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// WeekdayIndex maps time.Weekday (Sunday=0) to Monday=0 … Sunday=6.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Week returns progress through the Monday-started week.
func Week(t time.Time) PeriodProgress {
	elapsed := WeekdayIndex(t)*secondsPerDay + secondsOfDay(t)
	return FromElapsed(float64(elapsed) / secondsPerWeek)
}

// DaysInMonth returns the day-of-month of "day 0 of next month", i.e. the
// last day of t's month.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Month returns progress through the calendar month, counting from the start
// of day 1.
func Month(t time.Time) PeriodProgress {
	elapsed := (t.Day()-1)*secondsPerDay + secondsOfDay(t)
	total := DaysInMonth(t) * secondsPerDay
	return FromElapsed(float64(elapsed) / float64(total))
}

// IsLeapYear reports whether Feb 29 of year is a real date.
func IsLeapYear(year int) bool {
	return time.Date(year, time.February, 29, 0, 0, 0, 0, time.UTC).Day() == 29
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// DayOfYear returns the 1-based ordinal of t's calendar date.
func DayOfYear(t time.Time) int {
	y, m, d := t.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	jan1 := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(date.Sub(jan1).Hours()/24) + 1
}

// Year returns progress through the year at day granularity: Jan 1 counts as
// one elapsed day and Dec 31 completes the year.
func Year(t time.Time) PeriodProgress {
	return FromElapsed(float64(DayOfYear(t)) / float64(DaysInYear(t.Year())))
}

// WeekOfMonth returns the 1-based week of the month, ceil(day/7).
func WeekOfMonth(t time.Time) int {
	return ceilDiv(t.Day(), 7)
}

// WeeksInMonth returns ceil(daysInMonth/7).
func WeeksInMonth(t time.Time) int {
	return ceilDiv(DaysInMonth(t), 7)
}

// DaysRemainingInWeek counts today as remaining: 7 on Monday, 1 on Sunday.
func DaysRemainingInWeek(t time.Time) int {
	return 7 - WeekdayIndex(t)
}

// DaysRemainingInYear counts the days after today.
func DaysRemainingInYear(t time.Time) int {
	return DaysInYear(t.Year()) - DayOfYear(t)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
