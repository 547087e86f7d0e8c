package progress

import (
	"fmt"
	"math"
	"time"
)

// Window is the waking-hours span tracked by the day ring, as minutes since
// local midnight. Start is inclusive and End exclusive.
type Window struct {
	StartMinute int
	EndMinute   int
}

// DefaultWindow is 07:00–23:00.
var DefaultWindow = Window{StartMinute: 7 * 60, EndMinute: 23 * 60}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// NewWindow builds a window from "HH:MM" bounds.
func NewWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}
	w := Window{StartMinute: s, EndMinute: e}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate checks that the window lies inside one calendar day.
func (w Window) Validate() error {
	if w.StartMinute < 0 || w.EndMinute > 24*60 {
		return fmt.Errorf("day window out of range")
	}
	if w.EndMinute <= w.StartMinute {
		return fmt.Errorf("day window end must be after start")
	}
	return nil
}

// Length returns the window length.
func (w Window) Length() time.Duration {
	return time.Duration(w.EndMinute-w.StartMinute) * time.Minute
}

// Bounds returns the window's start and end on t's calendar date.
func (w Window) Bounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	loc := t.Location()
	return time.Date(y, m, d, 0, w.StartMinute, 0, 0, loc),
		time.Date(y, m, d, 0, w.EndMinute, 0, 0, loc)
}

// Contains reports whether t falls in [start, end).
func (w Window) Contains(t time.Time) bool {
	start, end := w.Bounds(t)
	return !t.Before(start) && t.Before(end)
}

// Day returns progress through the window. Outside the window the day counts
// as fully elapsed.
func (w Window) Day(t time.Time) PeriodProgress {
	if !w.Contains(t) {
		return FromElapsed(1)
	}
	start, end := w.Bounds(t)
	return FromElapsed(t.Sub(start).Seconds() / end.Sub(start).Seconds())
}

// HoursRemaining returns the remaining window time rounded up to whole hours.
func (w Window) HoursRemaining(t time.Time) int {
	remaining := w.Day(t).Remaining * w.Length().Hours()
	return int(math.Ceil(remaining - 1e-9))
}

// TotalHours returns the window length in whole hours, rounded up.
func (w Window) TotalHours() int {
	return int(math.Ceil(w.Length().Hours()))
}

// MinutesSinceStart returns minutes elapsed in the window, or -1 outside it.
func (w Window) MinutesSinceStart(t time.Time) int {
	if !w.Contains(t) {
		return -1
	}
	start, _ := w.Bounds(t)
	return int(t.Sub(start) / time.Minute)
}
