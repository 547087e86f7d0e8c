package progress

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func assertSumsToOne(t *testing.T, p PeriodProgress) {
	t.Helper()
	assert.InDelta(t, 1.0, p.Elapsed+p.Remaining, 1e-12)
	assert.GreaterOrEqual(t, p.Elapsed, 0.0)
	assert.LessOrEqual(t, p.Elapsed, 1.0)
}

func TestWeekdayIndex(t *testing.T) {
	// 2024-03-11 is a Monday.
	for i := range 7 {
		assert.Equal(t, i, WeekdayIndex(at(2024, 3, 11+i, 12, 0, 0)))
	}
}

func TestWeek(t *testing.T) {
	monday := Week(at(2024, 3, 11, 0, 0, 0))
	assert.Equal(t, 0.0, monday.Elapsed)
	assert.Equal(t, 1.0, monday.Remaining)

	sunday := Week(at(2024, 3, 17, 23, 59, 59))
	assert.InDelta(t, 1.0, sunday.Elapsed, 2.0/secondsPerWeek)
	assert.Less(t, sunday.Elapsed, 1.0)
	assertSumsToOne(t, sunday)
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		t    time.Time
		want int
	}{
		{at(2024, 1, 15, 0, 0, 0), 31},
		{at(2024, 2, 1, 0, 0, 0), 29},
		{at(2023, 2, 1, 0, 0, 0), 28},
		{at(1900, 2, 1, 0, 0, 0), 28},
		{at(2000, 2, 1, 0, 0, 0), 29},
		{at(2024, 4, 30, 0, 0, 0), 30},
		{at(2024, 12, 31, 0, 0, 0), 31},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DaysInMonth(tt.t), tt.t.Format("2006-01"))
	}
}

func TestMonth(t *testing.T) {
	first := Month(at(2024, 2, 1, 0, 0, 0))
	assert.Equal(t, 0.0, first.Elapsed)

	mid := Month(at(2024, 2, 15, 12, 0, 0))
	assert.InDelta(t, 14.5/29, mid.Elapsed, 1e-12)
	assertSumsToOne(t, mid)

	last := Month(at(2023, 2, 28, 23, 59, 59))
	assert.InDelta(t, 1.0, last.Elapsed, 2.0/(28*secondsPerDay))
}

func TestLeapYears(t *testing.T) {
	assert.Equal(t, 366, DaysInYear(2024))
	assert.Equal(t, 365, DaysInYear(2023))
	assert.Equal(t, 365, DaysInYear(2100))
	assert.Equal(t, 366, DaysInYear(2000))
	assert.True(t, IsLeapYear(2024))
	assert.False(t, IsLeapYear(2023))
}

func TestDayOfYear(t *testing.T) {
	assert.Equal(t, 1, DayOfYear(at(2024, 1, 1, 0, 0, 0)))
	assert.Equal(t, 1, DayOfYear(at(2024, 1, 1, 23, 59, 59)))
	assert.Equal(t, 60, DayOfYear(at(2024, 2, 29, 12, 0, 0)))
	assert.Equal(t, 366, DayOfYear(at(2024, 12, 31, 0, 0, 0)))
	assert.Equal(t, 365, DayOfYear(at(2023, 12, 31, 0, 0, 0)))
}

func TestDayOfYear_IgnoresZoneOffset(t *testing.T) {
	loc := time.FixedZone("UTC+14", 14*3600)
	assert.Equal(t, 1, DayOfYear(time.Date(2024, 1, 1, 0, 30, 0, 0, loc)))
}

func TestYear(t *testing.T) {
	jan1 := Year(at(2024, 1, 1, 0, 0, 0))
	assert.InDelta(t, 1.0/366, jan1.Elapsed, 1e-12)

	dec31 := Year(at(2023, 12, 31, 12, 0, 0))
	assert.Equal(t, 1.0, dec31.Elapsed)
	assert.Equal(t, 0.0, dec31.Remaining)
}

func TestLabels(t *testing.T) {
	march15 := at(2024, 3, 15, 11, 30, 0) // Friday
	assert.Equal(t, 3, DaysRemainingInWeek(march15))
	assert.Equal(t, 3, WeekOfMonth(march15))
	assert.Equal(t, 5, WeeksInMonth(march15))
	assert.Equal(t, 4, WeeksInMonth(at(2023, 2, 1, 0, 0, 0)))
	assert.Equal(t, 5, WeeksInMonth(at(2024, 2, 1, 0, 0, 0)))
	assert.Equal(t, 366-75, DaysRemainingInYear(march15))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.5))
	assert.Equal(t, 1.0, Clamp(1.5))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
	assert.Equal(t, 0.25, Clamp(0.25))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "71.88%", Percent(0.71875, 2))
	assert.Equal(t, "71.9%", Percent(0.71875, 1))
	assert.Equal(t, "100.0%", Percent(3, 1))
	assert.Equal(t, "0%", Percent(-1, -2))
}

func TestAllPeriodsSumToOne(t *testing.T) {
	start := at(2023, 12, 30, 0, 0, 0)
	for i := 0; i < 24*400; i += 7 {
		now := start.Add(time.Duration(i) * 37 * time.Minute)
		for _, p := range []PeriodProgress{Week(now), Month(now), Year(now), DefaultWindow.Day(now)} {
			require.InDelta(t, 1.0, p.Elapsed+p.Remaining, 1e-12, now.String())
			require.GreaterOrEqual(t, p.Elapsed, 0.0)
			require.LessOrEqual(t, p.Elapsed, 1.0)
		}
	}
}
