package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowDay_Boundaries(t *testing.T) {
	w := DefaultWindow

	before := w.Day(at(2024, 3, 15, 6, 59, 59))
	assert.Equal(t, 1.0, before.Elapsed)
	assert.Equal(t, 0.0, before.Remaining)

	open := w.Day(at(2024, 3, 15, 7, 0, 0))
	assert.Equal(t, 0.0, open.Elapsed)

	closed := w.Day(at(2024, 3, 15, 23, 0, 0))
	assert.Equal(t, 1.0, closed.Elapsed)

	late := w.Day(at(2024, 3, 15, 22, 59, 59))
	assert.Less(t, late.Elapsed, 1.0)
}

func TestWindowDay_Midday(t *testing.T) {
	p := DefaultWindow.Day(at(2024, 3, 15, 11, 30, 0))
	assert.InDelta(t, 0.28125, p.Elapsed, 1e-12)
	assert.InDelta(t, 0.71875, p.Remaining, 1e-12)
}

func TestWindow_HoursRemaining(t *testing.T) {
	w := DefaultWindow
	assert.Equal(t, 12, w.HoursRemaining(at(2024, 3, 15, 11, 30, 0)))
	assert.Equal(t, 16, w.HoursRemaining(at(2024, 3, 15, 7, 0, 0)))
	assert.Equal(t, 1, w.HoursRemaining(at(2024, 3, 15, 22, 59, 0)))
	assert.Equal(t, 0, w.HoursRemaining(at(2024, 3, 15, 23, 30, 0)))
	assert.Equal(t, 16, w.TotalHours())
}

func TestWindow_MinutesSinceStart(t *testing.T) {
	w := DefaultWindow
	assert.Equal(t, -1, w.MinutesSinceStart(at(2024, 3, 15, 6, 0, 0)))
	assert.Equal(t, 0, w.MinutesSinceStart(at(2024, 3, 15, 7, 0, 59)))
	assert.Equal(t, 270, w.MinutesSinceStart(at(2024, 3, 15, 11, 30, 0)))
	assert.Equal(t, 959, w.MinutesSinceStart(at(2024, 3, 15, 22, 59, 59)))
	assert.Equal(t, -1, w.MinutesSinceStart(at(2024, 3, 15, 23, 0, 0)))
}

func TestNewWindow(t *testing.T) {
	w, err := NewWindow("07:00", "23:00")
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow, w)

	_, err = NewWindow("23:00", "07:00")
	assert.Error(t, err)
	_, err = NewWindow("7am", "23:00")
	assert.Error(t, err)
	_, err = NewWindow("07:00", "25:00")
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "07:00", want: 420},
		{in: "7:05", want: 425},
		{in: "23:59", want: 1439},
		{in: "00:00", want: 0},
		{in: "07:00:30", wantErr: true},
		{in: "7:00pm", wantErr: true},
		{in: "07:00 ", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseClock(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseClock(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseClock(%q)", tt.in)
	}
}
