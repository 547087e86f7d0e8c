package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/rings/internal/segment"
)

func TestDayBlocks_FillsEndHours(t *testing.T) {
	d := DayConfig{Blocks: []BlockConfig{
		{Name: "night", StartHour: 22},
		{Name: "morning", StartHour: 6},
		{Name: "day", StartHour: 12},
	}}
	got := d.DayBlocks()
	require.Len(t, got, 3)
	assert.Equal(t, "morning", got[0].Name)
	assert.Equal(t, 12, got[0].EndHour)
	assert.Equal(t, 22, got[1].EndHour)
	assert.Equal(t, 6, got[2].EndHour)
}

func TestDayRing_Defaults(t *testing.T) {
	cfg := applyConfigDefaults(&Config{})
	day, err := cfg.DayRing()
	require.NoError(t, err)
	require.NoError(t, day.Validate())

	assert.Equal(t, 96, day.Waking.SegmentCount)
	assert.InDelta(t, 105, day.Waking.StartAngleDeg, 1e-9)
	assert.InDelta(t, 240, day.Waking.TotalAngleDeg, 1e-9)
	assert.InDelta(t, 345, day.Overnight.StartAngleDeg, 1e-9)
	assert.InDelta(t, 120, day.Overnight.TotalAngleDeg, 1e-9)
	assert.Equal(t, "go", day.OvernightTag)
	assert.Equal(t, []segment.ColorBand{
		{From: 0, To: 23, Tag: "ichi"},
		{From: 24, To: 47, Tag: "ni"},
		{From: 48, To: 71, Tag: "san"},
		{From: 72, To: 95, Tag: "shi"},
	}, day.Waking.ColorBands)
}

func TestDayRing_SegmentMismatch(t *testing.T) {
	cfg := applyConfigDefaults(&Config{})
	cfg.Rings.Day.Segments = 48
	_, err := cfg.DayRing()
	assert.Error(t, err)
}

func TestBlockBands_UnalignedBlocks(t *testing.T) {
	cfg := applyConfigDefaults(&Config{})
	cfg.Day.MinutesPerSegment = 60
	cfg.Day.Window = WindowConfig{Start: "07:30", End: "22:30"}
	day, err := cfg.DayRing()
	require.NoError(t, err)
	require.NoError(t, day.Waking.Validate())
	assert.Equal(t, 15, day.Waking.SegmentCount)
	assert.Equal(t, "ichi", day.Waking.ColorBands[0].Tag)
	assert.Equal(t, 14, day.Waking.ColorBands[len(day.Waking.ColorBands)-1].To)
}

func TestPalette(t *testing.T) {
	p := Defaults().Palette()
	assert.Equal(t, "#ff6347", p["ichi"])
	assert.Equal(t, "#9370db", p["go"])
}
