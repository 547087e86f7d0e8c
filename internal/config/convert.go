package config

import (
	"fmt"
	"sort"

	"github.com/mattjoyce/rings/internal/blocks"
	"github.com/mattjoyce/rings/internal/progress"
	"github.com/mattjoyce/rings/internal/segment"
)

const minutesPerDay = 24 * 60

// DayBlocks returns the block table with omitted end hours filled in from
// the next block's start hour.
func (d DayConfig) DayBlocks() []blocks.DayBlock {
	sorted := make([]BlockConfig, len(d.Blocks))
	copy(sorted, d.Blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartHour < sorted[j].StartHour
	})

	out := make([]blocks.DayBlock, 0, len(sorted))
	for i, b := range sorted {
		end := sorted[(i+1)%len(sorted)].StartHour
		if b.EndHour != nil {
			end = *b.EndHour
		}
		out = append(out, blocks.DayBlock{
			Name:      b.Name,
			StartHour: b.StartHour,
			EndHour:   end,
			Color:     b.Color,
		})
	}
	return out
}

// Catalogue builds the validated block catalogue.
func (c *Config) Catalogue() (*blocks.Catalogue, error) {
	return blocks.NewCatalogue(c.Day.DayBlocks())
}

// Window parses the waking-hours window.
func (c *Config) Window() (progress.Window, error) {
	return progress.NewWindow(c.Day.Window.Start, c.Day.Window.End)
}

// Segment converts to the core ring type.
func (r RingConfig) Segment() segment.RingConfig {
	bands := make([]segment.ColorBand, 0, len(r.ColorBands))
	for _, b := range r.ColorBands {
		bands = append(bands, segment.ColorBand{From: b.From, To: b.To, Tag: b.Tag})
	}
	return segment.RingConfig{
		SegmentCount:  r.Segments,
		Radius:        r.Radius,
		StrokeWidth:   r.StrokeWidth,
		TotalAngleDeg: r.TotalAngleDeg,
		StartAngleDeg: r.StartAngleDeg,
		GapDeg:        r.GapDeg,
		ColorBands:    bands,
	}
}

// CalendarSegments is the fewest segments a calendar ring may have: one per
// weekday, per week of the longest month, and per month.
var CalendarSegments = map[string]int{
	"week":  7,
	"month": 5,
	"year":  12,
}

// CheckCalendarSegments reports a ring too short to hold every index its
// calendar unit can take. Rings not listed in CalendarSegments always pass.
func CheckCalendarSegments(name string, segments int) error {
	minimum, ok := CalendarSegments[name]
	if !ok || segments >= minimum {
		return nil
	}
	return fmt.Errorf("rings.%s.segments is %d but the %s ring needs at least %d", name, segments, name, minimum)
}

// DaySegmentCount returns the number of waking segments implied by the window.
func (c *Config) DaySegmentCount() (int, error) {
	w, err := c.Window()
	if err != nil {
		return 0, err
	}
	mps := c.Day.MinutesPerSegment
	if mps <= 0 {
		return 0, fmt.Errorf("day.minutes_per_segment must be positive")
	}
	length := w.EndMinute - w.StartMinute
	if length%mps != 0 {
		return 0, fmt.Errorf("day window of %d minutes is not a multiple of minutes_per_segment %d", length, mps)
	}
	return length / mps, nil
}

// DayRing builds the composite day ring. Segment count, angles and colour
// bands left unset are derived from the window and the block table, so the
// waking arc sits where those hours fall on a 24-hour dial.
func (c *Config) DayRing() (segment.DayRing, error) {
	w, err := c.Window()
	if err != nil {
		return segment.DayRing{}, err
	}
	catalogue, err := c.Catalogue()
	if err != nil {
		return segment.DayRing{}, err
	}
	count, err := c.DaySegmentCount()
	if err != nil {
		return segment.DayRing{}, err
	}

	rc := c.Rings.Day
	if rc.Segments != 0 && rc.Segments != count {
		return segment.DayRing{}, fmt.Errorf("rings.day.segments is %d but the day window holds %d segments", rc.Segments, count)
	}
	rc.Segments = count
	if rc.TotalAngleDeg == 0 {
		rc.StartAngleDeg = float64(w.StartMinute) / minutesPerDay * 360
		rc.TotalAngleDeg = float64(w.EndMinute-w.StartMinute) / minutesPerDay * 360
	}
	if len(rc.ColorBands) == 0 {
		rc.ColorBands = blockBands(catalogue, w, c.Day.MinutesPerSegment)
	}

	overnight := segment.Arc{
		StartAngleDeg: c.Day.Overnight.StartAngleDeg,
		TotalAngleDeg: c.Day.Overnight.TotalAngleDeg,
	}
	if overnight.TotalAngleDeg == 0 {
		overnight.StartAngleDeg = rc.StartAngleDeg + rc.TotalAngleDeg
		overnight.TotalAngleDeg = 360 - rc.TotalAngleDeg
	}

	return segment.DayRing{
		Waking:            rc.Segment(),
		Overnight:         overnight,
		OvernightTag:      catalogue.Wrapping().Name,
		MinutesPerSegment: c.Day.MinutesPerSegment,
	}, nil
}

// Palette maps block names to their colours.
func (c *Config) Palette() map[string]string {
	out := make(map[string]string, len(c.Day.Blocks))
	for _, b := range c.Day.Blocks {
		if b.Color != "" {
			out[b.Name] = b.Color
		}
	}
	return out
}

// blockBands gives every non-wrapping block the waking segments it overlaps.
func blockBands(c *blocks.Catalogue, w progress.Window, mps int) []ColorBandConfig {
	var bands []ColorBandConfig
	for _, b := range c.Blocks() {
		if b.Wraps() {
			continue
		}
		from := max(b.StartHour*60, w.StartMinute) - w.StartMinute
		to := min(b.EndHour*60, w.EndMinute) - w.StartMinute
		if to <= from {
			continue
		}
		bands = append(bands, ColorBandConfig{From: from / mps, To: (to+mps-1)/mps - 1, Tag: b.Name})
	}
	// Neighbouring blocks that share a segment cannot both claim it.
	for i := 1; i < len(bands); i++ {
		if bands[i].From <= bands[i-1].To {
			bands[i].From = bands[i-1].To + 1
		}
	}
	out := bands[:0]
	for _, b := range bands {
		if b.From <= b.To {
			out = append(out, b)
		}
	}
	return out
}
