package render

import (
	"time"

	"github.com/mattjoyce/rings/internal/progress"
	"github.com/mattjoyce/rings/internal/segment"
)

// Ring names, outermost first.
const (
	RingDay   = "day"
	RingWeek  = "week"
	RingMonth = "month"
	RingYear  = "year"
)

// Frame is everything a drawing surface needs for one instant. A Frame is
// never modified after Tick returns it.
type Frame struct {
	At      time.Time         `json:"at"`
	Canvas  Canvas            `json:"canvas"`
	Block   BlockInfo         `json:"block"`
	Day     DayRingFrame      `json:"day"`
	Week    RingFrame         `json:"week"`
	Month   RingFrame         `json:"month"`
	Year    RingFrame         `json:"year"`
	Palette map[string]string `json:"palette,omitempty"`
}

// Canvas is the square viewport the rings are centred in.
type Canvas struct {
	Size    float64 `json:"size"`
	CenterX float64 `json:"cx"`
	CenterY float64 `json:"cy"`
}

// BlockInfo describes the active day block occurrence.
type BlockInfo struct {
	Name      string                  `json:"name"`
	Color     string                  `json:"color,omitempty"`
	Start     time.Time               `json:"start"`
	End       time.Time               `json:"end"`
	Progress  progress.PeriodProgress `json:"progress"`
	Countdown string                  `json:"countdown"`
}

// RingFrame is one ring's geometry and labels.
type RingFrame struct {
	Name        string                  `json:"name"`
	Radius      float64                 `json:"radius"`
	StrokeWidth float64                 `json:"stroke_width"`
	ActiveIndex int                     `json:"active_index"`
	Progress    progress.PeriodProgress `json:"progress"`
	// Percent is the remaining share, e.g. "71.88%".
	Percent string `json:"percent"`
	// Fraction is a "value/total unit" label, e.g. "3/7 d".
	Fraction string         `json:"fraction"`
	Detail   string         `json:"detail,omitempty"`
	Dash     Dash           `json:"dash"`
	Segments []SegmentFrame `json:"segments"`
}

// DayRingFrame adds the overnight indicator to the day ring.
type DayRingFrame struct {
	RingFrame
	Overnight SegmentFrame `json:"overnight"`
}

// SegmentFrame is a partitioned segment with its drawable arc.
type SegmentFrame struct {
	segment.Segment
	Path  string `json:"path"`
	Color string `json:"color,omitempty"`
}

// Dash drives a continuous stroke-dash ring: the visible stroke length is the
// remaining share of the circumference.
type Dash struct {
	Circumference float64 `json:"circumference"`
	Array         string  `json:"array"`
	Offset        float64 `json:"offset"`
}

// Rings returns the four rings, outermost first.
func (f Frame) Rings() []RingFrame {
	return []RingFrame{f.Day.RingFrame, f.Week, f.Month, f.Year}
}
