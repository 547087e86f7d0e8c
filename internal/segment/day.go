package segment

import "fmt"

// Arc is a fixed angular span outside the quantized ring, used for the
// overnight indicator on the day ring.
type Arc struct {
	StartAngleDeg float64
	TotalAngleDeg float64
}

// DayRing is the composite day ring: an always-present overnight segment plus
// quantized waking segments.
type DayRing struct {
	Waking            RingConfig
	Overnight         Arc
	OvernightTag      string
	MinutesPerSegment int
}

// Validate checks both parts of the composite ring.
func (d DayRing) Validate() error {
	if err := d.Waking.Validate(); err != nil {
		return fmt.Errorf("waking segments: %w", err)
	}
	if d.MinutesPerSegment <= 0 {
		return fmt.Errorf("%w: minutes per segment must be positive", ErrInvalidRing)
	}
	if d.Overnight.TotalAngleDeg <= d.Waking.GapDeg || d.Overnight.TotalAngleDeg > 360 {
		return fmt.Errorf("%w: overnight arc must be wider than one gap and at most 360°", ErrInvalidRing)
	}
	return nil
}

// ActiveIndex quantizes minutes since window start, or NoActive outside the window.
func (d DayRing) ActiveIndex(minutesSinceStart int) int {
	if minutesSinceStart < 0 {
		return NoActive
	}
	idx := minutesSinceStart / d.MinutesPerSegment
	if idx >= d.Waking.SegmentCount {
		return NoActive
	}
	return idx
}

// DaySegments is the partitioned day ring.
type DaySegments struct {
	Overnight Segment   `json:"overnight"`
	Waking    []Segment `json:"waking"`
}

// Partition lays out the day ring. The overnight segment is active exactly
// when no waking segment is.
func (d DayRing) Partition(activeIndex int) DaySegments {
	half := d.Waking.GapDeg / 2
	state := Future
	if activeIndex == NoActive {
		state = Active
	}
	return DaySegments{
		Overnight: Segment{
			Index:         NoActive,
			StartAngleDeg: d.Overnight.StartAngleDeg + half,
			EndAngleDeg:   d.Overnight.StartAngleDeg + d.Overnight.TotalAngleDeg - half,
			State:         state,
			ColorTag:      d.OvernightTag,
		},
		Waking: Partition(d.Waking, activeIndex),
	}
}
