// Package segment divides a ring into gapped angular segments and classifies
// each one relative to an active index.
package segment

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRing is returned for ring configurations that cannot be drawn.
var ErrInvalidRing = errors.New("invalid ring config")

// NoActive marks a ring with no active segment.
const NoActive = -1

// State classifies a segment relative to the active index.
type State int

const (
	Future State = iota
	Active
	Past
)

func (s State) String() string {
	switch s {
	case Past:
		return "past"
	case Active:
		return "active"
	default:
		return "future"
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v {
	case "past":
		*s = Past
	case "active":
		*s = Active
	case "future":
		*s = Future
	default:
		return fmt.Errorf("unknown segment state %q", v)
	}
	return nil
}

// StateOf is the pure classification rule.
func StateOf(index, activeIndex int) State {
	switch {
	case activeIndex == NoActive:
		return Future
	case index < activeIndex:
		return Past
	case index == activeIndex:
		return Active
	default:
		return Future
	}
}

// ColorBand tags segments From..To (inclusive) with Tag.
type ColorBand struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Tag  string `json:"tag"`
}

// RingConfig is the static geometry of one ring.
type RingConfig struct {
	SegmentCount  int
	Radius        float64
	StrokeWidth   float64
	TotalAngleDeg float64
	StartAngleDeg float64
	GapDeg        float64
	ColorBands    []ColorBand
}

// Validate rejects rings whose segments cannot be laid out.
func (c RingConfig) Validate() error {
	if c.SegmentCount <= 0 {
		return fmt.Errorf("%w: segment count must be positive (got %d)", ErrInvalidRing, c.SegmentCount)
	}
	if c.Radius <= 0 {
		return fmt.Errorf("%w: radius must be positive", ErrInvalidRing)
	}
	if c.StrokeWidth <= 0 {
		return fmt.Errorf("%w: stroke width must be positive", ErrInvalidRing)
	}
	if c.TotalAngleDeg <= 0 || c.TotalAngleDeg > 360 {
		return fmt.Errorf("%w: total angle must be in (0,360] (got %g)", ErrInvalidRing, c.TotalAngleDeg)
	}
	if c.GapDeg < 0 || math.IsNaN(c.GapDeg) {
		return fmt.Errorf("%w: gap must not be negative", ErrInvalidRing)
	}
	if float64(c.SegmentCount)*c.GapDeg >= c.TotalAngleDeg {
		return fmt.Errorf("%w: %d gaps of %g° consume the whole %g° ring",
			ErrInvalidRing, c.SegmentCount, c.GapDeg, c.TotalAngleDeg)
	}
	for i, b := range c.ColorBands {
		if b.From < 0 || b.To >= c.SegmentCount || b.From > b.To {
			return fmt.Errorf("%w: color band[%d] range %d..%d outside 0..%d",
				ErrInvalidRing, i, b.From, b.To, c.SegmentCount-1)
		}
		if i > 0 && b.From <= c.ColorBands[i-1].To {
			return fmt.Errorf("%w: color band[%d] overlaps or is out of order", ErrInvalidRing, i)
		}
	}
	return nil
}

// SegmentWidth is the angular width of one segment.
func (c RingConfig) SegmentWidth() float64 {
	return (c.TotalAngleDeg - float64(c.SegmentCount)*c.GapDeg) / float64(c.SegmentCount)
}

// BandTag returns the colour tag covering index, or "".
func (c RingConfig) BandTag(index int) string {
	for _, b := range c.ColorBands {
		if index >= b.From && index <= b.To {
			return b.Tag
		}
	}
	return ""
}

// Segment is one angular slice of a ring.
type Segment struct {
	Index         int     `json:"index"`
	StartAngleDeg float64 `json:"start_angle_deg"`
	EndAngleDeg   float64 `json:"end_angle_deg"`
	State         State   `json:"state"`
	ColorTag      string  `json:"color_tag,omitempty"`
}

// Partition lays out c.SegmentCount segments and classifies them against
// activeIndex. c must have passed Validate.
func Partition(c RingConfig, activeIndex int) []Segment {
	width := c.SegmentWidth()
	out := make([]Segment, c.SegmentCount)
	for i := range out {
		start := c.StartAngleDeg + float64(i)*(width+c.GapDeg)
		out[i] = Segment{
			Index:         i,
			StartAngleDeg: start,
			EndAngleDeg:   start + width,
			State:         StateOf(i, activeIndex),
			ColorTag:      c.BandTag(i),
		}
	}
	return out
}
