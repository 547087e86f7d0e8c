// Package render combines block resolution, period progress and segment
// partitioning into one Frame per instant, and serialises frames for drawing
// surfaces.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattjoyce/rings/internal/blocks"
	"github.com/mattjoyce/rings/internal/config"
	"github.com/mattjoyce/rings/internal/geometry"
	"github.com/mattjoyce/rings/internal/progress"
	"github.com/mattjoyce/rings/internal/segment"
)

// Projector holds the validated, immutable ring configuration. Tick is safe
// for concurrent use.
type Projector struct {
	catalogue *blocks.Catalogue
	window    progress.Window
	day       segment.DayRing
	week      segment.RingConfig
	month     segment.RingConfig
	year      segment.RingConfig
	decimals  map[string]int
	canvas    Canvas
	palette   map[string]string
}

// NewProjector converts and validates cfg. Every configuration error is
// reported here so that Tick cannot fail.
func NewProjector(cfg *config.Config) (*Projector, error) {
	catalogue, err := cfg.Catalogue()
	if err != nil {
		return nil, fmt.Errorf("day blocks: %w", err)
	}
	window, err := cfg.Window()
	if err != nil {
		return nil, fmt.Errorf("day window: %w", err)
	}
	day, err := cfg.DayRing()
	if err != nil {
		return nil, fmt.Errorf("day ring: %w", err)
	}
	if err := day.Validate(); err != nil {
		return nil, fmt.Errorf("day ring: %w", err)
	}

	p := &Projector{
		catalogue: catalogue,
		window:    window,
		day:       day,
		week:      cfg.Rings.Week.Segment(),
		month:     cfg.Rings.Month.Segment(),
		year:      cfg.Rings.Year.Segment(),
		decimals: map[string]int{
			RingDay:   cfg.Rings.Day.Decimals,
			RingWeek:  cfg.Rings.Week.Decimals,
			RingMonth: cfg.Rings.Month.Decimals,
			RingYear:  cfg.Rings.Year.Decimals,
		},
		canvas: Canvas{
			Size:    cfg.Canvas.Size,
			CenterX: cfg.Canvas.Size / 2,
			CenterY: cfg.Canvas.Size / 2,
		},
		palette: cfg.Palette(),
	}

	for name, rc := range map[string]segment.RingConfig{
		RingWeek:  p.week,
		RingMonth: p.month,
		RingYear:  p.year,
	} {
		if err := rc.Validate(); err != nil {
			return nil, fmt.Errorf("%s ring: %w", name, err)
		}
		if err := config.CheckCalendarSegments(name, rc.SegmentCount); err != nil {
			return nil, err
		}
	}
	if p.canvas.Size <= 0 {
		return nil, fmt.Errorf("canvas size must be positive")
	}

	return p, nil
}

// Tick evaluates the rings at now. It reads nothing but its arguments and the
// projector's configuration, so equal instants give equal frames.
func (p *Projector) Tick(now time.Time) Frame {
	occ := p.catalogue.Occurrence(now)
	blockProgress := progress.FromElapsed(now.Sub(occ.Start).Seconds() / occ.Duration().Seconds())

	palette := make(map[string]string, len(p.palette))
	for k, v := range p.palette {
		palette[k] = v
	}

	return Frame{
		At:     now,
		Canvas: p.canvas,
		Block: BlockInfo{
			Name:      occ.Block.Name,
			Color:     occ.Block.Color,
			Start:     occ.Start,
			End:       occ.End,
			Progress:  blockProgress,
			Countdown: Countdown(occ.Remaining(now)),
		},
		Day:     p.dayRing(now),
		Week:    p.weekRing(now),
		Month:   p.monthRing(now),
		Year:    p.yearRing(now),
		Palette: palette,
	}
}

func (p *Projector) dayRing(now time.Time) DayRingFrame {
	prog := p.window.Day(now)
	active := p.day.ActiveIndex(p.window.MinutesSinceStart(now))
	parts := p.day.Partition(active)

	rf := p.ring(RingDay, p.day.Waking, prog, active, parts.Waking)
	rf.Fraction = fmt.Sprintf("%d/%d h", p.window.HoursRemaining(now), p.window.TotalHours())
	return DayRingFrame{
		RingFrame: rf,
		Overnight: p.segmentFrame(p.day.Waking.Radius, parts.Overnight),
	}
}

func (p *Projector) weekRing(now time.Time) RingFrame {
	active := progress.WeekdayIndex(now)
	rf := p.ring(RingWeek, p.week, progress.Week(now), active, segment.Partition(p.week, active))
	rf.Fraction = fmt.Sprintf("%d/7 d", progress.DaysRemainingInWeek(now))
	return rf
}

func (p *Projector) monthRing(now time.Time) RingFrame {
	active := progress.WeekOfMonth(now) - 1
	rf := p.ring(RingMonth, p.month, progress.Month(now), active, segment.Partition(p.month, active))
	rf.Fraction = fmt.Sprintf("%d/%d wk", progress.WeekOfMonth(now), progress.WeeksInMonth(now))
	return rf
}

func (p *Projector) yearRing(now time.Time) RingFrame {
	active := int(now.Month()) - 1
	rf := p.ring(RingYear, p.year, progress.Year(now), active, segment.Partition(p.year, active))
	rf.Fraction = fmt.Sprintf("%d/12 mo", int(now.Month()))
	rf.Detail = fmt.Sprintf("%d d left", progress.DaysRemainingInYear(now))
	return rf
}

func (p *Projector) ring(name string, rc segment.RingConfig, prog progress.PeriodProgress, active int, segs []segment.Segment) RingFrame {
	frames := make([]SegmentFrame, len(segs))
	for i, s := range segs {
		frames[i] = p.segmentFrame(rc.Radius, s)
	}
	return RingFrame{
		Name:        name,
		Radius:      rc.Radius,
		StrokeWidth: rc.StrokeWidth,
		ActiveIndex: active,
		Progress:    prog,
		Percent:     prog.RemainingPercent(p.decimals[name]),
		Dash:        dashFor(rc.Radius, prog),
		Segments:    frames,
	}
}

func (p *Projector) segmentFrame(radius float64, s segment.Segment) SegmentFrame {
	arc := geometry.DescribeArc(p.canvas.CenterX, p.canvas.CenterY, radius, s.StartAngleDeg, s.EndAngleDeg)
	return SegmentFrame{
		Segment: s,
		Path:    arc.String(),
		Color:   p.colorOf(s.ColorTag),
	}
}

// colorOf maps a band tag to a colour: block names use the block colour,
// "#rrggbb" tags are literal.
func (p *Projector) colorOf(tag string) string {
	if strings.HasPrefix(tag, "#") {
		return tag
	}
	return p.palette[tag]
}

func dashFor(radius float64, prog progress.PeriodProgress) Dash {
	c := geometry.Circumference(radius)
	return Dash{
		Circumference: c,
		Array:         geometry.FormatNumber(c) + " " + geometry.FormatNumber(c),
		Offset:        c - prog.Remaining*c,
	}
}

// Countdown formats d as "HH:MM", truncated to whole minutes.
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
