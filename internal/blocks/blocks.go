// Package blocks resolves which named block of the day cycle is active.
//
// A catalogue partitions the 24 hours of a day into contiguous blocks. Exactly
// one block wraps past midnight (its end hour is before its start hour).
package blocks

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidCatalogue is returned when a block table does not partition the day.
var ErrInvalidCatalogue = errors.New("invalid block catalogue")

// HoursPerDay is the size of the day cycle.
const HoursPerDay = 24

// DayBlock is a named interval of wall-clock hours.
type DayBlock struct {
	Name      string `json:"name"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
	Color     string `json:"color,omitempty"`
}

// Wraps reports whether the block crosses midnight.
func (b DayBlock) Wraps() bool {
	return b.EndHour < b.StartHour
}

// Hours returns the block length in hours.
func (b DayBlock) Hours() int {
	h := b.EndHour - b.StartHour
	if h <= 0 {
		h += HoursPerDay
	}
	return h
}

// Contains reports whether hour falls inside the block.
func (b DayBlock) Contains(hour int) bool {
	if b.Wraps() {
		return hour >= b.StartHour || hour < b.EndHour
	}
	return hour >= b.StartHour && hour < b.EndHour
}

// Catalogue is a validated, immutable block table.
type Catalogue struct {
	blocks []DayBlock
	wrap   int // index of the wrapping block
	byHour [HoursPerDay]int
}

// NewCatalogue validates blocks and returns a catalogue ordered by start hour.
func NewCatalogue(blocks []DayBlock) (*Catalogue, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no blocks defined", ErrInvalidCatalogue)
	}

	sorted := make([]DayBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartHour < sorted[j].StartHour
	})

	c := &Catalogue{blocks: sorted, wrap: -1}
	names := make(map[string]bool, len(sorted))
	for i, b := range sorted {
		if b.Name == "" {
			return nil, fmt.Errorf("%w: block[%d] has no name", ErrInvalidCatalogue, i)
		}
		if names[b.Name] {
			return nil, fmt.Errorf("%w: duplicate block name %q", ErrInvalidCatalogue, b.Name)
		}
		names[b.Name] = true
		if b.StartHour < 0 || b.StartHour >= HoursPerDay || b.EndHour < 0 || b.EndHour >= HoursPerDay {
			return nil, fmt.Errorf("%w: block %q hours must be in [0,24)", ErrInvalidCatalogue, b.Name)
		}
		if b.StartHour == b.EndHour {
			return nil, fmt.Errorf("%w: block %q is empty", ErrInvalidCatalogue, b.Name)
		}
		if b.Wraps() {
			if c.wrap >= 0 {
				return nil, fmt.Errorf("%w: blocks %q and %q both wrap midnight",
					ErrInvalidCatalogue, sorted[c.wrap].Name, b.Name)
			}
			c.wrap = i
		}
	}
	if c.wrap < 0 {
		return nil, fmt.Errorf("%w: exactly one block must wrap midnight", ErrInvalidCatalogue)
	}

	for h := range HoursPerDay {
		match := -1
		for i, b := range sorted {
			if !b.Contains(h) {
				continue
			}
			if match >= 0 {
				return nil, fmt.Errorf("%w: hour %d is covered by %q and %q",
					ErrInvalidCatalogue, h, sorted[match].Name, b.Name)
			}
			match = i
		}
		if match < 0 {
			return nil, fmt.Errorf("%w: hour %d is not covered by any block", ErrInvalidCatalogue, h)
		}
		c.byHour[h] = match
	}

	return c, nil
}

// Blocks returns a copy of the catalogue in start-hour order.
func (c *Catalogue) Blocks() []DayBlock {
	out := make([]DayBlock, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Wrapping returns the block that crosses midnight.
func (c *Catalogue) Wrapping() DayBlock {
	return c.blocks[c.wrap]
}

// Resolve returns the block active at hour. Out-of-range hours resolve to the
// wrapping block so a render loop always gets an answer.
func (c *Catalogue) Resolve(hour int) DayBlock {
	if hour < 0 || hour >= HoursPerDay {
		return c.Wrapping()
	}
	return c.blocks[c.byHour[hour]]
}

// Occurrence is the concrete interval of a block around an instant.
type Occurrence struct {
	Block DayBlock
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (o Occurrence) Duration() time.Duration {
	return o.End.Sub(o.Start)
}

// Remaining returns the time left until End, never negative.
func (o Occurrence) Remaining(now time.Time) time.Duration {
	d := o.End.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Occurrence resolves the active block at now and its absolute bounds.
// For the wrapping block before its end hour, the occurrence started on the
// previous calendar day.
func (c *Catalogue) Occurrence(now time.Time) Occurrence {
	b := c.Resolve(now.Hour())
	y, m, d := now.Date()
	loc := now.Location()

	start := time.Date(y, m, d, b.StartHour, 0, 0, 0, loc)
	if b.Wraps() && now.Hour() < b.EndHour {
		start = time.Date(y, m, d-1, b.StartHour, 0, 0, 0, loc)
	}

	sy, sm, sd := start.Date()
	end := time.Date(sy, sm, sd, b.EndHour, 0, 0, 0, loc)
	if b.Wraps() {
		end = time.Date(sy, sm, sd+1, b.EndHour, 0, 0, 0, loc)
	}

	return Occurrence{Block: b, Start: start, End: end}
}
