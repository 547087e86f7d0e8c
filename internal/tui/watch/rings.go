package watch

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/rings/internal/render"
	"github.com/mattjoyce/rings/internal/segment"
)

const (
	minBarWidth = 10
	maxBarWidth = 48
)

func renderRings(f *render.Frame, theme Theme, width int) string {
	innerWidth := width - 4

	if f == nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("RINGS"),
			theme.Dim.Render("  No frame yet"),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	// label, bar, percent, fraction
	barWidth := min(max(innerWidth-36, minBarWidth), maxBarWidth)

	lines := []string{theme.Title.Render("RINGS")}
	for _, r := range f.Rings() {
		bar := progress.New(
			progress.WithSolidFill(theme.ringColor(r.Name, f.Block.Color)),
			progress.WithoutPercentage(),
		)
		bar.Width = barWidth

		lines = append(lines, fmt.Sprintf(" %s %s %8s  %s",
			theme.Label.Render(r.Name),
			bar.ViewAs(r.Progress.Remaining),
			r.Percent,
			theme.Dim.Render(ringDetail(r)),
		))
		strip := segmentStrip(r.Segments, barWidth, theme)
		if r.Name == render.RingDay {
			strip += " " + segmentCell([]render.SegmentFrame{f.Day.Overnight}, theme)
		}
		lines = append(lines, fmt.Sprintf(" %s %s", theme.Label.Render(""), strip))
	}

	return theme.Border.Width(innerWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func ringDetail(r render.RingFrame) string {
	if r.Detail == "" {
		return r.Fraction
	}
	return r.Fraction + " · " + r.Detail
}

// segmentStrip draws at most cells glyphs. When a ring has more segments
// than cells, neighbouring segments share a glyph.
func segmentStrip(segs []render.SegmentFrame, cells int, theme Theme) string {
	if len(segs) == 0 || cells <= 0 {
		return ""
	}
	cells = min(cells, len(segs))

	var b strings.Builder
	for i := range cells {
		from := i * len(segs) / cells
		to := (i + 1) * len(segs) / cells
		b.WriteString(segmentCell(segs[from:to], theme))
	}
	return b.String()
}

// segmentCell renders a group of segments as one glyph: active wins over
// future, and the group is past only when every segment is.
func segmentCell(group []render.SegmentFrame, theme Theme) string {
	state := segment.Past
	color := ""
	for _, s := range group {
		if s.State == segment.Active {
			state = segment.Active
			color = s.Color
			break
		}
		if s.State == segment.Future && state == segment.Past {
			state = segment.Future
			color = s.Color
		}
	}
	if color == "" {
		color = theme.Fallback
	}

	switch state {
	case segment.Active:
		return theme.SegmentActive.Foreground(lipgloss.Color(color)).Render("◆")
	case segment.Future:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("■")
	default:
		return theme.SegmentPast.Render("·")
	}
}
