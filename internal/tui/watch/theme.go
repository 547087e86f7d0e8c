// Package watch implements the rings system watch TUI. It draws the four
// rings as remaining bars and segment strips, fed either by a local projector
// or by a running server's /events stream.
package watch

import "github.com/charmbracelet/lipgloss"

// Theme centralizes all styling for the watch TUI.
type Theme struct {
	// Segment states
	SegmentPast   lipgloss.Style
	SegmentActive lipgloss.Style

	StatusOK     lipgloss.Style
	StatusFailed lipgloss.Style

	// UI elements
	Border    lipgloss.Style
	Title     lipgloss.Style
	Label     lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style

	// Indicators
	PulseActive   lipgloss.Style
	PulseInactive lipgloss.Style

	// RingColors fill the remaining bars of rings without a block colour.
	RingColors map[string]string
	// Fallback colours a segment without a colour band.
	Fallback string
}

func NewDefaultTheme() Theme {
	purple := lipgloss.Color("#874BFD")

	return Theme{
		SegmentPast:   lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")),
		SegmentActive: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")),

		StatusOK:     lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		StatusFailed: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1),
		Label:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#61AFEF")).Width(6),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),

		PulseActive:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		PulseInactive: lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")),

		RingColors: map[string]string{
			"week":  "#61AFEF",
			"month": "#98C379",
			"year":  "#C678DD",
		},
		Fallback: "#888888",
	}
}

// ringColor picks the bar colour for a ring. The day ring follows the
// active block.
func (t Theme) ringColor(ring, blockColor string) string {
	if ring == "day" && blockColor != "" {
		return blockColor
	}
	if c, ok := t.RingColors[ring]; ok {
		return c
	}
	return t.Fallback
}
