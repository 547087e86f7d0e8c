package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mattjoyce/rings/internal/render"
)

// HealthState tracks server health from /healthz polling.
type HealthState struct {
	Status        string
	UptimeSeconds int64
	SSEClients    int
	Connected     bool
	LastCheck     time.Time
}

func renderHeader(f *render.Frame, health HealthState, ticker Ticker, pulse Pulse, theme Theme, width int, local bool) string {
	innerWidth := width - 4

	clockText := "--:--:--"
	if f != nil {
		clockText = f.At.Format("15:04:05")
	}
	clockStr := theme.Dim.Render(clockText)
	titleText := fmt.Sprintf(" RINGS WATCH %s", theme.Highlight.Render(ticker.Current()))

	pad := innerWidth - lipgloss.Width(titleText) - lipgloss.Width(clockStr) - 4
	if pad < 1 {
		pad = 1
	}
	titleLine := titleText + strings.Repeat(" ", pad) + clockStr + " "

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleLine,
		blockLine(f, theme),
		statusLine(health, pulse, theme, local),
	)
	return theme.Border.Width(innerWidth).Render(content)
}

// blockLine shows the active block in its own colour with the countdown.
func blockLine(f *render.Frame, theme Theme) string {
	if f == nil {
		return theme.Dim.Render(" Waiting for first frame...")
	}
	b := f.Block
	name := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.ringColor("day", b.Color))).Render(strings.ToUpper(b.Name))
	left := humanize.RelTime(f.At, b.End, "left", "over")
	return fmt.Sprintf(" %s  %s %s  %s",
		name,
		b.Countdown,
		theme.Dim.Render("("+left+")"),
		theme.Dim.Render(b.Progress.RemainingPercent(0)+" of block remaining"),
	)
}

func statusLine(health HealthState, pulse Pulse, theme Theme, local bool) string {
	if local {
		return fmt.Sprintf(" %s  %s", theme.StatusOK.Render("LOCAL"), pulse.Render(theme))
	}

	status := theme.StatusOK.Render("CONNECTED")
	if !health.Connected {
		status = theme.StatusFailed.Render("CONNECTING")
	} else if health.Status != "ok" && health.Status != "" {
		status = theme.StatusFailed.Render(strings.ToUpper(health.Status))
	}
	uptime := time.Duration(health.UptimeSeconds) * time.Second
	return fmt.Sprintf(" %s  ⏱ %s  Watchers: %d  %s",
		status,
		formatDuration(uptime),
		health.SSEClients,
		pulse.Render(theme),
	)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
