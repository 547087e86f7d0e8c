package watch

import (
	"strings"
	"time"
)

// Ticker rotates through a clock face on every tick so a frozen screen is
// obvious.
type Ticker struct {
	frames []string
	index  int
}

func NewTicker() Ticker {
	return Ticker{frames: []string{"◴", "◷", "◶", "◵"}}
}

func (t *Ticker) Tick() {
	t.index = (t.index + 1) % len(t.frames)
}

func (t Ticker) Current() string {
	return t.frames[t.index]
}

// Pulse lights up when a frame arrives and fades while none do.
type Pulse struct {
	dots      int
	lastFrame time.Time
}

func (p *Pulse) OnFrame(at time.Time) {
	p.dots = 5
	p.lastFrame = at
}

// Decay fades the pulse based on time since the last frame.
func (p *Pulse) Decay(now time.Time) {
	if p.dots == 0 {
		return
	}
	elapsed := now.Sub(p.lastFrame)
	switch {
	case elapsed > 10*time.Second:
		p.dots = 0
	case elapsed > 8*time.Second:
		p.dots = 1
	case elapsed > 6*time.Second:
		p.dots = 2
	case elapsed > 4*time.Second:
		p.dots = 3
	case elapsed > 2*time.Second:
		p.dots = 4
	}
}

func (p Pulse) Render(theme Theme) string {
	var b strings.Builder
	for i := range 5 {
		if i < p.dots {
			b.WriteString(theme.PulseActive.Render("●"))
		} else {
			b.WriteString(theme.PulseInactive.Render("○"))
		}
	}
	return b.String()
}

func (p Pulse) Dots() int { return p.dots }

func (p Pulse) LastFrame() time.Time { return p.lastFrame }
