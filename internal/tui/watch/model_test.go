package watch

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/rings/internal/clock"
	"github.com/mattjoyce/rings/internal/config"
	"github.com/mattjoyce/rings/internal/events"
	"github.com/mattjoyce/rings/internal/render"
	"github.com/mattjoyce/rings/internal/segment"
)

var ansiRe = regexp.MustCompile("\x1b\\[[0-9;?]*[a-zA-Z]")

func plain(s string) string { return ansiRe.ReplaceAllString(s, "") }

func newProjector(t *testing.T) *render.Projector {
	t.Helper()
	p, err := render.NewProjector(config.Defaults())
	require.NoError(t, err)
	return p
}

func at(hour, minute int) time.Time {
	return time.Date(2024, time.March, 15, hour, minute, 0, 0, time.UTC)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestLocal_TickProjectsFrame(t *testing.T) {
	fake := clock.NewFake(at(11, 30))
	m := *NewLocal(newProjector(t), fake)

	assert.Equal(t, "Initializing rings watch...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})
	m, cmd := update(t, m, tickMsg(fake.Now()))
	assert.NotNil(t, cmd)

	require.NotNil(t, m.Frame())
	assert.Equal(t, "ni", m.Frame().Block.Name)
	assert.Equal(t, 5, m.pulse.Dots())

	view := plain(m.View())
	assert.Contains(t, view, "RINGS WATCH")
	assert.Contains(t, view, "11:30:00")
	assert.Contains(t, view, "NI")
	assert.Contains(t, view, "03:30")
	assert.Contains(t, view, "hours left")
	assert.Contains(t, view, "71.88%")
	assert.Contains(t, view, "12/16 h")
	assert.Contains(t, view, "3/12 mo · 291 d left")
	assert.Contains(t, view, "LOCAL")
}

func TestLocal_BlockChangeIsLogged(t *testing.T) {
	fake := clock.NewFake(at(10, 59))
	m := *NewLocal(newProjector(t), fake)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})

	m, _ = update(t, m, tickMsg(fake.Now()))
	assert.Empty(t, m.eventLog)

	fake.Advance(time.Minute)
	m, _ = update(t, m, tickMsg(fake.Now()))
	require.Len(t, m.eventLog, 1)
	assert.Equal(t, events.TypeBlockChanged, m.eventLog[0].Type)
	assert.Equal(t, at(11, 0), m.eventLog[0].At)

	view := plain(m.View())
	assert.Contains(t, view, "ichi → ni")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	assert.NotContains(t, plain(m.View()), "ichi → ni")
}

func TestQuitKey(t *testing.T) {
	m := *NewLocal(newProjector(t), clock.NewFake(at(9, 0)))
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRemote_FrameEvent(t *testing.T) {
	f := newProjector(t).Tick(at(11, 30))
	data, err := json.Marshal(f)
	require.NoError(t, err)

	m := *NewRemote("http://localhost:8080", "")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})
	m, cmd := update(t, m, eventMsg{ID: 7, Type: events.TypeFrameRendered, At: f.At, Data: data})
	assert.NotNil(t, cmd)

	require.NotNil(t, m.Frame())
	got := m.Frame()
	assert.Equal(t, "ni", got.Block.Name)
	assert.Equal(t, 27, got.Day.ActiveIndex)
	assert.Equal(t, segment.Active, got.Day.Segments[27].State)
	assert.Equal(t, segment.Past, got.Day.Segments[0].State)
	assert.Equal(t, "71.88%", got.Day.Percent)
	assert.Equal(t, int64(7), m.lastID)
	assert.True(t, m.health.Connected)
	assert.Empty(t, m.eventLog)
}

func TestRemote_BadFrameSetsError(t *testing.T) {
	m := *NewRemote("http://localhost:8080", "")
	m, _ = update(t, m, eventMsg{ID: 1, Type: events.TypeFrameRendered, Data: []byte("{")})
	assert.Nil(t, m.Frame())
	assert.Contains(t, m.lastError, "decode frame 1")
}

func TestRemote_OtherEventsAreLogged(t *testing.T) {
	m := *NewRemote("http://localhost:8080", "")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})
	m, _ = update(t, m, eventMsg{
		ID:   3,
		Type: events.TypeBlockChanged,
		At:   at(15, 0),
		Data: []byte(`{"run_id":"0123456789abcdef","from":"ni","to":"san"}`),
	})

	require.Len(t, m.eventLog, 1)
	view := plain(m.View())
	assert.Contains(t, view, "ni → san [01234567]")
	assert.Contains(t, view, "No frame yet")
	assert.Contains(t, view, "Waiting for first frame")
}

func TestRemote_Health(t *testing.T) {
	m := *NewRemote("http://localhost:8080", "")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})
	m, cmd := update(t, m, healthMsg{Status: "ok", UptimeSeconds: 3725, SSEClients: 2})
	assert.NotNil(t, cmd)

	view := plain(m.View())
	assert.Contains(t, view, "CONNECTED")
	assert.Contains(t, view, "1h 2m")
	assert.Contains(t, view, "Watchers: 2")

	m, _ = update(t, m, sseDisconnectedMsg{})
	assert.False(t, m.health.Connected)
	view = plain(m.View())
	assert.Contains(t, view, "CONNECTING")
	assert.Contains(t, view, "SSE disconnected")
}

func TestEventLogIsCapped(t *testing.T) {
	m := *NewRemote("http://localhost:8080", "")
	for i := range maxEventLog + 10 {
		m.logEvent(events.Event{ID: int64(i + 1), Type: events.TypeDriverStarted})
	}
	require.Len(t, m.eventLog, maxEventLog)
	assert.Equal(t, int64(maxEventLog+10), m.eventLog[0].ID)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{5*time.Minute + 3*time.Second, "5m 3s"},
		{26*time.Hour + 10*time.Minute, "26h 10m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}
