package watch

import (
	"encoding/json"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/rings/internal/clock"
	"github.com/mattjoyce/rings/internal/events"
	"github.com/mattjoyce/rings/internal/render"
)

const maxEventLog = 50

// Projector is the local frame source.
type Projector interface {
	Tick(now time.Time) render.Frame
}

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	// Local mode
	projector Projector
	clock     clock.Clock

	// Remote mode
	apiURL string
	apiKey string

	width  int
	height int

	// State
	frame    *render.Frame
	health   HealthState
	eventLog []events.Event
	lastID   int64

	// Live indicators
	ticker Ticker
	pulse  Pulse

	// UI state
	theme      Theme
	showEvents bool

	// Communication
	hubEvents chan events.Event

	// Error display
	lastError string
}

// NewLocal creates a watch model that projects frames in-process.
func NewLocal(p Projector, c clock.Clock) *Model {
	if c == nil {
		c = clock.Real{}
	}
	m := newModel()
	m.projector = p
	m.clock = c
	m.health = HealthState{Status: "local", Connected: true}
	return m
}

// NewRemote creates a watch model fed by a server's /events stream.
func NewRemote(apiURL, apiKey string) *Model {
	m := newModel()
	m.apiURL = apiURL
	m.apiKey = apiKey
	m.clock = clock.Real{}
	m.hubEvents = make(chan events.Event, 100)
	return m
}

func newModel() *Model {
	return &Model{
		eventLog:   make([]events.Event, 0),
		ticker:     NewTicker(),
		theme:      NewDefaultTheme(),
		showEvents: true,
	}
}

func (m Model) local() bool { return m.projector != nil }

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	if m.local() {
		return tea.Batch(
			func() tea.Msg { return tickMsg(m.clock.Now()) },
			tea.EnterAltScreen,
		)
	}
	return tea.Batch(
		subscribeToEvents(m.apiURL, m.apiKey, 0, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		func() tea.Msg { return fetchHealth(m.apiURL, m.apiKey) },
		tick(),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "e":
			m.showEvents = !m.showEvents
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.ticker.Tick()
		if m.local() {
			m.applyFrame(m.projector.Tick(m.clock.Now()))
		}
		m.pulse.Decay(m.clock.Now())
		return m, tick()

	case eventMsg:
		e := events.Event(msg)
		m.lastID = max(m.lastID, e.ID)
		m.health.Connected = true
		m.lastError = ""

		if e.Type == events.TypeFrameRendered {
			f, err := decodeFrame(e)
			if err != nil {
				m.lastError = err.Error()
			} else {
				m.applyFrame(f)
			}
		} else {
			m.logEvent(e)
		}
		return m, receiveNextEvent(m.hubEvents)

	case healthMsg:
		m.health.Status = msg.Status
		m.health.UptimeSeconds = msg.UptimeSeconds
		m.health.SSEClients = msg.SSEClients
		m.health.Connected = true
		m.health.LastCheck = m.clock.Now()
		m.lastError = ""

		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return fetchHealth(m.apiURL, m.apiKey)
		})

	case sseDisconnectedMsg:
		m.health.Connected = false
		m.lastError = "SSE disconnected, reconnecting..."
		// The pending receiveNextEvent keeps waiting on the channel and picks
		// up events from the new subscription.
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return reconnectMsg{}
		})

	case reconnectMsg:
		return m, subscribeToEvents(m.apiURL, m.apiKey, m.lastID, m.hubEvents)

	case errMsg:
		m.lastError = msg.Error()
		if m.local() {
			return m, nil
		}
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return fetchHealth(m.apiURL, m.apiKey)
		})
	}

	return m, nil
}

// applyFrame installs f as the current frame. In local mode a change of
// block is logged the way the server's driver publishes it.
func (m *Model) applyFrame(f render.Frame) {
	if m.local() && m.frame != nil && m.frame.Block.Name != f.Block.Name {
		m.lastID++
		data, _ := json.Marshal(map[string]string{
			"from": m.frame.Block.Name,
			"to":   f.Block.Name,
		})
		m.logEvent(events.Event{ID: m.lastID, Type: events.TypeBlockChanged, At: f.At, Data: data})
	}
	m.frame = &f
	m.pulse.OnFrame(m.clock.Now())
}

// logEvent prepends e to the event log, newest first.
func (m *Model) logEvent(e events.Event) {
	m.eventLog = append([]events.Event{e}, m.eventLog...)
	if len(m.eventLog) > maxEventLog {
		m.eventLog = m.eventLog[:maxEventLog]
	}
}

// Frame returns the frame currently on screen, if any.
func (m Model) Frame() *render.Frame { return m.frame }

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing rings watch..."
	}

	parts := []string{
		renderHeader(m.frame, m.health, m.ticker, m.pulse, m.theme, m.width, m.local()),
		renderRings(m.frame, m.theme, m.width),
	}
	if m.showEvents {
		parts = append(parts, renderEventStream(m.eventLog, m.theme, m.width))
	}

	if m.lastError != "" {
		parts = append(parts, m.theme.StatusFailed.Render(fmt.Sprintf(" ⚠ %s", m.lastError)))
	}

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render(" [q] Quit • [e] Toggle events")
	parts = append(parts, help)

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
