package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avelko/driftfm/api"
	"github.com/avelko/driftfm/internal/config"
	"github.com/avelko/driftfm/internal/player"
	"github.com/avelko/driftfm/internal/ui/components"
)

// Model is the main bubbletea model. It is a pure observer: it reads
// snapshots off the player and sends intents back; it never mutates
// playback state directly.
type Model struct {
	// Dimensions
	width  int
	height int

	player *player.Player
	keys   config.KeyMap
	events <-chan api.Event

	// Last-seen snapshots, refreshed on ticks and events
	now      api.NowPlaying
	paused   bool
	volume   float64
	buffered int

	progressBar components.ProgressBar

	// Transient notice shown after a bookmark toggle
	notice      string
	noticeUntil time.Time

	// Styles
	titleStyle    lipgloss.Style
	loadingStyle  lipgloss.Style
	statusStyle   lipgloss.Style
	controlsStyle lipgloss.Style
	noticeStyle   lipgloss.Style
	borderStyle   lipgloss.Style
}

// TickMsg is sent periodically to refresh position and progress
type TickMsg time.Time

// EventMsg wraps a player event for the update loop
type EventMsg struct {
	Event api.Event
}

// NewModel creates the application model
func NewModel(p *player.Player, keys config.KeyMap) Model {
	return Model{
		width:       80,
		height:      24,
		player:      p,
		keys:        keys,
		events:      p.Bus().SubscribeAll(),
		volume:      p.VolumeLevel(),
		progressBar: components.NewProgressBar(60),
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		loadingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Italic(true),
		statusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		controlsStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1),
		noticeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
}

// Init starts the tick and event listeners
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.listen())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

// refresh pulls fresh snapshots off the player
func (m *Model) refresh() {
	m.now = m.player.Current()
	m.paused = m.player.Paused()
	m.volume = m.player.VolumeLevel()
	m.buffered = m.player.Buffered()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = msg.Width - 12
		return m, nil

	case TickMsg:
		m.refresh()
		if m.notice != "" && time.Now().After(m.noticeUntil) {
			m.notice = ""
		}
		return m, m.tick()

	case EventMsg:
		m.refresh()
		if msg.Event.Type == api.EventBookmarked {
			if change, ok := msg.Event.Payload.(api.BookmarkChange); ok {
				if change.Bookmarked {
					m.notice = "bookmarked " + change.Info.Name
				} else {
					m.notice = "bookmark removed"
				}
				m.noticeUntil = time.Now().Add(2 * time.Second)
			}
		}
		return m, m.listen()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey maps keys to player intents
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", m.keys.Quit:
		m.player.Send(api.Message{Type: api.MsgQuit})
		return m, tea.Quit

	case m.keys.PlayPause:
		m.player.Send(api.Message{Type: api.MsgPlayPause})

	case m.keys.Next:
		m.player.Send(api.Message{Type: api.MsgNext})

	case m.keys.VolumeUp:
		m.player.Send(api.Message{Type: api.MsgChangeVolume, Volume: 0.1})

	case m.keys.VolumeDown:
		m.player.Send(api.Message{Type: api.MsgChangeVolume, Volume: -0.1})

	case m.keys.Bookmark:
		m.player.Send(api.Message{Type: api.MsgBookmark})
	}

	return m, nil
}

// Run starts the terminal frontend and blocks until it quits
func Run(p *player.Player, keys config.KeyMap) error {
	program := tea.NewProgram(NewModel(p, keys), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
