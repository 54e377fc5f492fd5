package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/mactop/internal/metrics"
)

// Width breakpoints for layout modes
const (
	BreakpointCompact = 80
	BreakpointWide    = 120
)

// DefaultTopTasks is how many tasks the task table shows.
const DefaultTopTasks = 8

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	store    *metrics.Store
	interval time.Duration
	now      func() time.Time

	power   metrics.PowerSnapshot
	battery metrics.BatterySnapshot
	system  metrics.SystemSnapshot
	updated map[metrics.Source]time.Time
	drawnAt time.Time

	keys     keyMap
	help     help.Model
	showHelp bool
	width    int
	height   int
	quitting bool
	topTasks int
}

// New returns a dashboard reading store every interval.
func New(store *metrics.Store, interval time.Duration) Model {
	m := Model{
		store:    store,
		interval: interval,
		now:      time.Now,
		keys:     defaultKeyMap(),
		help:     help.New(),
		topTasks: DefaultTopTasks,
	}
	m.refresh()
	return m
}

// Init starts the tick timer.
func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
		case key.Matches(msg, m.keys.Refresh):
			m.refresh()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.refresh()
		return m, m.tickCmd()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh copies the latest snapshot of every source out of the store.
func (m *Model) refresh() {
	m.power = m.store.Power()
	m.battery = m.store.Battery()
	m.system = m.store.System()
	m.updated = make(map[metrics.Source]time.Time, len(metrics.Sources))
	for _, src := range metrics.Sources {
		m.updated[src] = m.store.UpdatedAt(src)
	}
	m.drawnAt = m.now()
}
