package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/railcab/internal/logtail"
	"github.com/five82/railcab/internal/railroad"
	"github.com/five82/railcab/internal/state"
)

const (
	// speedStep is the speed change of one +/- key press.
	speedStep = 10
	// logLines bounds the log overlay.
	logLines = 20
)

// Actions are the commands the console issues. They must not block.
type Actions interface {
	SelectLocomotive(id string)
	DeselectLocomotive()
	SelectSwitches(id string)
	DeselectSwitches()

	ChangeSpeed(delta int)
	Stop()
	SetDirection(d railroad.Direction)
	ToggleHeadLight()
	ToggleCabineLighting()
	ToggleHornSound()
	ToggleDrivingSound()
	ToggleTrack(n int)
}

// Pane identifies the focused half of the console.
type Pane int

const (
	PaneLocomotive Pane = iota
	PaneSwitches
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Actions   Actions
	PollTick  time.Duration
	ThemeName string
	// LogFile is shown by the log overlay. Empty disables it.
	LogFile string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx      context.Context
	store    *state.Store
	actions  Actions
	pollTick time.Duration
	logFile  string

	theme Theme
	keys  keyMap
	help  help.Model

	snapshot    state.Snapshot
	lastUpdated time.Time

	width    int
	height   int
	ready    bool
	focus    Pane
	cursor   [2]int
	showHelp bool
	showLogs bool
	logs     []logtail.Entry
	logErr   error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	return Model{
		ctx:      ctx,
		store:    opts.Store,
		actions:  opts.Actions,
		pollTick: pollTick,
		logFile:  opts.LogFile,
		theme:    GetTheme(opts.ThemeName),
		keys:     DefaultKeyMap(),
		help:     help.New(),
		focus:    PaneLocomotive,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.clampCursors()
		return m, nil

	case logsMsg:
		m.logs = msg.entries
		m.logErr = msg.err
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showLogs {
		return m.renderLogs()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp || m.showLogs {
		// Any key closes an overlay.
		m.showHelp = false
		m.showLogs = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Logs):
		if m.logFile == "" {
			return m, nil
		}
		m.showLogs = true
		return m, loadLogsCmd(m.logFile)
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.focus = (m.focus + 1) % 2
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.focus] > 0 {
			m.cursor[m.focus]--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor[m.focus] < len(m.servers(m.focus))-1 {
			m.cursor[m.focus]++
		}
		return m, nil
	case key.Matches(msg, m.keys.Select):
		m.selectUnderCursor()
		return m, nil
	case key.Matches(msg, m.keys.Deselect):
		if m.actions != nil {
			if m.focus == PaneLocomotive {
				m.actions.DeselectLocomotive()
			} else {
				m.actions.DeselectSwitches()
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.Track):
		if m.actions != nil && m.snapshot.SelectedSwitch != "" && len(msg.Runes) == 1 {
			m.actions.ToggleTrack(int(msg.Runes[0] - '0'))
		}
		return m, nil
	}

	m.handleDriveKey(msg)
	return m, nil
}

// handleDriveKey maps locomotive keys to actions. They only apply while a
// locomotive is selected.
func (m Model) handleDriveKey(msg tea.KeyMsg) {
	if m.actions == nil || m.snapshot.SelectedLocomotive == "" {
		return
	}
	a := m.actions
	switch {
	case key.Matches(msg, m.keys.Faster):
		a.ChangeSpeed(speedStep)
	case key.Matches(msg, m.keys.Slower):
		a.ChangeSpeed(-speedStep)
	case key.Matches(msg, m.keys.Stop):
		a.Stop()
	case key.Matches(msg, m.keys.Forward):
		a.SetDirection(railroad.Forward)
	case key.Matches(msg, m.keys.Backward):
		a.SetDirection(railroad.Backward)
	case key.Matches(msg, m.keys.HeadLight):
		a.ToggleHeadLight()
	case key.Matches(msg, m.keys.CabinLight):
		a.ToggleCabineLighting()
	case key.Matches(msg, m.keys.Horn):
		a.ToggleHornSound()
	case key.Matches(msg, m.keys.DrivingSound):
		a.ToggleDrivingSound()
	}
}

func (m Model) selectUnderCursor() {
	servers := m.servers(m.focus)
	i := m.cursor[m.focus]
	if m.actions == nil || i < 0 || i >= len(servers) {
		return
	}
	if m.focus == PaneLocomotive {
		m.actions.SelectLocomotive(servers[i].ID)
	} else {
		m.actions.SelectSwitches(servers[i].ID)
	}
}

func (m Model) servers(p Pane) []railroad.Server {
	if p == PaneLocomotive {
		return m.snapshot.LocomotiveServers
	}
	return m.snapshot.SwitchServers
}

// clampCursors keeps both cursors inside their lists after a refresh.
func (m *Model) clampCursors() {
	for _, p := range []Pane{PaneLocomotive, PaneSwitches} {
		n := len(m.servers(p))
		if m.cursor[p] >= n {
			m.cursor[p] = n - 1
		}
		if m.cursor[p] < 0 {
			m.cursor[p] = 0
		}
	}
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.ctx.Err() != nil {
		return m, tea.Quit
	}
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.showLogs {
		cmds = append(cmds, loadLogsCmd(m.logFile))
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderPanes())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.Read(path, logLines)
		return logsMsg{entries: entries, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
