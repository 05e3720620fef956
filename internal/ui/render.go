package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/railcab/internal/railroad"
	"github.com/five82/railcab/internal/state"
)

const maxSpeedBar = 100

// renderHeader renders the status bar: connection badges, session and the
// last error.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	locoState := connectionState(m.snapshot, state.SourceLocomotive)
	switchState := connectionState(m.snapshot, state.SourceSwitch)
	parts := []string{
		bg.Render("railcab", styles.Logo),
		bg.Render("loco", styles.MutedText) + bg.Spaces(1) + styles.StateStyle(locoState).Render(locoState),
		bg.Render("switches", styles.MutedText) + bg.Spaces(1) + styles.StateStyle(switchState).Render(switchState),
	}

	if left := m.snapshot.SessionRemaining(time.Now()); left > 0 {
		style := styles.AccentText
		if left < 30*time.Second {
			style = styles.WarningText.Bold(true)
		}
		parts = append(parts, bg.Render("session "+formatRemaining(left), style))
	}

	if err := m.snapshot.LastError; err != nil {
		parts = append(parts, bg.Render(
			strings.ToUpper(m.snapshot.LastErrorSource)+" "+classifyConnectionError(err),
			styles.DangerText))
	}

	if !m.lastUpdated.IsZero() {
		parts = append(parts, bg.Render(m.lastUpdated.Format("15:04:05"), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	return styles.Footer.Width(m.width).Render(m.help.View(m.keys))
}

func (m Model) renderPanes() string {
	height := m.height - 2
	if height < 4 {
		height = 4
	}
	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth

	// Border and padding take two columns each side.
	loco := m.renderTitledBox("Locomotive",
		m.renderLocomotive(leftWidth-4),
		leftWidth, height, m.focus == PaneLocomotive)
	switches := m.renderTitledBox("Switches",
		m.renderSwitches(rightWidth-4),
		rightWidth, height, m.focus == PaneSwitches)
	return lipgloss.JoinHorizontal(lipgloss.Top, loco, switches)
}

func (m Model) renderLocomotive(width int) string {
	styles := m.theme.Styles()
	lines := m.renderServerList(PaneLocomotive, m.snapshot.SelectedLocomotive, width)
	lines = append(lines, "")

	if !m.snapshot.HasLocomotive {
		if m.snapshot.SelectedLocomotive != "" {
			lines = append(lines, styles.MutedText.Render("Waiting for locomotive..."))
		} else {
			lines = append(lines, styles.MutedText.Render("Select a locomotive server"))
		}
		return strings.Join(lines, "\n")
	}

	l := m.snapshot.Locomotive
	title := styles.Text.Bold(true).Render(fallback(l.Name, "unnamed"))
	if l.Number != "" {
		title += " " + styles.MutedText.Render("#"+l.Number)
	}
	lines = append(lines,
		title,
		field(styles, "Speed", speedBar(l.Speed, 20)+fmt.Sprintf(" %d", l.Speed)),
		field(styles, "Direction", l.Direction.String()),
		field(styles, "Head light", onOff(styles, l.HeadLight)),
		field(styles, "Cabin light", onOff(styles, l.CabineLighting)),
		field(styles, "Horn", onOff(styles, l.HornSound)),
		field(styles, "Driving sound", onOff(styles, l.DrivingSound)),
	)
	return strings.Join(lines, "\n")
}

func (m Model) renderSwitches(width int) string {
	styles := m.theme.Styles()
	lines := m.renderServerList(PaneSwitches, m.snapshot.SelectedSwitch, width)
	lines = append(lines, "")

	if !m.snapshot.HasSwitches {
		if m.snapshot.SelectedSwitch != "" {
			lines = append(lines, styles.MutedText.Render("Waiting for switches..."))
		} else {
			lines = append(lines, styles.MutedText.Render("Select a switch server"))
		}
		return strings.Join(lines, "\n")
	}

	g := m.snapshot.Switches
	for n := 1; n <= railroad.SwitchCount; n++ {
		pos, _ := g.Track(n)
		value := styles.Text.Render(pos.String())
		if pos == railroad.Diverging {
			value = styles.WarningText.Render(pos.String())
		}
		lines = append(lines, field(styles, fmt.Sprintf("Track %d", n), value))
	}
	return strings.Join(lines, "\n")
}

// renderServerList renders one line per listed server. The cursor row is
// highlighted and the selected server is marked.
func (m Model) renderServerList(p Pane, selected string, width int) []string {
	styles := m.theme.Styles()
	servers := m.servers(p)
	if len(servers) == 0 {
		return []string{styles.FaintText.Render("No servers listed")}
	}

	lines := make([]string, 0, len(servers))
	for i, s := range servers {
		marker := "  "
		if s.ID == selected {
			marker = "● "
		}
		text := marker + shortID(s.ID) + "  " + truncateMiddle(s.RestURL, width-14)
		switch {
		case i == m.cursor[p] && m.focus == p:
			lines = append(lines, styles.Selected.Width(width).Render(text))
		case s.ID == selected:
			lines = append(lines, styles.AccentText.Render(text))
		default:
			lines = append(lines, styles.Text.Render(text))
		}
	}
	return lines
}

func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor := m.theme.Border
	bgColor := m.theme.SurfaceAlt
	if focused {
		borderColor = m.theme.BorderFocus
		bgColor = m.theme.FocusBg
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Background(lipgloss.Color(bgColor)).
		Width(width-2).
		Height(height-2).
		Padding(0, 1).
		Render(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text)).Render(title) + "\n" + content)
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")
	full := m.help
	full.ShowAll = true
	b.WriteString(full.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("Press any key to close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	width := m.width - 2
	if width < 20 {
		width = 20
	}

	var lines []string
	switch {
	case m.logErr != nil:
		lines = append(lines, styles.DangerText.Render(m.logErr.Error()))
	case len(m.logs) == 0:
		lines = append(lines, styles.FaintText.Render("No log entries"))
	}
	for _, e := range m.logs {
		text := truncateMiddle(e.String(), width-4)
		switch e.Level {
		case "error", "dpanic", "panic", "fatal":
			text = styles.DangerText.Render(text)
		case "warn":
			text = styles.WarningText.Render(text)
		case "debug":
			text = styles.FaintText.Render(text)
		default:
			text = styles.Text.Render(text)
		}
		lines = append(lines, text)
	}
	lines = append(lines, "", styles.FaintText.Render("Press any key to close"))

	height := m.height
	if height < len(lines)+3 {
		height = len(lines) + 3
	}
	return m.renderTitledBox("Log "+m.logFile, strings.Join(lines, "\n"), width+2, height, true)
}

// connectionState names a resource pane's badge.
func connectionState(snap state.Snapshot, source string) string {
	selected := snap.SelectedLocomotive
	if source == state.SourceSwitch {
		selected = snap.SelectedSwitch
	}
	switch {
	case selected == "":
		return "idle"
	case snap.IsOffline(source):
		return "offline"
	default:
		return "polling"
	}
}

func field(styles Styles, label, value string) string {
	return styles.MutedText.Render(fmt.Sprintf("%-14s", label)) + value
}

func onOff(styles Styles, on bool) string {
	if on {
		return styles.SuccessText.Render("on")
	}
	return styles.FaintText.Render("off")
}

// speedBar draws speed as a bar of width cells scaled to maxSpeedBar.
func speedBar(speed, width int) string {
	if width <= 0 {
		return ""
	}
	if speed < 0 {
		speed = -speed
	}
	filled := speed * width / maxSpeedBar
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func formatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case errors.Is(err, railroad.ErrConflict):
		return "CONFLICT"
	case errors.Is(err, railroad.ErrUnassigned):
		return "UNASSIGNED"
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 || value == "" {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	keep := limit - 1
	prefix := keep / 2
	suffix := keep - prefix
	return string(runes[:prefix]) + "…" + string(runes[len(runes)-suffix:])
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
