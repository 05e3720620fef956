package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/railcab/internal/railroad"
	"github.com/five82/railcab/internal/state"
)

type recordedActions struct {
	calls []string
}

func (r *recordedActions) record(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recordedActions) SelectLocomotive(id string)        { r.record("select-loco %s", id) }
func (r *recordedActions) DeselectLocomotive()               { r.record("deselect-loco") }
func (r *recordedActions) SelectSwitches(id string)          { r.record("select-switch %s", id) }
func (r *recordedActions) DeselectSwitches()                 { r.record("deselect-switch") }
func (r *recordedActions) ChangeSpeed(delta int)             { r.record("speed %d", delta) }
func (r *recordedActions) Stop()                             { r.record("stop") }
func (r *recordedActions) SetDirection(d railroad.Direction) { r.record("direction %s", d) }
func (r *recordedActions) ToggleHeadLight()                  { r.record("head-light") }
func (r *recordedActions) ToggleCabineLighting()             { r.record("cabin-light") }
func (r *recordedActions) ToggleHornSound()                  { r.record("horn") }
func (r *recordedActions) ToggleDrivingSound()               { r.record("driving-sound") }
func (r *recordedActions) ToggleTrack(n int)                 { r.record("track %d", n) }

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func withSnapshot(m Model, snap state.Snapshot) Model {
	next, _ := m.Update(snapshotMsg(snap))
	return next.(Model)
}

func sampleSnapshot() state.Snapshot {
	return state.Snapshot{
		LocomotiveServers: []railroad.Server{
			{ID: "loco-a", RestURL: "http://a/locomotive/loco-a"},
			{ID: "loco-b", RestURL: "http://a/locomotive/loco-b"},
		},
		SwitchServers: []railroad.Server{
			{ID: "sw-1", RestURL: "http://a/switch/sw-1"},
		},
	}
}

func TestModel_SelectsServerUnderCursor(t *testing.T) {
	actions := &recordedActions{}
	m := withSnapshot(New(Options{Actions: actions}), sampleSnapshot())

	m = press(t, m,
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown}, // stays on the last entry
		tea.KeyMsg{Type: tea.KeyEnter},
		tea.KeyMsg{Type: tea.KeyTab},
		tea.KeyMsg{Type: tea.KeyEnter},
		runeKey("x"),
	)

	want := []string{"select-loco loco-b", "select-switch sw-1", "deselect-switch"}
	if !reflect.DeepEqual(actions.calls, want) {
		t.Fatalf("calls = %v, want %v", actions.calls, want)
	}
	if m.focus != PaneSwitches {
		t.Fatalf("focus = %v, want switches", m.focus)
	}
}

func TestModel_DriveKeysNeedSelection(t *testing.T) {
	actions := &recordedActions{}
	m := withSnapshot(New(Options{Actions: actions}), sampleSnapshot())

	press(t, m, runeKey("+"), runeKey("l"), runeKey("1"))
	if len(actions.calls) != 0 {
		t.Fatalf("calls without selection = %v, want none", actions.calls)
	}

	snap := sampleSnapshot()
	snap.SelectedLocomotive = "loco-a"
	snap.SelectedSwitch = "sw-1"
	m = withSnapshot(m, snap)

	press(t, m,
		runeKey("+"), runeKey("-"), runeKey("0"),
		runeKey("f"), runeKey("b"),
		runeKey("l"), runeKey("c"), runeKey("o"), runeKey("s"),
		runeKey("1"), runeKey("4"),
	)
	want := []string{
		"speed 10", "speed -10", "stop",
		"direction forward", "direction backward",
		"head-light", "cabin-light", "horn", "driving-sound",
		"track 1", "track 4",
	}
	if !reflect.DeepEqual(actions.calls, want) {
		t.Fatalf("calls = %v, want %v", actions.calls, want)
	}
}

func TestModel_HelpOverlaySwallowsNextKey(t *testing.T) {
	actions := &recordedActions{}
	m := New(Options{Actions: actions})
	m = press(t, m, runeKey("?"))
	if !m.showHelp {
		t.Fatalf("showHelp = false after ?")
	}
	m = press(t, m, runeKey("x"))
	if m.showHelp || len(actions.calls) != 0 {
		t.Fatalf("help still open or key leaked: showHelp=%v calls=%v", m.showHelp, actions.calls)
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m := New(Options{})
	for _, k := range []tea.KeyMsg{runeKey("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(k)
		if cmd == nil {
			t.Fatalf("key %q returned nil cmd, want tea.Quit", k.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("key %q did not quit", k.String())
		}
	}
}

func TestModel_TickQuitsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := New(Options{Context: ctx, Store: &state.Store{}})

	if _, cmd := m.Update(tickMsg{}); cmd == nil {
		t.Fatalf("tick returned nil cmd, want refresh batch")
	}

	cancel()
	_, cmd := m.Update(tickMsg{})
	if cmd == nil {
		t.Fatalf("tick after cancel returned nil cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("tick after cancel did not quit")
	}
}

func TestModel_CursorClampedWhenListShrinks(t *testing.T) {
	m := withSnapshot(New(Options{}), sampleSnapshot())
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor[PaneLocomotive] != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor[PaneLocomotive])
	}

	snap := sampleSnapshot()
	snap.LocomotiveServers = snap.LocomotiveServers[:1]
	m = withSnapshot(m, snap)
	if m.cursor[PaneLocomotive] != 0 {
		t.Fatalf("cursor = %d after shrink, want 0", m.cursor[PaneLocomotive])
	}

	m = withSnapshot(m, state.Snapshot{})
	if m.cursor[PaneLocomotive] != 0 {
		t.Fatalf("cursor = %d on empty list, want 0", m.cursor[PaneLocomotive])
	}
}

func TestModel_ViewRendersState(t *testing.T) {
	m := New(Options{})
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View before size = %q, want Loading...", got)
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = next.(Model)

	snap := sampleSnapshot()
	snap.SelectedLocomotive = "loco-a"
	snap.HasLocomotive = true
	snap.Locomotive = railroad.Locomotive{ID: "loco-a", Name: "BR 218", Number: "218-001", Speed: 40, HeadLight: true}
	snap.SelectedSwitch = "sw-1"
	snap.HasSwitches = true
	snap.Switches = railroad.SwitchGroup{ID: "sw-1", SwitchTrack3: railroad.Diverging}
	m = withSnapshot(m, snap)

	view := m.View()
	for _, want := range []string{"railcab", "BR 218", "#218-001", "forward", "Track 3", "diverging", "loco-a", "polling"} {
		if !strings.Contains(view, want) {
			t.Fatalf("View missing %q", want)
		}
	}
}

func TestModel_CycleTheme(t *testing.T) {
	m := New(Options{ThemeName: "Nightfox"})
	m = press(t, m, runeKey("T"))
	if m.theme.Name != "Slate" {
		t.Fatalf("theme = %q after T, want Slate", m.theme.Name)
	}
}

func TestModel_LogOverlay(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "railcab.log")
	line := `{"level":"warn","ts":"2026-10-18T09:15:42.000Z","msg":"sync failed","component":"locomotive","error":"boom"}` + "\n"
	if err := os.WriteFile(logPath, []byte(line), 0o644); err != nil {
		t.Fatal(err)
	}

	actions := &recordedActions{}
	m := New(Options{Actions: actions, LogFile: logPath})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = next.(Model)
	m = withSnapshot(m, state.Snapshot{SelectedLocomotive: "loco-a"})

	next, cmd := m.Update(runeKey("L"))
	m = next.(Model)
	if !m.showLogs || cmd == nil {
		t.Fatalf("L should open the log overlay and load entries")
	}
	next, _ = m.Update(cmd())
	m = next.(Model)

	if view := m.View(); !strings.Contains(view, "sync failed: boom") {
		t.Fatalf("log overlay missing entry:\n%s", view)
	}

	// The closing key is not forwarded.
	m = press(t, m, runeKey("+"))
	if m.showLogs || len(actions.calls) != 0 {
		t.Fatalf("overlay open = %v, calls = %v", m.showLogs, actions.calls)
	}
}

func TestModel_LogOverlayNeedsFile(t *testing.T) {
	m := press(t, New(Options{}), runeKey("L"))
	if m.showLogs {
		t.Fatalf("log overlay opened without a log file")
	}
}
