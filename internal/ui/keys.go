package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings of the console.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Logs       key.Binding
	Tab        key.Binding

	// Server lists
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Deselect key.Binding

	// Locomotive
	Faster       key.Binding
	Slower       key.Binding
	Stop         key.Binding
	Forward      key.Binding
	Backward     key.Binding
	HeadLight    key.Binding
	CabinLight   key.Binding
	Horn         key.Binding
	DrivingSound key.Binding

	// Switches
	Track key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "theme"),
		),
		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select server"),
		),
		Deselect: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "deselect"),
		),

		Faster: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "slower"),
		),
		Stop: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "stop"),
		),
		Forward: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "forward"),
		),
		Backward: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "backward"),
		),
		HeadLight: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "head light"),
		),
		CabinLight: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cabin light"),
		),
		Horn: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "horn"),
		),
		DrivingSound: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "driving sound"),
		),

		Track: key.NewBinding(
			key.WithKeys("1", "2", "3", "4"),
			key.WithHelp("1-4", "toggle switch"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Select, k.Faster, k.Slower, k.Stop, k.Track, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Up, k.Down, k.Select, k.Deselect},
		{k.Faster, k.Slower, k.Stop, k.Forward, k.Backward},
		{k.HeadLight, k.CabinLight, k.Horn, k.DrivingSound},
		{k.Track, k.Logs, k.CycleTheme, k.Help, k.Quit},
	}
}
