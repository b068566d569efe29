package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Up             key.Binding
	Down           key.Binding
	Home           key.Binding
	End            key.Binding
	Enter          key.Binding
	Escape         key.Binding
	Quit           key.Binding
	SortNext       key.Binding
	SortPrev       key.Binding
	SortFlip       key.Binding
	Filter         key.Binding
	ShowAll        key.Binding
	NonInteractive key.Binding
	Todos          key.Binding
	MCP            key.Binding
	EventLog       key.Binding
	Yank           key.Binding
	Refresh        key.Binding
	Focus          key.Binding
	Help           key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev session"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next session"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first session"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last session"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter", "l"),
			key.WithHelp("enter", "detail view"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc", "h"),
			key.WithHelp("esc", "back / deselect"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		SortNext: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "next sort column"),
		),
		SortPrev: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "prev sort column"),
		),
		SortFlip: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "flip sort order"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		ShowAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle all processes"),
		),
		NonInteractive: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "toggle headless"),
		),
		Todos: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "todos panel"),
		),
		MCP: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mcp panel"),
		),
		EventLog: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "event log"),
		),
		Yank: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yank session id"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh now"),
		),
		Focus: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "focus tmux pane"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
