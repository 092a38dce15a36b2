package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the browsing key bindings
type KeyMap struct {
	// Navigation
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Home  key.Binding
	End   key.Binding
	Enter key.Binding

	// Views
	NextView key.Binding
	PrevView key.Binding
	ViewHome   key.Binding
	ViewSeries key.Binding
	ViewMovies key.Binding
	ViewList   key.Binding
	ViewPick   key.Binding

	// Actions
	Search  key.Binding
	Filter  key.Binding
	Toggle  key.Binding
	Watch   key.Binding
	Reroll  key.Binding
	Refresh key.Binding
	Help    key.Binding
	Escape  key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "previous rail"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next rail"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous item"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next item"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first item"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last item"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		NextView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next view"),
		),
		PrevView: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "previous view"),
		),
		ViewHome: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "home"),
		),
		ViewSeries: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "series"),
		),
		ViewMovies: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "movies"),
		),
		ViewList: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "my list"),
		),
		ViewPick: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "random"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "discover filter"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("a", " "),
			key.WithHelp("a", "add/remove my list"),
		),
		Watch: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "watch"),
		),
		Reroll: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new random pick"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
