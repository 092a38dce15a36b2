package components

import "github.com/charmbracelet/bubbles/key"

// SearchKeyMap defines key bindings inside the search modal
type SearchKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Type   key.Binding
	Escape key.Binding
}

// SearchKeys are the default search modal bindings
var SearchKeys = SearchKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+k", "ctrl+p"),
		key.WithHelp("↑", "previous"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+j", "ctrl+n"),
		key.WithHelp("↓", "next"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Type: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "all/movies/series"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
}

// FilterKeyMap defines key bindings inside the discover filter modal
type FilterKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Left   key.Binding
	Right  key.Binding
	Clear  key.Binding
	Apply  key.Binding
	Escape key.Binding
}

// FilterKeys are the default filter modal bindings
var FilterKeys = FilterKeyMap{
	Next: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("S-tab", "previous field"),
	),
	Left: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "previous genre"),
	),
	Right: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "next genre"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("C-u", "clear"),
	),
	Apply: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "apply"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

// OverlayKeyMap defines key bindings while the detail overlay is open
type OverlayKeyMap struct {
	Watch   key.Binding
	Trailer key.Binding
	Toggle  key.Binding
	Close   key.Binding
}

// OverlayKeys are the default overlay bindings
var OverlayKeys = OverlayKeyMap{
	Watch: key.NewBinding(
		key.WithKeys("enter", "w"),
		key.WithHelp("enter", "watch"),
	),
	Trailer: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "trailer"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("a", " "),
		key.WithHelp("a", "my list"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "backspace"),
		key.WithHelp("esc", "close"),
	),
}
