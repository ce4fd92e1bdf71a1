package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Enter    key.Binding
	Back     key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Tab1     key.Binding
	Tab2     key.Binding
	Tab3     key.Binding

	// Actions
	Quit     key.Binding
	Filter   key.Binding
	Escape   key.Binding
	Favorite key.Binding
	Trailer  key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("C-d", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter", "l", "right"),
			key.WithHelp("enter", "details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "h", "left", "backspace"),
			key.WithHelp("esc", "back"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next feed"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "previous feed"),
		),
		Tab1: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "popular")),
		Tab2: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "now playing")),
		Tab3: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "favorites")),

		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Favorite: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "favorite"),
		),
		Trailer: key.NewBinding(
			key.WithKeys("t", "p"),
			key.WithHelp("t", "trailer"),
		),
	}
}

// ListHelp returns the bindings shown in the list footer
func (k KeyMap) ListHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.NextTab, k.Filter, k.Quit}
}

// DetailHelp returns the bindings shown in the detail footer
func (k KeyMap) DetailHelp() []key.Binding {
	return []key.Binding{k.Favorite, k.Trailer, k.Back, k.Quit}
}
