package dashboard

import "github.com/charmbracelet/bubbles/key"

// listKeys holds key bindings for the list view.
type listKeys struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Refresh  key.Binding
	Prefetch key.Binding
	Quit     key.Binding
}

// ShortHelp returns the list view bindings for the help bar.
func (k listKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Refresh, k.Prefetch, k.Quit}
}

// FullHelp returns the list view bindings grouped for expanded help.
func (k listKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open},
		{k.Refresh, k.Prefetch, k.Quit},
	}
}

// detailKeys holds key bindings for the detail view.
type detailKeys struct {
	Back    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns the detail view bindings for the help bar.
func (k detailKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Refresh, k.Quit}
}

// FullHelp returns the detail view bindings grouped for expanded help.
func (k detailKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Back, k.Refresh, k.Quit}}
}

// ListKeyMap returns the key bindings for the list view.
func ListKeyMap() listKeys {
	return listKeys{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open post"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refetch"),
		),
		Prefetch: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prefetch all"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DetailKeyMap returns the key bindings for the detail view.
func DetailKeyMap() detailKeys {
	return detailKeys{
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace", "left", "h"),
			key.WithHelp("esc", "back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refetch"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
