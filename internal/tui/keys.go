package tui

import "github.com/charmbracelet/bubbles/key"

// browserKeys are the catalog browser's shortcuts.
type browserKeys struct {
	Quit       key.Binding
	Search     key.Binding
	SearchType key.Binding
	Sort       key.Binding
	PriceDown  key.Binding
	PriceUp    key.Binding
	Categories key.Binding
	Clear      key.Binding
	Details    key.Binding
	Add        key.Binding
	Remove     key.Binding
	Delete     key.Binding
	Reload     key.Binding
	Toggle     key.Binding
	Apply      key.Binding
	Back       key.Binding
}

func newBrowserKeys() browserKeys {
	return browserKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		SearchType: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "search by"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		PriceDown: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "price -"),
		),
		PriceUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "price +"),
		),
		Categories: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "categories"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear filters"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add to library"),
		),
		Remove: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "remove from library"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}

var keys = newBrowserKeys()
