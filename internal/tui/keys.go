package tui

import "github.com/charmbracelet/bubbles/key"

type keyBindings struct {
	Quit     key.Binding
	Search   key.Binding
	Navigate key.Binding
	Open     key.Binding
	Back     key.Binding
	Scroll   key.Binding
	Link     key.Binding
	Tabs     key.Binding
	Help     key.Binding
}

func newKeyBindings() keyBindings {
	return keyBindings{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Navigate: key.NewBinding(key.WithKeys("j", "k", "up", "down"), key.WithHelp("j/k", "navigate")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Scroll:   key.NewBinding(key.WithKeys("d", "u", "g", "G"), key.WithHelp("d/u", "scroll")),
		Link:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "related record")),
		Tabs:     key.NewBinding(key.WithKeys("ctrl+tab", "ctrl+w"), key.WithHelp("ctrl+tab/w", "next/close tab")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

func (k keyBindings) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Open, k.Back, k.Help, k.Quit}
}

func (k keyBindings) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Navigate, k.Open, k.Back},
		{k.Scroll, k.Link, k.Tabs},
		{k.Help, k.Quit},
	}
}
