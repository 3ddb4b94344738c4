package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Open, Toggle, HideRead, Refresh key.Binding
	Add, Remove, Parse, Quit        key.Binding
	Dismiss, ScrollDown, ScrollUp   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Toggle:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "read/unread")),
		HideRead:   key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hide read")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add feed")),
		Remove:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove feed")),
		Parse:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "full article")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Dismiss:    key.NewBinding(key.WithKeys("enter", "esc")),
		ScrollDown: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "scroll post")),
		ScrollUp:   key.NewBinding(key.WithKeys("ctrl+u")),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Open, k.Toggle, k.HideRead, k.Refresh, k.Add, k.Remove, k.Parse, k.ScrollDown}
}
