package review

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Toggle  key.Binding
	Reset   key.Binding
	Confirm key.Binding
	Abort   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Toggle, k.Next, k.Prev, k.Confirm, k.Abort}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Down, k.Up, k.Toggle, k.Reset}, {k.Next, k.Prev, k.Confirm, k.Abort}}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Next:    key.NewBinding(key.WithKeys("n", "l", "right", "tab"), key.WithHelp("n", "next group")),
		Prev:    key.NewBinding(key.WithKeys("p", "h", "left", "shift+tab"), key.WithHelp("p", "prev group")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "keep/discard")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset group")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "move discards")),
		Abort:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "abort")),
	}
}
