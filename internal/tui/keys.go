package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the UI reacts to.
type KeyMap struct {
	Quit     key.Binding
	Tab      key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Enter    key.Binding
	Escape   key.Binding
	Login    key.Binding
	Logout   key.Binding
	Monitor  key.Binding
	CheckNow key.Binding
	MarkRead key.Binding
	Delete   key.Binding
	Export   key.Binding
	Toggle   key.Binding
	Save     key.Binding
	Confirm  key.Binding
	Deny     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "decrease")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "increase")),
		Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Login:    key.NewBinding(key.WithKeys("enter", "g"), key.WithHelp("enter", "sign in")),
		Logout:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sign out")),
		Monitor:  key.NewBinding(key.WithKeys("m", " "), key.WithHelp("m", "start/stop")),
		CheckNow: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check now")),
		MarkRead: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "mark read")),
		Delete:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Export:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
		Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Confirm:  key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
		Deny:     key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "cancel")),
	}
}
