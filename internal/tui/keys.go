package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Left, Right key.Binding
	MoveUp, MoveDown      key.Binding
	MoveLeft, MoveRight   key.Binding
	ListLeft, ListRight   key.Binding
	Toggle, ToggleAll     key.Binding
	Delete, Clear         key.Binding
	Renumber              key.Binding
	Cancel, Help, Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev list")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next list")),
		MoveUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		MoveDown:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		MoveLeft:  key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H", "move to prev list")),
		MoveRight: key.NewBinding(key.WithKeys("L", "shift+right"), key.WithHelp("L", "move to next list")),
		ListLeft:  key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "move list left")),
		ListRight: key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "move list right")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "space", "x"), key.WithHelp("space/x", "toggle done")),
		ToggleAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle all")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear completed")),
		Renumber:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "renumber list")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.MoveDown, k.MoveUp, k.MoveRight, k.Toggle, k.Cancel, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.MoveUp, k.MoveDown, k.MoveLeft, k.MoveRight, k.ListLeft, k.ListRight},
		{k.Toggle, k.ToggleAll, k.Delete, k.Clear, k.Renumber},
		{k.Cancel, k.Help, k.Quit},
	}
}
