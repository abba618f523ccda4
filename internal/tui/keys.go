package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Back       key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Open       key.Binding
	PickUp     key.Binding
	Drop       key.Binding
	AddCard    key.Binding
	AddList    key.Binding
	RenameCard key.Binding
	RenameList key.Binding
	RenameBrd  key.Binding
	Edit       key.Binding
	DeleteCard key.Binding
	DeleteList key.Binding
	Reload     key.Binding
	NewBoard   key.Binding
	DelBoard   key.Binding
	Save       key.Binding
}

var keys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:       key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev list")),
	Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next list")),
	Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	PickUp:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "move card")),
	Drop:       key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "drop")),
	AddCard:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add card")),
	AddList:    key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "add list")),
	RenameCard: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
	RenameList: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rename list")),
	RenameBrd:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "rename board")),
	Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit notes")),
	DeleteCard: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
	DeleteList: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "delete list")),
	Reload:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
	NewBoard:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new board")),
	DelBoard:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete board")),
	Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
}

func helpLine(bs ...key.Binding) string {
	out := ""
	for i, b := range bs {
		if i > 0 {
			out += "  "
		}
		h := b.Help()
		out += h.Key + ": " + h.Desc
	}
	return out
}
