package tui

import (
	"github.com/charmbracelet/bubbles/list"

	"corkboard-cli/internal/model"
)

type boardItem struct {
	b model.Board
}

func (i boardItem) Title() string {
	if i.b.Title == "" {
		return "(untitled)"
	}
	return i.b.Title
}

func (i boardItem) Description() string {
	if i.b.CreatedAt.IsZero() {
		return i.b.ID
	}
	return "created " + i.b.CreatedAt.Local().Format("2006-01-02")
}

func (i boardItem) FilterValue() string { return i.b.Title }

func newBoardPicker() list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = "Boards"
	l.SetShowHelp(false)
	l.SetStatusBarItemName("board", "boards")
	l.DisableQuitKeybindings()
	return l
}

func boardItems(bs []model.Board) []list.Item {
	items := make([]list.Item, 0, len(bs))
	for _, b := range bs {
		items = append(items, boardItem{b: b})
	}
	return items
}

func (m appModel) selectedBoard() (model.Board, bool) {
	it, ok := m.picker.SelectedItem().(boardItem)
	if !ok {
		return model.Board{}, false
	}
	return it.b, true
}
