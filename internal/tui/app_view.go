package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

func (m appModel) View() string {
	var body string
	switch m.view {
	case viewPicker:
		body = m.viewPicker()
	case viewDetail:
		body = m.viewDetail()
	default:
		body = m.viewBoard()
	}

	switch m.modal {
	case modalConfirm:
		return overlay(renderConfirmModal(m.width, m.confirm), m.width, m.height)
	case modalInput:
		content := renderInputLine(modalBodyWidth(m.width), m.input.View()) + "\n\n" +
			styleMuted().Render("enter: save   esc: cancel")
		return overlay(renderModalBox(m.width, m.inputFor.title(), content), m.width, m.height)
	case modalEditor:
		content := m.editor.View() + "\n\n" + styleMuted().Render("ctrl+s: save   esc: cancel")
		return overlay(renderModalBox(m.width, "Notes", content), m.width, m.height)
	}
	return body
}

func (m appModel) titleBar(title, right string) string {
	left := titleBarStyle.Render(truncateText("corkboard › "+title, m.width))
	gap := m.width - xansi.StringWidth(left) - xansi.StringWidth(right)
	if right == "" || gap < 1 {
		return normalizePane(left, m.width, 1)
	}
	return left + strings.Repeat(" ", gap) + styleMuted().Render(right)
}

func (m appModel) footer(help string) string {
	switch {
	case m.statusErr && m.status != "":
		return statusErrorStyle.Render(truncateText(m.status, m.width))
	case m.status != "":
		return truncateText(m.status, m.width)
	default:
		return styleMuted().Render(truncateText(help, m.width))
	}
}

func (m appModel) viewPicker() string {
	head := m.titleBar("boards", m.who.Email)
	help := helpLine(keys.Open, keys.NewBoard, keys.DelBoard, keys.Quit)
	return lipgloss.JoinVertical(lipgloss.Left,
		head, "",
		normalizePane(m.picker.View(), m.width, m.columnsHeight()),
		m.footer(help),
	)
}

func (m appModel) viewBoard() string {
	if m.st == nil || (m.busy && len(m.st.Lists) == 0) {
		return normalizePane("Loading…", m.width, m.height)
	}
	right := ""
	switch {
	case m.dragging():
		right = "moving"
	case m.pendingWrites > 0:
		right = fmt.Sprintf("saving %d", m.pendingWrites)
	case m.busy:
		right = "working"
	}
	help := helpLine(keys.Open, keys.PickUp, keys.AddCard, keys.AddList, keys.RenameCard, keys.Edit, keys.DeleteCard, keys.Back)
	if m.kb != nil {
		help = helpLine(keys.Up, keys.Left, keys.Drop) + "  esc: cancel"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.titleBar(m.st.Board.Title, right), "",
		m.layout().view,
		m.footer(help),
	)
}

func (m appModel) viewDetail() string {
	c, ok := m.st.FindCard(m.detailID)
	if !ok {
		return m.viewBoard()
	}
	help := helpLine(keys.Back, keys.RenameCard, keys.Edit, keys.DeleteCard)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.titleBar(m.st.Board.Title+" › "+c.Title, ""), "",
		normalizePane(lipgloss.NewStyle().PaddingLeft(1).Render(m.detail.View()), m.width, m.columnsHeight()),
		m.footer(help),
	)
}
