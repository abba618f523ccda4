package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	modalMinWidth = 36
	modalMaxWidth = 72
)

type confirmFocus int

const (
	confirmFocusConfirm confirmFocus = iota
	confirmFocusCancel
)

// confirmState is a pending yes/no question. onConfirm runs when the user
// accepts.
type confirmState struct {
	title     string
	body      string
	label     string
	focus     confirmFocus
	onConfirm func(m appModel) (appModel, tea.Cmd)
}

func modalWidth(width int) int {
	w := width * 2 / 3
	if w < modalMinWidth {
		w = modalMinWidth
	}
	if w > modalMaxWidth {
		w = modalMaxWidth
	}
	if width > 0 && w > width-2 {
		w = width - 2
	}
	return w
}

func modalBodyWidth(width int) int {
	return modalWidth(width) - 4
}

// renderModalBox draws title and content in a bordered box sized for a
// terminal width columns wide.
func renderModalBox(width int, title, content string) string {
	w := modalWidth(width)
	head := titleBarStyle.Render(truncateText(title, w-4))
	body := head + "\n\n" + content
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1).
		Width(w - 2).
		Render(body)
}

func renderConfirmModal(width int, c confirmState) string {
	// No borders on the buttons: nested borders leave background artifacts in
	// some terminals.
	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := btnBase.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	label := c.label
	if label == "" {
		label = "Delete"
	}
	confirm := btnBase.Render(label)
	cancel := btnBase.Render("Cancel")
	if c.focus == confirmFocusConfirm {
		confirm = btnActive.Render(label)
	} else {
		cancel = btnActive.Render("Cancel")
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)

	bodyW := modalBodyWidth(width)
	help := styleMuted().Width(bodyW).Render("tab: focus   enter: select   y/n   esc: cancel")
	content := strings.Join([]string{
		lipgloss.NewStyle().Width(bodyW).Render(c.body),
		"",
		controls,
		"",
		help,
	}, "\n")
	return renderModalBox(width, c.title, content)
}

// overlay centers box over a width x height screen.
func overlay(box string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "))
}
