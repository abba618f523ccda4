package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"corkboard-cli/internal/board"
	"corkboard-cli/internal/model"
)

const (
	columnGap      = 2
	minColumnWidth = 18
	maxColumnWidth = 36
	maxTitleLines  = 3
	// Rows above the first card: the list header and a blank line.
	columnHeaderRows = 2
)

// selection tracks the focused list (by index in display order) and card.
type selection struct {
	List   int
	CardID string
}

// hitBox is a screen rectangle [x0,x1) x [y0,y1) belonging to a card or, when
// cardID is empty, to a whole list column.
type hitBox struct {
	x0, x1, y0, y1 int
	listID         string
	cardID         string
}

func (h hitBox) contains(x, y int) bool {
	return x >= h.x0 && x < h.x1 && y >= h.y0 && y < h.y1
}

// boardLayout is one rendering of the board plus the geometry needed to map
// pointer positions back to drop targets.
type boardLayout struct {
	view  string
	cards []hitBox
	cols  []hitBox
	first int
	shown int
}

// at returns the drop target under (x, y): a card id, a list id when the
// pointer is in a column but not on a card, or "" outside every column.
func (l boardLayout) at(x, y int) string {
	for _, h := range l.cards {
		if h.contains(x, y) {
			return h.cardID
		}
	}
	for _, h := range l.cols {
		if h.contains(x, y) {
			return h.listID
		}
	}
	return ""
}

// cardAt is like at but only reports cards.
func (l boardLayout) cardAt(x, y int) string {
	for _, h := range l.cards {
		if h.contains(x, y) {
			return h.cardID
		}
	}
	return ""
}

func columnWidth(width, n int) int {
	if n <= 0 {
		return minColumnWidth
	}
	w := (width - columnGap*(n-1)) / n
	if w < minColumnWidth {
		w = minColumnWidth
	}
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	return w
}

// visibleColumns returns the first column index and count so that sel.List is
// on screen.
func visibleColumns(n, colW, width, selected int) (first, shown int) {
	shown = (width + columnGap) / (colW + columnGap)
	if shown < 1 {
		shown = 1
	}
	if shown >= n {
		return 0, n
	}
	first = selected - shown + 1
	if first < 0 {
		first = 0
	}
	if first+shown > n {
		first = n - shown
	}
	return first, shown
}

type columnsView struct {
	st       *board.State
	sel      selection
	activeID string
	targetID string
	width    int
	height   int
	top      int
}

// layoutBoard renders the board's lists side by side, starting at screen row
// top, and records a hit box for every card and column.
func layoutBoard(v columnsView) boardLayout {
	lists := v.st.SortedLists()
	if len(lists) == 0 {
		msg := styleMuted().Render("No lists yet. Press A to add one.")
		return boardLayout{view: normalizePane(msg, v.width, v.height)}
	}
	colW := columnWidth(v.width, len(lists))
	first, shown := visibleColumns(len(lists), colW, v.width, v.sel.List)
	out := boardLayout{first: first, shown: shown}

	rendered := make([]string, 0, shown)
	for i := first; i < first+shown; i++ {
		x0 := (i - first) * (colW + columnGap)
		col, cards := v.renderColumn(lists[i], i == v.sel.List, x0, colW)
		out.cols = append(out.cols, hitBox{x0: x0, x1: x0 + colW, y0: v.top, y1: v.top + v.height, listID: lists[i].ID})
		out.cards = append(out.cards, cards...)
		rendered = append(rendered, col)
	}

	view := rendered[0]
	gap := strings.Repeat(" ", columnGap)
	for _, r := range rendered[1:] {
		view = lipgloss.JoinHorizontal(lipgloss.Top, view, gap, r)
	}
	out.view = normalizePane(view, v.width, v.height)
	return out
}

func (v columnsView) renderColumn(l model.List, focused bool, x0, colW int) (string, []hitBox) {
	cards := v.st.CardsIn(l.ID)
	hs := headerStyle
	switch {
	case v.activeID != "" && v.targetID == l.ID:
		hs = dropTargetStyle
	case focused:
		hs = headerSelectedStyle
	}
	head := truncateText(fmt.Sprintf("%s (%d)", strings.TrimSpace(l.Title), len(cards)), colW-2)
	lines := []string{hs.Width(colW).Padding(0, 1).Render(head), ""}

	if len(cards) == 0 {
		lines = append(lines, styleMuted().Render("  (empty)"))
		return normalizePane(strings.Join(lines, "\n"), colW, v.height), nil
	}

	innerW := colW - 2
	var hits []hitBox
	for i, c := range cards {
		y0 := v.top + len(lines)
		block := v.renderCard(c, innerW)
		lines = append(lines, block...)
		if i < len(cards)-1 {
			lines = append(lines, styleMuted().Render(" "+strings.Repeat("─", innerW)+" "))
		}
		bottom := v.top + v.height
		if y0 >= bottom {
			continue
		}
		hits = append(hits, hitBox{x0: x0, x1: x0 + colW, y0: y0, y1: min(v.top+len(lines), bottom), listID: l.ID, cardID: c.ID})
	}
	return normalizePane(strings.Join(lines, "\n"), colW, v.height), hits
}

func (v columnsView) renderCard(c model.Card, innerW int) []string {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = "(untitled)"
	}
	prefix := "  "
	if c.ID == v.activeID {
		prefix = "» "
	}
	titleLines := wrapText(title, innerW, prefix, "  ")
	if len(titleLines) > maxTitleLines {
		titleLines = titleLines[:maxTitleLines]
		titleLines[maxTitleLines-1] = truncateText(titleLines[maxTitleLines-1]+"…", innerW)
	}

	base := lipgloss.NewStyle().Width(innerW + 2).Padding(0, 1)
	titleStyle := base.Bold(true)
	metaStyle := base.Inherit(cardMetaStyle)
	switch {
	case c.ID == v.activeID:
		titleStyle = titleStyle.Foreground(colorAccentFg).Background(colorAccent)
		metaStyle = metaStyle.Foreground(colorAccentFg).Background(colorAccent)
	case c.ID == v.sel.CardID:
		titleStyle = titleStyle.Foreground(colorSelectedFg).Background(colorSelectedBg)
		metaStyle = metaStyle.Background(colorSelectedBg)
	}

	out := make([]string, 0, len(titleLines)+1)
	for _, ln := range titleLines {
		out = append(out, titleStyle.Render(ln))
	}
	if c.DescriptionText() != "" {
		out = append(out, metaStyle.Render("  ≡ notes"))
	}
	return out
}
