package tui

import (
	"strings"

	"corkboard-cli/internal/publish"
)

func (m appModel) openDetail(cardID string) appModel {
	if _, ok := m.st.FindCard(cardID); !ok {
		return m
	}
	m.sel.CardID = cardID
	m.clampSel()
	m.view = viewDetail
	m.detailID = cardID
	m.detail.GotoTop()
	m.refreshDetail()
	return m
}

func (m *appModel) sizeDetail() {
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	m.detail.Width = w
	m.detail.Height = m.columnsHeight()
}

// refreshDetail re-renders the open card, or leaves the detail view when the
// card no longer exists.
func (m *appModel) refreshDetail() {
	if m.view != viewDetail || m.st == nil {
		return
	}
	c, ok := m.st.FindCard(m.detailID)
	if !ok {
		m.view = viewBoard
		m.detailID = ""
		return
	}
	l, _ := m.st.FindList(c.ListID)
	m.sizeDetail()
	body := renderMarkdown(publish.RenderCardMarkdown(c, l), m.detail.Width-2)
	if strings.TrimSpace(body) == "" {
		body = c.Title
	}
	m.detail.SetContent(body)
}
