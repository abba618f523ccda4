package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"corkboard-cli/internal/board"
	"corkboard-cli/internal/drag"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/position"
	"corkboard-cli/internal/reorder"
)

// persistCmd writes a committed move in the background. The board already
// shows the result; the report only surfaces failures.
func persistCmd(ctx context.Context, svc *board.Service, before []model.Card, res reorder.Result) tea.Cmd {
	rec := svc.Reconciler()
	return func() tea.Msg {
		return persistedMsg{report: rec.Persist(ctx, before, res)}
	}
}

func (m appModel) dragging() bool {
	return m.session.State() == drag.Dragging
}

func (m appModel) handleMouse(msg tea.MouseMsg) (appModel, tea.Cmd) {
	if m.view != viewBoard || m.modal != modalNone || m.st == nil || m.busy || m.kb != nil {
		return m, nil
	}
	lay := m.layout()
	pt := drag.Point{X: msg.X, Y: msg.Y}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.moveCardSel(-1)
			return m, nil
		case tea.MouseButtonWheelDown:
			m.moveCardSel(1)
			return m, nil
		case tea.MouseButtonLeft:
		default:
			return m, nil
		}
		if id := lay.cardAt(msg.X, msg.Y); id != "" {
			m.sel.CardID = id
			m.clampSel()
			if err := m.session.Press(id, pt); err != nil {
				m.setError(err)
			}
			return m, nil
		}
		if id := lay.at(msg.X, msg.Y); id != "" {
			for i, l := range m.lists() {
				if l.ID == id {
					m.sel.List = i
					m.sel.CardID = ""
					m.clampSel()
				}
			}
		}
		return m, nil

	case tea.MouseActionMotion:
		if !m.session.Pending() && !m.dragging() {
			return m, nil
		}
		if _, err := m.session.Move(m.st, pt, lay.at(msg.X, msg.Y)); err != nil {
			m.setError(err)
		}
		return m, nil

	case tea.MouseActionRelease:
		return m.drop(lay.at(msg.X, msg.Y))
	}
	return m, nil
}

// drop ends the current press or drag with overID under the pointer (or the
// keyboard target).
func (m appModel) drop(overID string) (appModel, tea.Cmd) {
	var cmd tea.Cmd
	ctx, svc := m.ctx, m.svc
	d, err := m.session.Release(m.st, overID, drag.DispatchFunc(func(before []model.Card, res reorder.Result) {
		cmd = persistCmd(ctx, svc, before, res)
	}))
	m.kb = nil
	if err != nil {
		m.setError(err)
	}
	switch d.Outcome {
	case drag.OutcomeClick:
		return m.openDetail(d.CardID), nil
	case drag.OutcomeCommitted:
		m.pendingWrites++
		m.gen++
		m.sel.CardID = d.CardID
		m.clampSel()
		if c, ok := m.st.FindCard(d.CardID); ok {
			m.setStatus("Moved " + cardTitle(c))
		}
	case drag.OutcomeCancelled:
		if err == nil {
			m.setStatus("Move cancelled")
		}
		m.clampSel()
	case drag.OutcomeNoop:
		m.clampSel()
	}
	return m, cmd
}

func (m appModel) cancelDrag() appModel {
	wasDragging := m.dragging()
	if m.session.Cancel(m.st) && wasDragging {
		m.setStatus("Move cancelled")
	}
	m.kb = nil
	m.clampSel()
	return m
}

// pickUp starts a keyboard drag of the selected card.
func (m appModel) pickUp() appModel {
	c, ok := m.selectedCard()
	if !ok || m.busy {
		return m
	}
	if err := m.session.Begin(m.st, c.ID); err != nil {
		m.setError(err)
		return m
	}
	m.kb = &kbDrag{list: m.sel.List, pos: m.cardIndex()}
	m.setStatus(fmt.Sprintf("Moving %s: arrows to move, enter to drop, esc to cancel", cardTitle(c)))
	return m
}

// kbMove shifts the keyboard drop slot. Slots are computed against the cards
// as they were before the drag so that every position is reachable.
func (m appModel) kbMove(dList, dPos int) appModel {
	snap, ok := m.session.Snapshot()
	if m.kb == nil || !ok {
		return m
	}
	ls := m.lists()
	if len(ls) == 0 {
		return m
	}
	baseline := m.session.Baseline()
	k := *m.kb
	if dList != 0 {
		k.list += dList
		if k.list < 0 || k.list >= len(ls) {
			return m
		}
		k.pos = len(position.CardsInList(baseline, ls[k.list].ID))
		if ls[k.list].ID == snap.SourceListID {
			k.pos = indexIn(baseline, ls[k.list].ID, snap.ActiveCardID)
		}
	}
	target := ls[k.list]
	cards := position.CardsInList(baseline, target.ID)
	maxPos := len(cards)
	if target.ID == snap.SourceListID {
		maxPos = len(cards) - 1
	}
	k.pos += dPos
	if k.pos < 0 {
		k.pos = 0
	}
	if k.pos > maxPos {
		k.pos = maxPos
	}

	k.over = target.ID
	if k.pos < len(cards) {
		k.over = cards[k.pos].ID
	}
	var err error
	if k.over == snap.ActiveCardID {
		k.over = ""
		err = m.session.Reset(m.st)
	} else {
		_, err = m.session.Over(m.st, k.over)
	}
	if err != nil {
		m.setError(err)
		return m
	}
	m.kb = &k
	m.sel.List = k.list
	m.sel.CardID = snap.ActiveCardID
	return m
}

func (m appModel) kbDrop() (appModel, tea.Cmd) {
	if m.kb == nil {
		return m, nil
	}
	over := m.kb.over
	if over == "" {
		over = m.session.ActiveCardID()
	}
	return m.drop(over)
}

func indexIn(cards []model.Card, listID, cardID string) int {
	for i, c := range position.CardsInList(cards, listID) {
		if c.ID == cardID {
			return i
		}
	}
	return 0
}
