package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"corkboard-cli/internal/board"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.picker.SetSize(msg.Width, m.columnsHeight())
		m.input.Width = modalBodyWidth(msg.Width) - 2
		m.editor.SetWidth(modalBodyWidth(msg.Width))
		m.editor.SetHeight(max(3, msg.Height/2))
		m.refreshDetail()
		return m, nil

	case boardsLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.boards = msg.boards
		return m, m.picker.SetItems(boardItems(msg.boards))

	case boardLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.view = viewPicker
			m.st = nil
			if notFound(msg.err) {
				m.setStatus("That board no longer exists.")
			} else {
				m.setError(msg.err)
			}
			return m, m.loadBoardsCmd()
		}
		m.st = msg.st
		if m.view == viewPicker {
			m.view = viewBoard
			m.sel = selection{}
		}
		m.clampSel()
		m.refreshDetail()
		return m, nil

	case boardOpMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			m.clampSel()
			if notFound(msg.err) && m.st != nil {
				m.busy = true
				return m, m.loadBoardCmd(m.st.Board.ID)
			}
			return m, nil
		}
		m.st = msg.st
		if msg.status != "" {
			m.setStatus(msg.status)
		}
		m.clampSel()
		m.refreshDetail()
		return m, nil

	case boardDeletedMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus(fmt.Sprintf("Deleted board %q", msg.title))
		}
		return m, m.loadBoardsCmd()

	case persistedMsg:
		if m.pendingWrites > 0 {
			m.pendingWrites--
		}
		if !msg.report.OK() {
			m.statusErr = true
			m.status = fmt.Sprintf("%d card position update(s) failed; ctrl+r reloads the board", len(msg.report.Failed))
		}
		if m.quitting && m.pendingWrites == 0 {
			return m, tea.Quit
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case refreshTickMsg, boardRefreshedMsg:
		return m.handleRefresh(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.modal {
		case modalInput:
			return m.updateInput(msg)
		case modalEditor:
			return m.updateEditor(msg)
		case modalConfirm:
			return m.updateConfirm(msg)
		}
		switch m.view {
		case viewPicker:
			return m.updatePicker(msg)
		case viewDetail:
			return m.updateDetail(msg)
		default:
			return m.updateBoard(msg)
		}
	}

	if m.view == viewPicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

// quit waits for in-flight position writes before exiting.
func (m appModel) quit() (tea.Model, tea.Cmd) {
	if m.st != nil {
		m = m.cancelDrag()
	}
	if m.pendingWrites > 0 {
		m.quitting = true
		m.setStatus("Saving…")
		return m, nil
	}
	return m, tea.Quit
}

func (m appModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()
	case key.Matches(msg, keys.Open):
		b, ok := m.selectedBoard()
		if !ok || m.busy {
			return m, nil
		}
		m.busy = true
		m.sel = selection{}
		return m, m.loadBoardCmd(b.ID)
	case key.Matches(msg, keys.NewBoard):
		return m.openInput(inputNewBoard, "", "")
	case key.Matches(msg, keys.DelBoard):
		b, ok := m.selectedBoard()
		if !ok {
			return m, nil
		}
		return m.askConfirm(confirmState{
			title: "Delete board",
			body:  fmt.Sprintf("Delete %q with all of its lists and cards?", b.Title),
			onConfirm: func(m appModel) (appModel, tea.Cmd) {
				svc, ctx := m.svc, m.ctx
				m.busy = true
				return m, func() tea.Msg {
					return boardDeletedMsg{title: b.Title, err: svc.DeleteBoard(ctx, b.ID)}
				}
			},
		}), nil
	case key.Matches(msg, keys.Reload):
		return m, m.loadBoardsCmd()
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m appModel) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.st == nil || m.busy {
		if key.Matches(msg, keys.Quit) {
			return m.quit()
		}
		return m, nil
	}

	if m.kb != nil {
		switch {
		case key.Matches(msg, keys.Drop):
			return m.kbDrop()
		case msg.String() == "esc":
			return m.cancelDrag(), nil
		case key.Matches(msg, keys.Up):
			return m.kbMove(0, -1), nil
		case key.Matches(msg, keys.Down):
			return m.kbMove(0, 1), nil
		case key.Matches(msg, keys.Left):
			return m.kbMove(-1, 0), nil
		case key.Matches(msg, keys.Right):
			return m.kbMove(1, 0), nil
		}
		return m, nil
	}
	if m.session.Pending() || m.dragging() {
		if msg.String() == "esc" {
			return m.cancelDrag(), nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()
	case key.Matches(msg, keys.Back):
		m.view = viewPicker
		m.st = nil
		m.sel = selection{}
		return m, m.loadBoardsCmd()
	case key.Matches(msg, keys.Up):
		m.moveCardSel(-1)
	case key.Matches(msg, keys.Down):
		m.moveCardSel(1)
	case key.Matches(msg, keys.Left):
		m.moveListSel(-1)
	case key.Matches(msg, keys.Right):
		m.moveListSel(1)
	case key.Matches(msg, keys.Open):
		if c, ok := m.selectedCard(); ok {
			return m.openDetail(c.ID), nil
		}
	case key.Matches(msg, keys.PickUp):
		return m.pickUp(), nil
	case key.Matches(msg, keys.Reload):
		m.busy = true
		return m, m.loadBoardCmd(m.st.Board.ID)
	case key.Matches(msg, keys.AddCard):
		if l, ok := m.currentList(); ok {
			return m.openInput(inputNewCard, l.ID, "")
		}
		m.setStatus("Add a list first (A).")
	case key.Matches(msg, keys.AddList):
		return m.openInput(inputNewList, "", "")
	case key.Matches(msg, keys.RenameCard):
		if c, ok := m.selectedCard(); ok {
			return m.openInput(inputRenameCard, c.ID, c.Title)
		}
	case key.Matches(msg, keys.RenameList):
		if l, ok := m.currentList(); ok {
			return m.openInput(inputRenameList, l.ID, l.Title)
		}
	case key.Matches(msg, keys.RenameBrd):
		return m.openInput(inputRenameBoard, m.st.Board.ID, m.st.Board.Title)
	case key.Matches(msg, keys.Edit):
		if c, ok := m.selectedCard(); ok {
			return m.openEditor(c.ID, c.DescriptionText())
		}
	case key.Matches(msg, keys.DeleteCard):
		if c, ok := m.selectedCard(); ok {
			return m.confirmDeleteCard(c.ID, c.Title), nil
		}
	case key.Matches(msg, keys.DeleteList):
		if l, ok := m.currentList(); ok {
			return m.askConfirm(confirmState{
				title: "Delete list",
				body:  fmt.Sprintf("Delete %q and its %d card(s)?", l.Title, len(m.st.CardsIn(l.ID))),
				onConfirm: func(m appModel) (appModel, tea.Cmd) {
					id, title := l.ID, l.Title
					return m.boardOp(func(ctx context.Context, svc *board.Service, st *board.State) (string, error) {
						if err := svc.DeleteList(ctx, st, id); err != nil {
							return "", err
						}
						return fmt.Sprintf("Deleted list %q", title), nil
					})
				},
			}), nil
		}
	}
	return m, nil
}

func (m appModel) confirmDeleteCard(id, title string) appModel {
	return m.askConfirm(confirmState{
		title: "Delete card",
		body:  fmt.Sprintf("Delete %q?", title),
		onConfirm: func(m appModel) (appModel, tea.Cmd) {
			if m.view == viewDetail {
				m.view = viewBoard
			}
			return m.boardOp(func(ctx context.Context, svc *board.Service, st *board.State) (string, error) {
				if err := svc.DeleteCard(ctx, st, id); err != nil {
					return "", err
				}
				return fmt.Sprintf("Deleted card %q", title), nil
			})
		},
	})
}

func (m appModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c, ok := m.st.FindCard(m.detailID)
	if !ok {
		m.view = viewBoard
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Back), msg.String() == "q":
		m.view = viewBoard
		return m, nil
	case key.Matches(msg, keys.Edit):
		return m.openEditor(c.ID, c.DescriptionText())
	case key.Matches(msg, keys.RenameCard):
		return m.openInput(inputRenameCard, c.ID, c.Title)
	case key.Matches(msg, keys.DeleteCard):
		return m.confirmDeleteCard(c.ID, c.Title), nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m appModel) askConfirm(c confirmState) appModel {
	c.focus = confirmFocusCancel
	m.confirm = c
	m.modal = modalConfirm
	return m
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	accept := false
	switch msg.String() {
	case "esc", "n", "ctrl+g":
		m.modal = modalNone
		return m, nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.confirm.focus == confirmFocusConfirm {
			m.confirm.focus = confirmFocusCancel
		} else {
			m.confirm.focus = confirmFocusConfirm
		}
		return m, nil
	case "y":
		accept = true
	case "enter":
		accept = m.confirm.focus == confirmFocusConfirm
	default:
		return m, nil
	}
	m.modal = modalNone
	if !accept || m.confirm.onConfirm == nil {
		return m, nil
	}
	next, cmd := m.confirm.onConfirm(m)
	next.confirm = confirmState{}
	return next, cmd
}

func (m appModel) openInput(p inputPurpose, target, value string) (tea.Model, tea.Cmd) {
	m.modal = modalInput
	m.inputFor = p
	m.inputTarget = target
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Placeholder = "Title"
	return m, m.input.Focus()
}

func (m appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g":
		m.modal = modalNone
		m.input.Blur()
		return m, nil
	case "enter":
		m.modal = modalNone
		m.input.Blur()
		return m.submitInput(strings.TrimSpace(m.input.Value()))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) submitInput(title string) (tea.Model, tea.Cmd) {
	if title == "" {
		return m, nil
	}
	target := m.inputTarget
	switch m.inputFor {
	case inputNewBoard:
		svc, ctx, who := m.svc, m.ctx, m.who
		m.busy = true
		return m, func() tea.Msg {
			b, _, err := svc.CreateBoard(ctx, who, title)
			if err != nil {
				return boardLoadedMsg{err: err}
			}
			st, err := svc.Load(ctx, b.ID)
			return boardLoadedMsg{st: st, err: err}
		}
	case inputRenameBoard:
		return m.boardOp(func(ctx context.Context, svc *board.Service, st *board.State) (string, error) {
			_, ok, err := svc.RenameBoard(ctx, st, title)
			return changedStatus(ok, "Renamed board"), err
		})
	case inputNewList:
		m.sel.List = len(m.lists())
		m.sel.CardID = ""
		return m.boardOp(func(ctx context.Context, svc *board.Service, st *board.State) (string, error) {
			_, ok, err := svc.AddList(ctx, st, title)
			return changedStatus(ok, "Added list"), err
		})
	case inputRenameList:
		return m.boardOp(func(ctx context.Context, svc *board.Service, st *board.State) (string, error) {
			_, ok, err := svc.RenameList(ctx, st, target, title)
			return changedStatus(ok, "Renamed list"), err
		})
	case inputNewCard:
		return m.boardOp(func(ctx context.Context, svc *board.Service, st *board.State) (string, error) {
			c, ok, err := svc.AddCard(ctx, st, target, title)
			if ok {
				return "Added card " + cardTitle(c), err
			}
			return "", err
		})
	default:
		return m.boardOp(func(ctx context.Context, svc *board.Service, st *board.State) (string, error) {
			_, ok, err := svc.RenameCard(ctx, st, target, title)
			return changedStatus(ok, "Renamed card"), err
		})
	}
}

func changedStatus(ok bool, s string) string {
	if !ok {
		return ""
	}
	return s
}

func (m appModel) openEditor(cardID, value string) (tea.Model, tea.Cmd) {
	m.modal = modalEditor
	m.editorCardID = cardID
	m.editor.SetValue(value)
	return m, m.editor.Focus()
}

func (m appModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		m.modal = modalNone
		m.editor.Blur()
		return m, nil
	case key.Matches(msg, keys.Save):
		m.modal = modalNone
		m.editor.Blur()
		id, text := m.editorCardID, m.editor.Value()
		return m.boardOp(func(ctx context.Context, svc *board.Service, st *board.State) (string, error) {
			_, ok, err := svc.EditCard(ctx, st, id, text)
			return changedStatus(ok, "Saved notes"), err
		})
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}
