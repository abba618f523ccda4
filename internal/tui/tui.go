// Package tui is the interactive board: a board picker, draggable list
// columns, and a card detail pane.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"corkboard-cli/internal/board"
)

// Run starts the board TUI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opt Options) error {
	if opt.Service == nil {
		return errors.New("tui: no board service")
	}
	applyColorProfilePreference()
	applyThemePreference()

	m := newAppModel(ctx, opt)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type refreshTickMsg struct{}

// boardRefreshedMsg is a background reload. gen is the local edit generation
// when it was issued; a stale refresh is dropped.
type boardRefreshedMsg struct {
	st  *board.State
	gen int
	err error
}

func tickRefresh(every time.Duration) tea.Cmd {
	if every <= 0 {
		return nil
	}
	return tea.Tick(every, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

// idle reports whether the open board can be replaced without disturbing the
// user: nothing is being dragged, edited or written.
func (m appModel) idle() bool {
	return m.st != nil && m.view != viewPicker && m.modal == modalNone &&
		!m.busy && m.kb == nil && m.pendingWrites == 0 &&
		!m.session.Pending() && !m.dragging()
}

func (m appModel) handleRefresh(msg tea.Msg) (appModel, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshTickMsg:
		next := tickRefresh(m.refresh)
		if !m.idle() {
			return m, next
		}
		svc, ctx, id, gen := m.svc, m.ctx, m.st.Board.ID, m.gen
		return m, tea.Batch(next, func() tea.Msg {
			st, err := svc.Load(ctx, id)
			return boardRefreshedMsg{st: st, gen: gen, err: err}
		})
	case boardRefreshedMsg:
		if msg.gen != m.gen || !m.idle() || msg.st == nil || msg.st.Board.ID != m.st.Board.ID {
			if msg.err != nil && notFound(msg.err) && m.idle() {
				m.view = viewPicker
				m.st = nil
				m.setStatus("That board was deleted.")
				return m, m.loadBoardsCmd()
			}
			return m, nil
		}
		m.st = msg.st
		m.clampSel()
		m.refreshDetail()
	}
	return m, nil
}
