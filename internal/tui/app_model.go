package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"corkboard-cli/internal/board"
	"corkboard-cli/internal/drag"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/store"
)

// Options configures the board TUI.
type Options struct {
	Service  *board.Service
	Identity model.Identity
	Logger   log.FieldLogger
	// Threshold is the drag threshold in cells.
	Threshold int
	// BoardID opens this board directly instead of the picker.
	BoardID string
	// Refresh reloads the open board from the store at this interval while
	// the user is idle. Zero disables it.
	Refresh time.Duration
}

// Screen rows taken by the title bar and its spacer above the columns, and the
// footer below them.
const (
	boardTop    = 2
	footerLines = 1
)

type appModel struct {
	ctx    context.Context
	svc    *board.Service
	who    model.Identity
	logger log.FieldLogger

	width  int
	height int

	view  view
	modal modal

	picker list.Model
	boards []model.Board

	st      *board.State
	sel     selection
	session *drag.Session
	kb      *kbDrag

	detail   viewport.Model
	detailID string

	input        textinput.Model
	inputFor     inputPurpose
	inputTarget  string
	editor       textarea.Model
	editorCardID string
	confirm      confirmState

	busy          bool
	pendingWrites int
	quitting      bool
	refresh       time.Duration
	// gen counts local edits; a background reload issued before the latest
	// edit is discarded.
	gen int

	status    string
	statusErr bool
}

func newAppModel(ctx context.Context, opt Options) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opt.Logger
	if logger == nil {
		l := log.New()
		l.SetLevel(log.PanicLevel)
		logger = l
	}
	threshold := opt.Threshold
	if threshold <= 0 {
		threshold = drag.DefaultThreshold
	}

	ti := textinput.New()
	ti.CharLimit = 200
	ti.Prompt = ""

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.Placeholder = "Notes (markdown)"

	m := appModel{
		ctx:     ctx,
		svc:     opt.Service,
		who:     opt.Identity,
		logger:  logger,
		width:   80,
		height:  24,
		picker:  newBoardPicker(),
		session: drag.NewSession(threshold, logger),
		detail:  viewport.New(80, 20),
		input:   ti,
		editor:  ta,
		refresh: opt.Refresh,
	}
	if opt.BoardID != "" {
		m.view = viewBoard
		m.busy = true
		m.st = &board.State{Board: model.Board{ID: opt.BoardID}}
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	load := m.loadBoardsCmd()
	if m.view == viewBoard && m.st != nil {
		load = m.loadBoardCmd(m.st.Board.ID)
	}
	return tea.Batch(load, tickRefresh(m.refresh))
}

func (m appModel) loadBoardsCmd() tea.Cmd {
	svc, ctx, uid := m.svc, m.ctx, m.who.UserID
	return func() tea.Msg {
		bs, err := svc.Boards(ctx, uid)
		return boardsLoadedMsg{boards: bs, err: err}
	}
}

func (m appModel) loadBoardCmd(id string) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		st, err := svc.Load(ctx, id)
		return boardLoadedMsg{st: st, err: err}
	}
}

// boardOp runs fn against a copy of the open board off the event loop. The
// copy replaces the open board when fn succeeds.
func (m appModel) boardOp(fn func(ctx context.Context, svc *board.Service, st *board.State) (string, error)) (appModel, tea.Cmd) {
	if m.st == nil || m.busy {
		return m, nil
	}
	st := m.st.Clone()
	svc, ctx := m.svc, m.ctx
	m.busy = true
	m.gen++
	return m, func() tea.Msg {
		status, err := fn(ctx, svc, st)
		return boardOpMsg{st: st, status: status, err: err}
	}
}

func (m *appModel) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *appModel) setError(err error) {
	if err == nil {
		return
	}
	m.status = err.Error()
	m.statusErr = true
	m.logger.WithError(err).Warn("tui operation failed")
}

func notFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// lists returns the open board's lists in display order.
func (m appModel) lists() []model.List {
	if m.st == nil {
		return nil
	}
	return m.st.SortedLists()
}

func (m appModel) currentList() (model.List, bool) {
	ls := m.lists()
	if m.sel.List < 0 || m.sel.List >= len(ls) {
		return model.List{}, false
	}
	return ls[m.sel.List], true
}

func (m appModel) selectedCard() (model.Card, bool) {
	if m.st == nil || m.sel.CardID == "" {
		return model.Card{}, false
	}
	return m.st.FindCard(m.sel.CardID)
}

// clampSel keeps the selection on an existing list and card. A selected card
// that moved lists drags the list focus with it.
func (m *appModel) clampSel() {
	ls := m.lists()
	if len(ls) == 0 {
		m.sel = selection{}
		return
	}
	if c, ok := m.selectedCard(); ok {
		for i, l := range ls {
			if l.ID == c.ListID {
				m.sel.List = i
				return
			}
		}
	}
	if m.sel.List >= len(ls) {
		m.sel.List = len(ls) - 1
	}
	if m.sel.List < 0 {
		m.sel.List = 0
	}
	m.sel.CardID = ""
	if cards := m.st.CardsIn(ls[m.sel.List].ID); len(cards) > 0 {
		m.sel.CardID = cards[0].ID
	}
}

func (m appModel) cardIndex() int {
	l, ok := m.currentList()
	if !ok {
		return -1
	}
	for i, c := range m.st.CardsIn(l.ID) {
		if c.ID == m.sel.CardID {
			return i
		}
	}
	return -1
}

func (m *appModel) moveCardSel(delta int) {
	l, ok := m.currentList()
	if !ok {
		return
	}
	cards := m.st.CardsIn(l.ID)
	if len(cards) == 0 {
		return
	}
	i := m.cardIndex() + delta
	if i < 0 {
		i = 0
	}
	if i >= len(cards) {
		i = len(cards) - 1
	}
	m.sel.CardID = cards[i].ID
}

// moveListSel changes list focus, keeping roughly the same row.
func (m *appModel) moveListSel(delta int) {
	ls := m.lists()
	if len(ls) == 0 {
		return
	}
	row := m.cardIndex()
	m.sel.List += delta
	if m.sel.List < 0 {
		m.sel.List = 0
	}
	if m.sel.List >= len(ls) {
		m.sel.List = len(ls) - 1
	}
	cards := m.st.CardsIn(ls[m.sel.List].ID)
	switch {
	case len(cards) == 0:
		m.sel.CardID = ""
	case row < 0:
		m.sel.CardID = cards[0].ID
	case row >= len(cards):
		m.sel.CardID = cards[len(cards)-1].ID
	default:
		m.sel.CardID = cards[row].ID
	}
}

func (m appModel) columnsHeight() int {
	h := m.height - boardTop - footerLines
	if h < 1 {
		h = 1
	}
	return h
}

// layout renders the board as it is now; pointer events are hit-tested
// against it.
func (m appModel) layout() boardLayout {
	if m.st == nil {
		return boardLayout{}
	}
	target := ""
	if snap, ok := m.session.Snapshot(); ok {
		target = snap.LastKnownTargetListID
	}
	if m.kb != nil {
		if ls := m.lists(); m.kb.list < len(ls) {
			target = ls[m.kb.list].ID
		}
	}
	return layoutBoard(columnsView{
		st:       m.st,
		sel:      m.sel,
		activeID: m.session.ActiveCardID(),
		targetID: target,
		width:    m.width,
		height:   m.columnsHeight(),
		top:      boardTop,
	})
}

func cardTitle(c model.Card) string {
	if c.Title == "" {
		return "(untitled)"
	}
	return fmt.Sprintf("%q", c.Title)
}
