package tui

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"corkboard-cli/internal/board"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/store/sqlstore"
)

var tester = model.Identity{UserID: "user-1", Email: "ada@example.com"}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

// seedBoard creates a board with lists Todo and Done holding the given cards.
func seedBoard(t *testing.T, todo, done []string) (*board.Service, *board.State) {
	t.Helper()
	ctx := context.Background()
	db, err := sqlstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "tui.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	svc := board.NewService(db, quietLogger())

	b, _, err := svc.CreateBoard(ctx, tester, "Roadmap")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	st := &board.State{Board: b}
	for _, title := range []string{"Todo", "Done"} {
		if _, _, err := svc.AddList(ctx, st, title); err != nil {
			t.Fatalf("AddList: %v", err)
		}
	}
	lists := st.SortedLists()
	for i, titles := range [][]string{todo, done} {
		for _, title := range titles {
			if _, _, err := svc.AddCard(ctx, st, lists[i].ID, title); err != nil {
				t.Fatalf("AddCard: %v", err)
			}
		}
	}
	return svc, st
}

// openBoard returns a model sized 80x24 with st loaded.
func openBoard(t *testing.T, svc *board.Service, st *board.State) appModel {
	t.Helper()
	m := newAppModel(context.Background(), Options{
		Service:  svc,
		Identity: tester,
		Logger:   quietLogger(),
		BoardID:  st.Board.ID,
	})
	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = step(t, m, m.loadBoardCmd(st.Board.ID)())
	if m.st == nil || m.view != viewBoard {
		t.Fatalf("expected board to be open, status %q", m.status)
	}
	return m
}

func step(t *testing.T, m appModel, msg tea.Msg) appModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(appModel)
}

func stepCmd(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(appModel), cmd
}

func cardTitles(cards []model.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Title)
	}
	return out
}

func sameTitles(got []model.Card, want ...string) bool {
	ts := cardTitles(got)
	if len(ts) != len(want) {
		return false
	}
	for i := range ts {
		if ts[i] != want[i] {
			return false
		}
	}
	return true
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}
