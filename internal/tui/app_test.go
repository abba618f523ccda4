package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"corkboard-cli/internal/drag"
)

func TestOpenBoard_SelectsFirstCard(t *testing.T) {
	svc, st := seedBoard(t, []string{"A", "B"}, []string{"C"})
	m := openBoard(t, svc, st)
	if c, ok := m.selectedCard(); !ok || c.Title != "A" {
		t.Fatalf("expected A selected, got %+v", m.sel)
	}
	if !strings.Contains(m.View(), "Roadmap") {
		t.Fatalf("expected board title in view")
	}
}

func TestMouseDrag_CommitsAndPersists(t *testing.T) {
	svc, st := seedBoard(t, []string{"A", "B", "C"}, nil)
	m := openBoard(t, svc, st)

	// Cards start at row 4 and take two rows each (title and separator).
	m = step(t, m, mouse(tea.MouseActionPress, 1, 4))
	m = step(t, m, mouse(tea.MouseActionMotion, 1, 8))
	if m.session.State() != drag.Dragging {
		t.Fatalf("expected drag to start, state %s", m.session.State())
	}
	todo := m.st.CardsIn(m.lists()[0].ID)
	if !sameTitles(todo, "B", "C", "A") {
		t.Fatalf("expected preview B C A, got %v", cardTitles(todo))
	}

	m, cmd := stepCmd(t, m, mouse(tea.MouseActionRelease, 1, 8))
	if cmd == nil || m.pendingWrites != 1 {
		t.Fatalf("expected a persistence command, pending=%d", m.pendingWrites)
	}
	m = step(t, m, cmd())
	if m.pendingWrites != 0 || m.statusErr {
		t.Fatalf("unexpected state after persist: pending=%d status=%q", m.pendingWrites, m.status)
	}

	fresh, err := svc.Load(context.Background(), st.Board.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := fresh.CardsIn(fresh.SortedLists()[0].ID)
	if !sameTitles(got, "B", "C", "A") || !fresh.Dense() {
		t.Fatalf("expected stored B C A densely numbered, got %+v", got)
	}
}

func TestMouseDrag_ReleaseOutsideCancels(t *testing.T) {
	svc, st := seedBoard(t, []string{"A", "B"}, []string{"C"})
	m := openBoard(t, svc, st)

	m = step(t, m, mouse(tea.MouseActionPress, 1, 4))
	m = step(t, m, mouse(tea.MouseActionMotion, 40, 4))
	if done := m.st.CardsIn(m.lists()[1].ID); !sameTitles(done, "A", "C") {
		t.Fatalf("expected A previewed into Done, got %v", cardTitles(done))
	}
	m, cmd := stepCmd(t, m, mouse(tea.MouseActionRelease, 1, 0))
	if cmd != nil {
		t.Fatalf("cancelled drag must not persist")
	}
	if todo := m.st.CardsIn(m.lists()[0].ID); !sameTitles(todo, "A", "B") {
		t.Fatalf("expected original order restored, got %v", cardTitles(todo))
	}
	if m.session.State() != drag.Idle || m.status != "Move cancelled" {
		t.Fatalf("unexpected session %s / status %q", m.session.State(), m.status)
	}
}

func TestMouseDrag_EscCancels(t *testing.T) {
	svc, st := seedBoard(t, []string{"A", "B"}, nil)
	m := openBoard(t, svc, st)
	m = step(t, m, mouse(tea.MouseActionPress, 1, 4))
	m = step(t, m, mouse(tea.MouseActionMotion, 1, 6))
	m = step(t, m, keyMsg("esc"))
	if m.session.State() != drag.Idle {
		t.Fatalf("expected idle session")
	}
	if todo := m.st.CardsIn(m.lists()[0].ID); !sameTitles(todo, "A", "B") {
		t.Fatalf("expected original order, got %v", cardTitles(todo))
	}
}

func TestClickOpensDetail(t *testing.T) {
	svc, st := seedBoard(t, []string{"A", "B"}, nil)
	m := openBoard(t, svc, st)

	// Motion within the threshold keeps it a click.
	m = step(t, m, mouse(tea.MouseActionPress, 1, 6))
	m = step(t, m, mouse(tea.MouseActionMotion, 2, 6))
	m, cmd := stepCmd(t, m, mouse(tea.MouseActionRelease, 2, 6))
	if cmd != nil {
		t.Fatalf("a click must not persist anything")
	}
	if m.view != viewDetail {
		t.Fatalf("expected detail view, got %v", m.view)
	}
	if c, _ := m.selectedCard(); c.Title != "B" {
		t.Fatalf("expected B selected, got %+v", c)
	}
	m = step(t, m, keyMsg("esc"))
	if m.view != viewBoard {
		t.Fatalf("expected esc to return to the board")
	}
}

func TestKeyboardDrag_AcrossLists(t *testing.T) {
	svc, st := seedBoard(t, []string{"A", "B"}, []string{"C"})
	m := openBoard(t, svc, st)

	m = step(t, m, keyMsg("space"))
	if m.kb == nil || m.session.ActiveCardID() == "" {
		t.Fatalf("expected keyboard drag to start")
	}
	m = step(t, m, keyMsg("right"))
	if done := m.st.CardsIn(m.lists()[1].ID); !sameTitles(done, "C", "A") {
		t.Fatalf("expected A appended to Done, got %v", cardTitles(done))
	}
	m = step(t, m, keyMsg("up"))
	if done := m.st.CardsIn(m.lists()[1].ID); !sameTitles(done, "A", "C") {
		t.Fatalf("expected A above C, got %v", cardTitles(done))
	}

	m, cmd := stepCmd(t, m, keyMsg("enter"))
	if cmd == nil {
		t.Fatalf("expected persistence command")
	}
	m = step(t, m, cmd())
	if m.kb != nil || m.sel.List != 1 {
		t.Fatalf("expected selection to follow the card, got %+v", m.sel)
	}

	fresh, err := svc.Load(context.Background(), st.Board.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	lists := fresh.SortedLists()
	if !sameTitles(fresh.CardsIn(lists[0].ID), "B") || !sameTitles(fresh.CardsIn(lists[1].ID), "A", "C") {
		t.Fatalf("unexpected stored board: %+v", fresh.Cards)
	}
	if !fresh.Dense() {
		t.Fatalf("expected dense positions: %+v", fresh.Cards)
	}
}

func TestKeyboardDrag_BackToOriginIsNoop(t *testing.T) {
	svc, st := seedBoard(t, []string{"A", "B", "C"}, nil)
	m := openBoard(t, svc, st)
	m = step(t, m, keyMsg("down"))

	m = step(t, m, keyMsg("space"))
	m = step(t, m, keyMsg("down"))
	if todo := m.st.CardsIn(m.lists()[0].ID); !sameTitles(todo, "A", "C", "B") {
		t.Fatalf("expected B moved down, got %v", cardTitles(todo))
	}
	m = step(t, m, keyMsg("up"))
	if todo := m.st.CardsIn(m.lists()[0].ID); !sameTitles(todo, "A", "B", "C") {
		t.Fatalf("expected B back at its origin, got %v", cardTitles(todo))
	}
	m, cmd := stepCmd(t, m, keyMsg("enter"))
	if cmd != nil || m.pendingWrites != 0 {
		t.Fatalf("dropping at the origin must not persist")
	}
	if m.session.State() != drag.Idle {
		t.Fatalf("expected idle session")
	}
}

func TestAddCard_ThroughInput(t *testing.T) {
	svc, st := seedBoard(t, []string{"A"}, nil)
	m := openBoard(t, svc, st)

	m = step(t, m, keyMsg("a"))
	if m.modal != modalInput {
		t.Fatalf("expected input modal")
	}
	for _, r := range "New" {
		m = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := stepCmd(t, m, keyMsg("enter"))
	if cmd == nil || !m.busy {
		t.Fatalf("expected add to run in the background")
	}
	m = step(t, m, cmd())
	if todo := m.st.CardsIn(m.lists()[0].ID); !sameTitles(todo, "A", "New") {
		t.Fatalf("expected New appended, got %v", cardTitles(todo))
	}
	if m.busy || m.statusErr {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestDeleteCard_AsksFirst(t *testing.T) {
	svc, st := seedBoard(t, []string{"A", "B"}, nil)
	m := openBoard(t, svc, st)

	m = step(t, m, keyMsg("x"))
	if m.modal != modalConfirm {
		t.Fatalf("expected confirmation")
	}
	m = step(t, m, keyMsg("n"))
	if len(m.st.Cards) != 2 {
		t.Fatalf("declined delete must keep the card")
	}

	m = step(t, m, keyMsg("x"))
	m, cmd := stepCmd(t, m, keyMsg("y"))
	if cmd == nil {
		t.Fatalf("expected delete command")
	}
	m = step(t, m, cmd())
	if todo := m.st.CardsIn(m.lists()[0].ID); !sameTitles(todo, "B") || todo[0].Position != 0 {
		t.Fatalf("expected B renumbered to 0, got %+v", todo)
	}
}

func TestRefresh_DroppedAfterLocalEdit(t *testing.T) {
	svc, st := seedBoard(t, []string{"A"}, nil)
	m := openBoard(t, svc, st)

	stale, err := svc.Load(context.Background(), st.Board.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	stale.Board.Title = "Stale"
	m.gen++
	m = step(t, m, boardRefreshedMsg{st: stale, gen: m.gen - 1})
	if m.st.Board.Title == "Stale" {
		t.Fatalf("stale refresh must be ignored")
	}
	m = step(t, m, boardRefreshedMsg{st: stale, gen: m.gen})
	if m.st.Board.Title != "Stale" {
		t.Fatalf("current refresh should apply")
	}
}
