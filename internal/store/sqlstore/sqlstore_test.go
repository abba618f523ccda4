package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"corkboard-cli/internal/model"
	"corkboard-cli/internal/store"
)

func openTestSQLite(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "corkboard.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLite_Conformance(t *testing.T) {
	exerciseStore(t, openTestSQLite(t))
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "corkboard.sqlite")
	db, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	b, err := store.InsertBoard(ctx, db, model.Board{UserID: "u1", Title: "Roadmap"})
	if err != nil {
		t.Fatalf("InsertBoard: %v", err)
	}
	_ = db.Close()

	db, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	got, err := store.BoardByID(ctx, db, b.ID)
	if err != nil {
		t.Fatalf("BoardByID: %v", err)
	}
	if got.Title != "Roadmap" {
		t.Fatalf("unexpected board after reopen: %+v", got)
	}
}

func TestSQLite_TimestampsSortChronologically(t *testing.T) {
	ctx := context.Background()
	db := openTestSQLite(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	// With trimmed fractional seconds, 09:00:00.5 would sort before 09:00:00.
	for i, ts := range []time.Time{base.Add(500 * time.Millisecond), base, base.Add(2 * time.Second)} {
		if _, err := store.InsertBoard(ctx, db, model.Board{ID: []string{"b", "a", "c"}[i], UserID: "u1", Title: "t", CreatedAt: ts}); err != nil {
			t.Fatalf("InsertBoard: %v", err)
		}
	}
	boards, err := store.BoardsByIDs(ctx, db, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BoardsByIDs: %v", err)
	}
	if len(boards) != 3 || boards[0].ID != "c" || boards[1].ID != "b" || boards[2].ID != "a" {
		t.Fatalf("expected newest first (c, b, a), got %+v", boards)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

// exerciseStore runs the store contract against any backend.
func exerciseStore(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	b, err := store.InsertBoard(ctx, s, model.Board{UserID: "user-1", Title: "Sprint"})
	if err != nil {
		t.Fatalf("InsertBoard: %v", err)
	}
	if b.ID == "" || b.CreatedAt.IsZero() {
		t.Fatalf("expected server-assigned id and created_at, got %+v", b)
	}

	todo, err := store.InsertList(ctx, s, model.List{BoardID: b.ID, Title: "Todo", Position: 0})
	if err != nil {
		t.Fatalf("InsertList: %v", err)
	}
	done, err := store.InsertList(ctx, s, model.List{BoardID: b.ID, Title: "Done", Position: 1})
	if err != nil {
		t.Fatalf("InsertList: %v", err)
	}
	desc := "details"
	var ids []string
	for i, title := range []string{"A", "B", "C"} {
		c := model.Card{ListID: todo.ID, Title: title, Position: i}
		if i == 0 {
			c.Description = &desc
		}
		got, err := store.InsertCard(ctx, s, c)
		if err != nil {
			t.Fatalf("InsertCard: %v", err)
		}
		ids = append(ids, got.ID)
	}

	lists, err := store.ListsForBoard(ctx, s, b.ID)
	if err != nil {
		t.Fatalf("ListsForBoard: %v", err)
	}
	if len(lists) != 2 || lists[0].ID != todo.ID || lists[1].ID != done.ID {
		t.Fatalf("unexpected lists: %+v", lists)
	}

	// Move B to Done and C up.
	if err := store.UpdateByID(ctx, s, store.Cards, ids[1], store.Row{"list_id": done.ID, "position": 0}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := store.UpdateByID(ctx, s, store.Cards, ids[2], store.Row{"position": 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	cards, err := store.CardsForLists(ctx, s, []string{todo.ID, done.ID})
	if err != nil {
		t.Fatalf("CardsForLists: %v", err)
	}
	byID := map[string]model.Card{}
	for _, c := range cards {
		byID[c.ID] = c
	}
	if c := byID[ids[1]]; c.ListID != done.ID || c.Position != 0 {
		t.Fatalf("unexpected moved card: %+v", c)
	}
	if c := byID[ids[2]]; c.ListID != todo.ID || c.Position != 1 {
		t.Fatalf("unexpected sibling: %+v", c)
	}
	if c := byID[ids[0]]; c.DescriptionText() != "details" {
		t.Fatalf("expected description to round-trip, got %+v", c)
	}

	if _, err := s.Select(ctx, store.Cards, store.Where(store.Eq("board_id", b.ID))); !errors.Is(err, store.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	if err := s.Delete(ctx, store.Cards, nil); !errors.Is(err, store.ErrInvalidFilter) {
		t.Fatalf("expected unfiltered delete to be rejected, got %v", err)
	}
	if rows, err := s.Select(ctx, store.Cards, store.Where(store.In[string]("id"))); err != nil || len(rows) != 0 {
		t.Fatalf("expected empty In to match nothing, got %v %v", rows, err)
	}

	// Invite optionals.
	maxUses := 2
	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	inv, err := store.InsertInvite(ctx, s, model.Invite{BoardID: b.ID, InviteCode: "AbCd2345", CreatedBy: "user-1", MaxUses: &maxUses, ExpiresAt: &exp})
	if err != nil {
		t.Fatalf("InsertInvite: %v", err)
	}
	got, err := store.InviteByCode(ctx, s, "AbCd2345")
	if err != nil {
		t.Fatalf("InviteByCode: %v", err)
	}
	if got.ID != inv.ID || got.MaxUses == nil || *got.MaxUses != 2 || got.ExpiresAt == nil || !got.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected invite: %+v", got)
	}

	if _, err := store.InsertMember(ctx, s, model.Member{BoardID: b.ID, UserID: "user-1", Role: model.RoleOwner}); err != nil {
		t.Fatalf("InsertMember: %v", err)
	}
	mine, err := store.BoardsForUser(ctx, s, "user-1")
	if err != nil || len(mine) != 1 || mine[0].ID != b.ID {
		t.Fatalf("BoardsForUser: %+v %v", mine, err)
	}

	// Deleting the board cascades.
	if err := s.Delete(ctx, store.Boards, store.ByID(b.ID)); err != nil {
		t.Fatalf("Delete board: %v", err)
	}
	if _, err := store.BoardByID(ctx, s, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	left, err := store.CardsForLists(ctx, s, []string{todo.ID, done.ID})
	if err != nil {
		t.Fatalf("CardsForLists: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected cards to be deleted with their board, got %+v", left)
	}
	if _, err := store.InviteByCode(ctx, s, "AbCd2345"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected invite to be deleted with its board, got %v", err)
	}
}
