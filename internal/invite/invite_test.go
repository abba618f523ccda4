package invite

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"corkboard-cli/internal/identity"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/store"
	"corkboard-cli/internal/store/sqlstore"
)

var (
	ada = model.Identity{UserID: "ada", Email: "ada@example.com"}
	bob = model.Identity{UserID: "bob", Email: "bob@example.com"}
)

type fixture struct {
	db    store.Store
	board model.Board
	owner *Service
	guest *Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db, err := sqlstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "invite.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	b, err := store.InsertBoard(ctx, db, model.Board{UserID: ada.UserID, Title: "Shared"})
	if err != nil {
		t.Fatalf("InsertBoard: %v", err)
	}
	if _, err := store.InsertMember(ctx, db, model.Member{BoardID: b.ID, UserID: ada.UserID, Role: model.RoleOwner}); err != nil {
		t.Fatalf("InsertMember: %v", err)
	}
	l := log.New()
	l.SetOutput(io.Discard)
	return fixture{
		db:    db,
		board: b,
		owner: New(db, identity.Static(ada), l),
		guest: New(db, identity.Static(bob), l),
	}
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if !ValidCode(code) {
			t.Fatalf("generated invalid code %q", code)
		}
		seen[code] = true
	}
	if len(seen) < 190 {
		t.Fatalf("expected mostly unique codes, got %d distinct", len(seen))
	}
	for _, bad := range []string{"", "abc", "ABCDEFG0", "ABCDEFGHI", "ABCDEFGl"} {
		if ValidCode(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}

func TestRedeemJoinsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.owner.Create(ctx, f.board.ID, 0, time.Time{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inv.Uses != 0 || inv.MaxUses != nil || inv.ExpiresAt != nil || inv.CreatedBy != ada.UserID {
		t.Fatalf("unexpected invite: %+v", inv)
	}

	info, err := f.guest.Inspect(ctx, inv.InviteCode)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.BoardTitle != "Shared" || info.AlreadyMember {
		t.Fatalf("unexpected info: %+v", info)
	}
	if _, err := f.guest.Redeem(ctx, inv.InviteCode); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if _, err := f.guest.Redeem(ctx, inv.InviteCode); err != nil {
		t.Fatalf("second Redeem: %v", err)
	}

	members, err := f.owner.Members(ctx, f.board.ID)
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 2 || members[1].UserID != bob.UserID || members[1].Role != model.RoleMember {
		t.Fatalf("unexpected members: %+v", members)
	}
	latest, err := f.owner.Latest(ctx, f.board.ID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Uses != 1 {
		t.Fatalf("expected one use, got %d", latest.Uses)
	}

	info, err = f.owner.Inspect(ctx, inv.InviteCode)
	if err != nil || !info.AlreadyMember {
		t.Fatalf("expected owner to be a member already: %+v %v", info, err)
	}
}

func TestInspectRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.guest.Inspect(ctx, "nonsense"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for bad code, got %v", err)
	}
	if _, err := f.guest.Inspect(ctx, "ABCDEFGH"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown code, got %v", err)
	}

	soon := time.Now().Add(time.Hour)
	expiring, err := f.owner.Create(ctx, f.board.ID, 0, soon)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.guest.now = func() time.Time { return soon.Add(time.Minute) }
	if _, err := f.guest.Inspect(ctx, expiring.InviteCode); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	f.guest.now = time.Now

	single, err := f.owner.Create(ctx, f.board.ID, 1, time.Time{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.guest.Redeem(ctx, single.InviteCode); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	carol := New(f.db, identity.Static(model.Identity{UserID: "carol"}), nil)
	if _, err := carol.Redeem(ctx, single.InviteCode); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestCreateRequiresOwner(t *testing.T) {
	f := newFixture(t)
	if _, err := f.guest.Create(context.Background(), f.board.ID, 0, time.Time{}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.owner.Create(ctx, f.board.ID, 0, time.Time{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.guest.Redeem(ctx, inv.InviteCode); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	members, _ := f.owner.Members(ctx, f.board.ID)
	ownerRow, guestRow := members[0], members[1]

	if err := f.guest.RemoveMember(ctx, f.board.ID, ownerRow.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := f.owner.RemoveMember(ctx, f.board.ID, ownerRow.ID); !errors.Is(err, ErrOwnerRow) {
		t.Fatalf("expected ErrOwnerRow, got %v", err)
	}
	if err := f.owner.RemoveMember(ctx, f.board.ID, guestRow.ID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := f.owner.RemoveMember(ctx, f.board.ID, guestRow.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	members, _ = f.owner.Members(ctx, f.board.ID)
	if len(members) != 1 {
		t.Fatalf("expected only the owner to remain, got %+v", members)
	}
}
