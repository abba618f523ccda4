package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"corkboard-cli/internal/identity"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/store"
	"corkboard-cli/internal/store/remote"
	"corkboard-cli/internal/store/sqlstore"
)

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

type testEnv struct {
	srv    *httptest.Server
	db     *sqlstore.DB
	tokens *identity.Tokens
	who    model.Identity
	token  string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "server.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	tokens := identity.NewTokens("test-secret", time.Hour)
	who := model.Identity{UserID: "user-1", Email: "ada@example.com"}
	token, err := tokens.Issue(who)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	srv := httptest.NewServer(New(db, tokens, quietLogger()))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, db: db, tokens: tokens, who: who, token: token}
}

func (e *testEnv) client(t *testing.T, token string) *remote.Client {
	t.Helper()
	c, err := remote.New(e.srv.URL, token)
	if err != nil {
		t.Fatalf("remote.New: %v", err)
	}
	return c
}

func TestHealthz(t *testing.T) {
	env := newEnv(t)
	res, err := http.Get(env.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if err := env.client(t, "").Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestRequiresAuth(t *testing.T) {
	env := newEnv(t)
	res, err := http.Post(env.srv.URL+"/api/v1/boards/select", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}

	_, err = env.client(t, "a.b.c").Select(context.Background(), store.Boards, nil)
	var se store.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
}

func TestRemoteRoundTrip(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	c := env.client(t, env.token)

	// user_id comes from the token.
	b, err := store.InsertBoard(ctx, c, model.Board{Title: "Remote"})
	if err != nil {
		t.Fatalf("InsertBoard: %v", err)
	}
	if b.UserID != env.who.UserID || b.ID == "" || b.CreatedAt.IsZero() {
		t.Fatalf("unexpected board: %+v", b)
	}
	l, err := store.InsertList(ctx, c, model.List{BoardID: b.ID, Title: "Todo"})
	if err != nil {
		t.Fatalf("InsertList: %v", err)
	}
	for i, title := range []string{"A", "B"} {
		if _, err := store.InsertCard(ctx, c, model.Card{ListID: l.ID, Title: title, Position: i}); err != nil {
			t.Fatalf("InsertCard: %v", err)
		}
	}
	cards, err := store.CardsForLists(ctx, c, []string{l.ID})
	if err != nil {
		t.Fatalf("CardsForLists: %v", err)
	}
	if len(cards) != 2 || cards[0].Title != "A" || cards[1].Position != 1 {
		t.Fatalf("unexpected cards: %+v", cards)
	}
	if err := store.UpdateByID(ctx, c, store.Cards, cards[0].ID, store.Row{"position": 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := store.CardByID(ctx, env.db, cards[0].ID)
	if err != nil {
		t.Fatalf("CardByID: %v", err)
	}
	if got.Position != 1 {
		t.Fatalf("expected update to reach the database, got %+v", got)
	}

	if err := c.Delete(ctx, store.Cards, store.ByID(cards[1].ID)); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.CardByID(ctx, c, cards[1].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestErrorsMapToSentinels(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	c := env.client(t, env.token)

	if _, err := c.Select(ctx, store.Cards, store.Where(store.Eq("rank", "x"))); !errors.Is(err, store.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	if _, err := c.Select(ctx, store.Table("users"), nil); !errors.Is(err, store.ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
	if err := c.Delete(ctx, store.Cards, nil); !errors.Is(err, store.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, env.srv.URL+"/api/v1/cards/select", strings.NewReader(`{"filter":`))
	req.Header.Set("Authorization", "Bearer "+env.token)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", res.StatusCode)
	}
}
