package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"corkboard-cli/internal/backup"
	"corkboard-cli/internal/config"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/perm"
	"corkboard-cli/internal/store"
	"corkboard-cli/internal/store/sqlstore"
)

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta map[string]any  `json:"meta"`
}

// withConfigDir points the CLI at an empty config dir (and so a fresh SQLite
// database) for the rest of the test.
func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CORKBOARD_CONFIG_DIR", dir)
	for _, k := range []string{"CORKBOARD_STORE", "CORKBOARD_DSN", "CORKBOARD_REDIS_URL", "CORKBOARD_LOG_FILE", "CORKBOARD_FORMAT", "CORKBOARD_JWT_SECRET"} {
		t.Setenv(k, "")
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, args ...string) envelope {
	t.Helper()
	out, errOut, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("corkboard %s: %v\nstderr: %s", strings.Join(args, " "), err, errOut)
	}
	var env envelope
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("corkboard %s: invalid JSON %q: %v", strings.Join(args, " "), out, err)
	}
	return env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return v
}

func login(t *testing.T, email string) model.Identity {
	t.Helper()
	return decodeData[model.Identity](t, mustRun(t, "auth", "login", "--email", email))
}

// newBoard creates a board with lists Todo and Done and cards A, B, C in Todo.
func newBoard(t *testing.T) (model.Board, []model.List, []model.Card) {
	t.Helper()
	b := decodeData[model.Board](t, mustRun(t, "boards", "create", "--title", "Roadmap"))
	var lists []model.List
	for _, title := range []string{"Todo", "Done"} {
		lists = append(lists, decodeData[model.List](t, mustRun(t, "lists", "add", "--board", b.ID, "--title", title)))
	}
	var cards []model.Card
	for _, title := range []string{"A", "B", "C"} {
		cards = append(cards, decodeData[model.Card](t, mustRun(t, "cards", "add", "--list", lists[0].ID, "--title", title)))
	}
	return b, lists, cards
}

func showBoard(t *testing.T, id string) boardView {
	t.Helper()
	return decodeData[boardView](t, mustRun(t, "boards", "show", id))
}

func listTitles(lv listView) string {
	var ts []string
	for _, c := range lv.Cards {
		ts = append(ts, c.Title)
	}
	return strings.Join(ts, ",")
}

func TestSignedOutCommandsFail(t *testing.T) {
	withConfigDir(t)
	_, errOut, err := runCLI(t, "boards", "list")
	if !errors.Is(err, errSignedOut) {
		t.Fatalf("expected errSignedOut, got %v", err)
	}
	if !strings.Contains(errOut, "auth login") {
		t.Fatalf("expected a sign-in hint on stderr, got %q", errOut)
	}
}

func TestAuthLoginWhoamiLogout(t *testing.T) {
	withConfigDir(t)
	who := login(t, "Ada@Example.com")
	if who.Email != "ada@example.com" || who.UserID == "" {
		t.Fatalf("unexpected identity %+v", who)
	}
	again := login(t, "ada@example.com")
	if again.UserID != who.UserID {
		t.Fatalf("expected a stable user id, got %q then %q", who.UserID, again.UserID)
	}
	if got := decodeData[model.Identity](t, mustRun(t, "auth", "whoami")); got != who {
		t.Fatalf("whoami: expected %+v, got %+v", who, got)
	}
	mustRun(t, "auth", "logout")
	if _, _, err := runCLI(t, "auth", "whoami"); !errors.Is(err, errSignedOut) {
		t.Fatalf("expected errSignedOut after logout, got %v", err)
	}
}

func TestBoardListCardLifecycle(t *testing.T) {
	withConfigDir(t)
	login(t, "ada@example.com")
	b, lists, cards := newBoard(t)

	boards := decodeData[[]model.Board](t, mustRun(t, "boards", "list"))
	if len(boards) != 1 || boards[0].ID != b.ID {
		t.Fatalf("unexpected boards %+v", boards)
	}

	v := showBoard(t, b.ID)
	if len(v.Lists) != 2 || listTitles(v.Lists[0]) != "A,B,C" || v.Lists[0].Title != "Todo" {
		t.Fatalf("unexpected board %+v", v)
	}

	env := mustRun(t, "cards", "edit", cards[1].ID, "--title", "B2", "--description", "**notes**")
	edited := decodeData[model.Card](t, env)
	if edited.Title != "B2" || edited.DescriptionText() != "**notes**" {
		t.Fatalf("unexpected edit %+v", edited)
	}
	env = mustRun(t, "cards", "edit", cards[1].ID, "--title", "B2")
	if changed, _ := env.Meta["changed"].([]any); len(changed) != 0 {
		t.Fatalf("unchanged title must not be written, meta %+v", env.Meta)
	}

	mustRun(t, "lists", "rename", lists[1].ID, "--title", "Shipped")
	mustRun(t, "cards", "delete", cards[0].ID)
	v = showBoard(t, b.ID)
	if listTitles(v.Lists[0]) != "B2,C" || v.Lists[1].Title != "Shipped" {
		t.Fatalf("unexpected board after edits %+v", v)
	}
	for i, c := range v.Lists[0].Cards {
		if c.Position != i {
			t.Fatalf("expected dense positions after delete, got %+v", v.Lists[0].Cards)
		}
	}

	mustRun(t, "lists", "delete", lists[0].ID)
	v = showBoard(t, b.ID)
	if len(v.Lists) != 1 || v.Lists[0].Position != 0 {
		t.Fatalf("expected one renumbered list, got %+v", v.Lists)
	}

	mustRun(t, "boards", "delete", b.ID)
	if _, _, err := runCLI(t, "boards", "show", b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a deleted board, got %v", err)
	}
}

func TestCardsMove(t *testing.T) {
	withConfigDir(t)
	login(t, "ada@example.com")
	b, lists, cards := newBoard(t)

	// Within a list: A onto C.
	env := mustRun(t, "cards", "move", cards[0].ID, "--over", cards[2].ID)
	out := decodeData[moveOutput](t, env)
	if out.Kind != "within-list" || out.Applied != 3 || len(out.Failed) != 0 {
		t.Fatalf("unexpected move output %+v", out)
	}
	v := showBoard(t, b.ID)
	if listTitles(v.Lists[0]) != "B,C,A" {
		t.Fatalf("expected B,C,A, got %s", listTitles(v.Lists[0]))
	}

	// Across lists: C to the empty Done list.
	out = decodeData[moveOutput](t, mustRun(t, "cards", "move", cards[2].ID, "--over", lists[1].ID))
	if out.Kind != "across-lists" || out.TargetListID != lists[1].ID || out.Card.Position != 0 {
		t.Fatalf("unexpected move output %+v", out)
	}
	v = showBoard(t, b.ID)
	if listTitles(v.Lists[0]) != "B,A" || listTitles(v.Lists[1]) != "C" {
		t.Fatalf("unexpected board %+v", v)
	}
	for _, lv := range v.Lists {
		for i, c := range lv.Cards {
			if c.Position != i {
				t.Fatalf("expected dense positions in %s, got %+v", lv.Title, lv.Cards)
			}
		}
	}

	// Onto itself: nothing changes.
	out = decodeData[moveOutput](t, mustRun(t, "cards", "move", cards[1].ID, "--over", cards[1].ID))
	if out.Kind != "none" || out.Applied != 0 {
		t.Fatalf("expected a no-op, got %+v", out)
	}
}

func TestInvitesAndMembers(t *testing.T) {
	withConfigDir(t)
	ada := login(t, "ada@example.com")
	b, _, _ := newBoard(t)

	inv := decodeData[model.Invite](t, mustRun(t, "invites", "create", b.ID, "--max-uses", "1"))
	if len(inv.InviteCode) != 8 || inv.MaxUses == nil || *inv.MaxUses != 1 {
		t.Fatalf("unexpected invite %+v", inv)
	}
	if latest := decodeData[model.Invite](t, mustRun(t, "invites", "show", b.ID)); latest.ID != inv.ID {
		t.Fatalf("expected latest invite %s, got %s", inv.ID, latest.ID)
	}

	login(t, "bob@example.com")
	if _, _, err := runCLI(t, "boards", "show", b.ID); !errors.Is(err, perm.ErrNoAccess) {
		t.Fatalf("expected ErrNoAccess before joining, got %v", err)
	}
	if _, _, err := runCLI(t, "invites", "create", b.ID); err == nil {
		t.Fatalf("expected a non-owner invite to fail")
	}
	joined := mustRun(t, "invites", "join", inv.InviteCode)
	if !strings.Contains(string(joined.Data), b.ID) {
		t.Fatalf("unexpected join output %s", joined.Data)
	}
	boards := decodeData[[]model.Board](t, mustRun(t, "boards", "list"))
	if len(boards) != 1 || boards[0].ID != b.ID {
		t.Fatalf("expected the shared board, got %+v", boards)
	}
	if _, _, err := runCLI(t, "boards", "delete", b.ID); !errors.Is(err, perm.ErrNotOwner) {
		t.Fatalf("expected a member delete to fail with ErrNotOwner, got %v", err)
	}

	members := decodeData[[]model.Member](t, mustRun(t, "members", "list", b.ID))
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %+v", members)
	}
	var bobID string
	for _, m := range members {
		if m.UserID != ada.UserID {
			bobID = m.ID
		}
	}

	login(t, "carol@example.com")
	if _, _, err := runCLI(t, "invites", "join", inv.InviteCode); err == nil {
		t.Fatalf("expected an exhausted invite to fail")
	}

	login(t, "ada@example.com")
	mustRun(t, "members", "remove", b.ID, bobID)
	if members := decodeData[[]model.Member](t, mustRun(t, "members", "list", b.ID)); len(members) != 1 {
		t.Fatalf("expected only the owner left, got %+v", members)
	}
}

func TestDoctorFix(t *testing.T) {
	dir := withConfigDir(t)
	login(t, "ada@example.com")
	b, _, cards := newBoard(t)

	db, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(dir, config.DatabaseName))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := store.UpdateByID(context.Background(), db, store.Cards, cards[2].ID, store.Row{"position": 8}); err != nil {
		t.Fatalf("UpdateByID: %v", err)
	}
	_ = db.Close()

	if _, _, err := runCLI(t, "doctor", "--fail", b.ID); !errors.Is(err, errDoctorIssuesFound) {
		t.Fatalf("expected doctor to fail, got %v", err)
	}
	env := mustRun(t, "doctor", "--fix", b.ID)
	if env.Meta["repaired"] != float64(1) {
		t.Fatalf("expected one repaired row, meta %+v", env.Meta)
	}
	env = mustRun(t, "doctor", "--fail", b.ID)
	if env.Meta["issues"] != float64(0) {
		t.Fatalf("expected a clean board, meta %+v", env.Meta)
	}
}

func TestPublish(t *testing.T) {
	withConfigDir(t)
	login(t, "ada@example.com")
	b, _, _ := newBoard(t)
	to := t.TempDir()

	mustRun(t, "publish", b.ID, "--to", to, "--html")
	md, err := os.ReadFile(filepath.Join(to, b.ID, "index.md"))
	if err != nil {
		t.Fatalf("read index.md: %v", err)
	}
	if !strings.Contains(string(md), "Roadmap") || !strings.Contains(string(md), "Todo") {
		t.Fatalf("unexpected markdown %q", md)
	}
	if _, err := os.Stat(filepath.Join(to, b.ID, "index.html")); err != nil {
		t.Fatalf("expected index.html: %v", err)
	}
	if _, _, err := runCLI(t, "publish", b.ID, "--to", to); err == nil {
		t.Fatalf("expected an existing file to need --overwrite")
	}
	env := mustRun(t, "publish", b.ID, "--to", to, "--overwrite", "--commit")
	if env.Meta["committed"] != false {
		t.Fatalf("expected no commit outside a git repository, meta %+v", env.Meta)
	}
}

func TestEDNOutput(t *testing.T) {
	withConfigDir(t)
	login(t, "ada@example.com")
	out, _, err := runCLI(t, "--format", "edn", "auth", "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "{:data") || !strings.Contains(out, ":user-id") {
		t.Fatalf("unexpected EDN %q", out)
	}
	if _, _, err := runCLI(t, "--format", "xml", "auth", "whoami"); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}

func TestAuthTokenSave(t *testing.T) {
	dir := withConfigDir(t)
	login(t, "ada@example.com")
	if _, _, err := runCLI(t, "auth", "token"); err == nil {
		t.Fatalf("expected a missing secret to fail")
	}
	t.Setenv("CORKBOARD_JWT_SECRET", "s3cret")
	env := mustRun(t, "auth", "token", "--save", "--server", "http://localhost:8080")
	data := decodeData[map[string]any](t, env)
	tok, _ := data["token"].(string)
	if strings.Count(tok, ".") != 2 {
		t.Fatalf("expected a JWT, got %q", tok)
	}
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != config.DriverRemote || cfg.Store.Token != tok || cfg.Store.ServerURL != "http://localhost:8080" {
		t.Fatalf("unexpected saved store config %+v", cfg.Store)
	}
}

type memObjects struct {
	objects map[string][]byte
}

func (m *memObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memObjects) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestBackupPushRestore(t *testing.T) {
	withConfigDir(t)
	objs := &memObjects{objects: map[string][]byte{}}
	prev := openBucket
	openBucket = func(context.Context, *App) (*backup.Bucket, error) {
		return backup.NewBucket(objs, backup.Config{Bucket: "test"})
	}
	t.Cleanup(func() { openBucket = prev })

	login(t, "ada@example.com")
	b, _, _ := newBoard(t)

	env := mustRun(t, "backup", "push", b.ID)
	if data := decodeData[map[string]any](t, env); data["key"] != "boards/"+b.ID+".json" {
		t.Fatalf("unexpected push output %+v", data)
	}
	snap := decodeData[backup.Snapshot](t, mustRun(t, "backup", "pull", b.ID))
	if snap.Board.ID != b.ID || len(snap.Cards) != 3 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	restored := decodeData[boardView](t, mustRun(t, "backup", "restore", b.ID))
	if restored.Board.ID == b.ID || restored.Board.Title != "Roadmap" {
		t.Fatalf("expected a new board, got %+v", restored.Board)
	}
	if len(restored.Lists) != 2 || listTitles(restored.Lists[0]) != "A,B,C" {
		t.Fatalf("unexpected restored board %+v", restored)
	}
	if boards := decodeData[[]model.Board](t, mustRun(t, "boards", "list")); len(boards) != 2 {
		t.Fatalf("expected two boards after restore, got %+v", boards)
	}

	if _, _, err := runCLI(t, "backup", "pull", "missing"); !errors.Is(err, backup.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocs(t *testing.T) {
	withConfigDir(t)
	data := decodeData[map[string][]string](t, mustRun(t, "docs"))
	if len(data["topics"]) == 0 {
		t.Fatalf("expected topics, got %+v", data)
	}
	out, _, err := runCLI(t, "docs", "moving", "--raw")
	if err != nil || !strings.HasPrefix(out, "# Moving cards") {
		t.Fatalf("unexpected raw docs %q %v", out, err)
	}
	if _, _, err := runCLI(t, "docs", "nope"); err == nil {
		t.Fatalf("expected unknown topic to fail")
	}
}
