package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"corkboard-cli/internal/board"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/store/sqlstore"
)

type memObjects struct {
	objects map[string][]byte
	missing bool
}

func (m *memObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "not found"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memObjects) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if m.missing {
		return nil, &smithy.GenericAPIError{Code: "NotFound"}
	}
	return &s3.HeadBucketOutput{}, nil
}

func newBucket(t *testing.T) (*Bucket, *memObjects) {
	t.Helper()
	objs := &memObjects{objects: map[string][]byte{}}
	b, err := NewBucket(objs, Config{Bucket: "corkboard", Prefix: "team/"})
	if err != nil {
		t.Fatalf("NewBucket: %v", err)
	}
	return b, objs
}

func sample() *board.State {
	desc := "details"
	return &board.State{
		Board: model.Board{ID: "b1", Title: "Roadmap"},
		Lists: []model.List{
			{ID: "l2", Title: "Done", Position: 5},
			{ID: "l1", Title: "Todo", Position: 2},
		},
		Cards: []model.Card{
			{ID: "c2", ListID: "l1", Title: "B", Position: 7},
			{ID: "c1", ListID: "l1", Title: "A", Position: 3, Description: &desc},
			{ID: "c3", ListID: "l2", Title: "X", Position: 0},
		},
	}
}

func TestPushPull(t *testing.T) {
	b, objs := newBucket(t)
	ctx := context.Background()
	key, err := b.Push(ctx, NewSnapshot(sample(), time.Now()))
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if key != "team/boards/b1.json" {
		t.Fatalf("unexpected key %q", key)
	}
	if _, ok := objs.objects["corkboard/team/boards/b1.json"]; !ok {
		t.Fatalf("expected object to be written, have %v", objs.objects)
	}
	snap, err := b.Pull(ctx, "b1")
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if snap.Board.Title != "Roadmap" || len(snap.Lists) != 2 || len(snap.Cards) != 3 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Lists[0].ID != "l1" {
		t.Fatalf("expected lists in display order, got %+v", snap.Lists)
	}
}

func TestPullMissing(t *testing.T) {
	b, objs := newBucket(t)
	if _, err := b.Pull(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	objs.objects["corkboard/team/boards/old.json"] = []byte(`{"version":99}`)
	if _, err := b.Pull(context.Background(), "old"); !errors.Is(err, ErrBadSnapshot) {
		t.Fatalf("expected ErrBadSnapshot, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	b, objs := newBucket(t)
	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	objs.missing = true
	if err := b.Check(context.Background()); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected missing bucket error, got %v", err)
	}
	if _, err := NewBucket(objs, Config{}); !errors.Is(err, ErrNoBucket) {
		t.Fatalf("expected ErrNoBucket, got %v", err)
	}
}

func TestRestoreRenumbers(t *testing.T) {
	ctx := context.Background()
	db, err := sqlstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "restore.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	owner := model.Identity{UserID: "ada", Email: "ada@example.com"}
	st, err := Restore(ctx, db, owner, NewSnapshot(sample(), time.Now()))
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if st.Board.ID == "b1" || st.Board.UserID != "ada" {
		t.Fatalf("expected a new board owned by ada, got %+v", st.Board)
	}
	if !st.Dense() {
		t.Fatalf("expected dense positions, got %+v %+v", st.Lists, st.Cards)
	}
	lists := st.SortedLists()
	if lists[0].Title != "Todo" || lists[1].Title != "Done" {
		t.Fatalf("unexpected list order: %+v", lists)
	}
	todo := st.CardsIn(lists[0].ID)
	if len(todo) != 2 || todo[0].Title != "A" || todo[0].DescriptionText() != "details" || todo[1].Title != "B" {
		t.Fatalf("unexpected todo cards: %+v", todo)
	}
}
