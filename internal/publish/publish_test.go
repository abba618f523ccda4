package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"corkboard-cli/internal/board"
	"corkboard-cli/internal/model"
)

func sampleBoard() *board.State {
	now := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	desc := "Some **markdown** :tada:\n<script>alert(1)</script>"
	return &board.State{
		Board: model.Board{ID: "b1", Title: "Launch", CreatedAt: now},
		Lists: []model.List{
			{ID: "l2", Title: "Done", Position: 1},
			{ID: "l1", Title: "Todo", Position: 0},
		},
		Cards: []model.Card{
			{ID: "c2", ListID: "l1", Title: "Second", Position: 1},
			{ID: "c1", ListID: "l1", Title: "First", Position: 0, Description: &desc},
		},
	}
}

func TestRenderBoardMarkdown_Order(t *testing.T) {
	t.Parallel()

	md := RenderBoardMarkdown(sampleBoard())
	if !strings.HasPrefix(md, "# Launch\n") {
		t.Fatalf("expected title header, got:\n%s", md)
	}
	todo := strings.Index(md, "## Todo (2)")
	done := strings.Index(md, "## Done (0)")
	first := strings.Index(md, "### First")
	second := strings.Index(md, "### Second")
	if todo < 0 || done < 0 || first < 0 || second < 0 {
		t.Fatalf("missing sections:\n%s", md)
	}
	if !(todo < first && first < second && second < done) {
		t.Fatalf("sections out of display order:\n%s", md)
	}
	if !strings.Contains(md, "_No cards._") {
		t.Fatalf("expected empty list placeholder:\n%s", md)
	}
}

func TestRenderBoardHTML_EscapesRawHTML(t *testing.T) {
	t.Parallel()

	page, err := RenderBoardHTML(sampleBoard())
	if err != nil {
		t.Fatalf("RenderBoardHTML: %v", err)
	}
	if !strings.Contains(page, "<strong>markdown</strong>") {
		t.Fatalf("expected rendered markdown, got:\n%s", page)
	}
	if strings.Contains(page, "<script>alert(1)</script>") {
		t.Fatalf("raw html must not pass through:\n%s", page)
	}
	if strings.Contains(page, ":tada:") {
		t.Fatalf("expected emoji shortcode to render:\n%s", page)
	}
}

func TestWriteBoard(t *testing.T) {
	t.Parallel()

	to := t.TempDir()
	res, err := WriteBoard(sampleBoard(), to, WriteOptions{HTML: true})
	if err != nil {
		t.Fatalf("WriteBoard: %v", err)
	}
	if len(res.Written) != 2 {
		t.Fatalf("expected 2 written files; got %v", res.Written)
	}
	for _, name := range []string{"index.md", "index.html"} {
		if _, err := os.Stat(filepath.Join(to, "b1", name)); err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
	}
	if _, err := WriteBoard(sampleBoard(), to, WriteOptions{}); err == nil || !strings.Contains(err.Error(), "file exists") {
		t.Fatalf("expected overwrite guard, got %v", err)
	}
	if _, err := WriteBoard(sampleBoard(), to, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("WriteBoard overwrite: %v", err)
	}
}
