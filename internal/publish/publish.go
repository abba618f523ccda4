// Package publish exports a board as Markdown and HTML files.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"corkboard-cli/internal/board"
)

type WriteOptions struct {
	Overwrite bool
	HTML      bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteBoard writes <toDir>/<board-id>/index.md (and index.html when asked).
func WriteBoard(st *board.State, toDir string, opt WriteOptions) (WriteResult, error) {
	if st == nil {
		return WriteResult{}, errors.New("missing board")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	outDir := filepath.Join(filepath.Clean(toDir), st.Board.ID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	mdPath := filepath.Join(outDir, "index.md")
	if err := writeFile(mdPath, []byte(RenderBoardMarkdown(st)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	res := WriteResult{Written: []string{mdPath}}
	if !opt.HTML {
		return res, nil
	}
	page, err := RenderBoardHTML(st)
	if err != nil {
		return res, err
	}
	htmlPath := filepath.Join(outDir, "index.html")
	if err := writeFile(htmlPath, []byte(page), opt.Overwrite); err != nil {
		return res, err
	}
	res.Written = append(res.Written, htmlPath)
	return res, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
