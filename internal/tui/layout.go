package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to exactly width columns (ANSI-aware) and, when
// height > 0, exactly height lines. Overlong lines end in an ellipsis.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		w := xansi.StringWidth(ln)
		if w > width {
			ln = truncateText(ln, width)
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

func truncateText(s string, width int) string {
	switch {
	case width <= 0:
		return ""
	case xansi.StringWidth(s) <= width:
		return s
	case width == 1:
		return xansi.Cut(s, 0, 1)
	default:
		return xansi.Cut(s, 0, width-1) + "…"
	}
}

// wrapText word-wraps plain text to maxW columns. Words longer than a line are
// hard-cut. The first line gets firstPrefix, the rest contPrefix.
func wrapText(s string, maxW int, firstPrefix, contPrefix string) []string {
	words := strings.Fields(s)
	if len(words) == 0 || maxW <= 0 {
		return []string{firstPrefix}
	}
	var lines []string
	prefix := firstPrefix
	avail := func() int {
		if a := maxW - xansi.StringWidth(prefix); a > 0 {
			return a
		}
		return 1
	}
	cur, curW := "", 0
	flush := func() {
		lines = append(lines, prefix+cur)
		prefix = contPrefix
		cur, curW = "", 0
	}
	for _, w := range words {
		ww := xansi.StringWidth(w)
		if cur != "" && curW+1+ww <= avail() {
			cur += " " + w
			curW += 1 + ww
			continue
		}
		if cur != "" {
			flush()
		}
		for ww > avail() {
			a := avail()
			lines = append(lines, prefix+xansi.Cut(w, 0, a))
			prefix = contPrefix
			w = xansi.Cut(w, a, ww)
			ww = xansi.StringWidth(w)
		}
		cur, curW = w, ww
	}
	if cur != "" {
		flush()
	}
	return lines
}
