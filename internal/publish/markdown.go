package publish

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"corkboard-cli/internal/board"
	"corkboard-cli/internal/model"
)

// Raw HTML in card descriptions is not passed through.
var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// RenderBoardMarkdown renders the whole board: one section per list, one
// sub-section per card, in display order.
func RenderBoardMarkdown(st *board.State) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(st.Board.Title))
	writeLn("")
	writeLn("- ID: " + st.Board.ID)
	if !st.Board.CreatedAt.IsZero() {
		writeLn("- Created: " + st.Board.CreatedAt.UTC().Format(time.RFC3339))
	}
	writeLn(fmt.Sprintf("- Lists: %d", len(st.Lists)))
	writeLn(fmt.Sprintf("- Cards: %d", len(st.Cards)))

	for _, l := range st.SortedLists() {
		cards := st.CardsIn(l.ID)
		writeLn("")
		writeLn(fmt.Sprintf("## %s (%d)", strings.TrimSpace(l.Title), len(cards)))
		if len(cards) == 0 {
			writeLn("")
			writeLn("_No cards._")
			continue
		}
		for _, c := range cards {
			writeLn("")
			writeLn("### " + strings.TrimSpace(c.Title))
			if desc := strings.TrimSpace(c.DescriptionText()); desc != "" {
				writeLn("")
				writeLn(desc)
			}
		}
	}
	return buf.String()
}

// RenderCardMarkdown renders a single card with its list for context.
func RenderCardMarkdown(c model.Card, list model.List) string {
	var b strings.Builder
	b.WriteString("# " + strings.TrimSpace(c.Title) + "\n\n")
	b.WriteString("- List: " + strings.TrimSpace(list.Title) + "\n")
	b.WriteString(fmt.Sprintf("- Position: %d\n", c.Position))
	if !c.CreatedAt.IsZero() {
		b.WriteString("- Created: " + c.CreatedAt.UTC().Format(time.RFC3339) + "\n")
	}
	if desc := strings.TrimSpace(c.DescriptionText()); desc != "" {
		b.WriteString("\n" + desc + "\n")
	}
	return b.String()
}

// MarkdownHTML converts markdown to an HTML fragment.
func MarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(b.String())
}

var pageTemplate = template.Must(template.New("board").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:2rem}
.board{display:flex;gap:1rem;align-items:flex-start}
.list{background:#f1f2f4;border-radius:8px;padding:.5rem;min-width:16rem}
.card{background:#fff;border-radius:6px;padding:.5rem;margin:.5rem 0;box-shadow:0 1px 1px #0002}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="board">
{{range .Lists}}<section class="list"><h2>{{.Title}}</h2>
{{range .Cards}}<article class="card"><h3>{{.Title}}</h3>{{.Body}}</article>
{{end}}</section>
{{end}}</div>
</body>
</html>
`))

type htmlCard struct {
	Title string
	Body  template.HTML
}

type htmlList struct {
	Title string
	Cards []htmlCard
}

// RenderBoardHTML renders a standalone page with one column per list.
func RenderBoardHTML(st *board.State) (string, error) {
	data := struct {
		Title string
		Lists []htmlList
	}{Title: st.Board.Title}
	for _, l := range st.SortedLists() {
		hl := htmlList{Title: l.Title}
		for _, c := range st.CardsIn(l.ID) {
			hl.Cards = append(hl.Cards, htmlCard{Title: c.Title, Body: MarkdownHTML(c.DescriptionText())})
		}
		data.Lists = append(data.Lists, hl)
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
