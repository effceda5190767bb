package blog

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// engine is stateless and safe for concurrent use. Raw HTML passes through
// since authors own their post content.
var engine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// RenderHTML converts markdown content to an HTML fragment.
func RenderHTML(content string) ([]byte, error) {
	var buf bytes.Buffer
	if err := engine.Convert([]byte(content), &buf); err != nil {
		return nil, fmt.Errorf("blog: render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

const pageShell = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="description" content="%s">
<meta name="author" content="%s">
<title>%s</title>
</head>
<body>
<article>
<h1>%s</h1>
<p><em>%s · %s</em></p>
%s</article>
</body>
</html>
`

// RenderPage renders the post as a standalone HTML page suitable for a
// local preview.
func (p *Post) RenderPage() ([]byte, error) {
	body, err := RenderHTML(p.Content)
	if err != nil {
		return nil, err
	}
	title := html.EscapeString(p.Title)
	page := fmt.Sprintf(pageShell,
		html.EscapeString(p.Description),
		html.EscapeString(p.Author),
		title,
		title,
		html.EscapeString(p.Author),
		html.EscapeString(p.Date),
		body,
	)
	return []byte(page), nil
}
