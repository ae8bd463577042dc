// Package markdown renders post bodies to HTML.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Raw HTML in the source is not passed through (goldmark's default).
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

func ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Excerpt returns the plain text of the first paragraph, cut at max runes.
func Excerpt(src string, max int) string {
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))

	var out string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindParagraph {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		collectText(n, source, &b)
		out = strings.TrimSpace(b.String())
		return ast.WalkStop, nil
	})

	r := []rune(out)
	if max > 0 && len(r) > max {
		return strings.TrimSpace(string(r[:max])) + "…"
	}
	return out
}

func collectText(n ast.Node, source []byte, b *strings.Builder) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
			continue
		}
		collectText(c, source, b)
	}
}
