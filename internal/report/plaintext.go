package report

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// PlainText renders markdown for terminals. Emphasis and code markers are
// dropped, top-level headings are underlined and list items keep a dash.
func PlainText(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if block := plainBlock(n, source); block != "" {
			blocks = append(blocks, block)
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func plainBlock(n ast.Node, source []byte) string {
	switch block := n.(type) {
	case *ast.Heading:
		title := inlineText(block, source)
		if block.Level == 1 {
			return title + "\n" + strings.Repeat("=", utf8.RuneCountInString(title))
		}
		return title
	case *ast.List:
		var items []string
		for item := block.FirstChild(); item != nil; item = item.NextSibling() {
			items = append(items, "- "+inlineText(item, source))
		}
		return strings.Join(items, "\n")
	default:
		return inlineText(n, source)
	}
}

// inlineText concatenates the text segments below n
func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(inlineText(c, source))
		}
	}
	return strings.TrimSpace(b.String())
}
