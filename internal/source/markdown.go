package source

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// PlainText renders Markdown as the words a listener should hear. Code
// blocks and raw HTML are dropped, link and image targets are replaced by
// their text, and headings and list items end a sentence.
func PlainText(markdown []byte) string {
	reader := text.NewReader(markdown)
	doc := md.Parser().Parse(reader)

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		var buf strings.Builder
		walkNode(n, reader.Source(), &buf)
		if s := strings.Join(strings.Fields(buf.String()), " "); s != "" {
			blocks = append(blocks, s)
		}
	}

	return strings.Join(blocks, "\n\n")
}

func walkChildren(n ast.Node, source []byte, buf *strings.Builder) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		walkNode(c, source, buf)
	}
}

func walkNode(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.ThematicBreak:
		return

	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteByte(' ')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}

	case *ast.AutoLink:
		buf.Write(n.Label(source))

	case *ast.Heading:
		walkChildren(n, source, buf)
		endSentence(buf)

	case *ast.ListItem:
		walkChildren(n, source, buf)
		endSentence(buf)
		buf.WriteByte('\n')

	case *ast.Paragraph, *ast.TextBlock:
		walkChildren(n, source, buf)
		buf.WriteByte(' ')

	default:
		walkChildren(n, source, buf)
	}
}

// endSentence terminates the text written so far with a period unless it
// already ends in punctuation.
func endSentence(buf *strings.Builder) {
	s := strings.TrimRight(buf.String(), " \n")
	if s == "" {
		return
	}
	if r, _ := utf8.DecodeLastRuneInString(s); !strings.ContainsRune(".!?:;,।", r) {
		buf.Reset()
		buf.WriteString(s)
		buf.WriteString(". ")
		return
	}
	buf.WriteByte(' ')
}
