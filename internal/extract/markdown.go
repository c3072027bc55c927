package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// heading is a block-level heading token.
type heading struct {
	Level  int
	Text   string // bare inline text, without "#" markers or emphasis markup
	Offset int    // byte offset of the heading text in the document
}

// tokenizer splits a Markdown document into its top-level heading tokens
// using CommonMark heading rules (ATX and Setext). Headings nested in block
// quotes or list items, and lines inside code blocks, are not headings of
// the document.
type tokenizer struct {
	md goldmark.Markdown
}

func newTokenizer() *tokenizer {
	return &tokenizer{md: goldmark.New()}
}

// Headings returns every top-level heading in document order.
func (t *tokenizer) Headings(source []byte) []heading {
	doc := t.md.Parser().Parse(text.NewReader(source))

	var out []heading
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			continue
		}
		out = append(out, heading{
			Level:  h.Level,
			Text:   strings.TrimSpace(inlineText(h, source)),
			Offset: lines.At(0).Start,
		})
	}
	return out
}

// inlineText concatenates the text of n's inline descendants, dropping
// emphasis, link and code span markup.
func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value(source))
			if c.SoftLineBreak() || c.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(c.Value)
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// atxLine renders a heading the way it would appear as an ATX source line.
func (h heading) atxLine() string {
	return strings.Repeat("#", h.Level) + " " + h.Text
}
