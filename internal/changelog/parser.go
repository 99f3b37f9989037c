package changelog

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// atxHeadingLine matches the opening of an ATX heading line ("## 1.0.0").
var atxHeadingLine = regexp.MustCompile(`^ {0,3}#{1,6}(?:[ \t]|\r?$)`)

// Parse parses changelog markdown into a Document.
// Any input is accepted; text without structure becomes paragraphs.
func Parse(changelogText string) *Document {
	src := []byte(changelogText)
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	doc := &Document{source: src}
	prevEnd := 0
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		node := Node{Kind: kindOf(n)}

		start, ok := firstOffset(n, src)
		if ok {
			node.Start = lineStart(src, start)
		} else {
			node.Start = skipBlankLines(src, prevEnd)
		}
		node.BodyStart = bodyStart(n, src, node.Start)

		switch b := n.(type) {
		case *ast.Heading:
			node.Depth = b.Level
			node.Text = inlineText(n, src)
		case *ast.Paragraph, *ast.List, *ast.Blockquote:
			node.Text = inlineText(n, src)
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			node.Text = strings.TrimSpace(rawLines(n, src))
		}

		doc.Nodes = append(doc.Nodes, node)
		prevEnd = node.BodyStart
	}

	logDebug("[changelog] parsed %d nodes from %d bytes", len(doc.Nodes), len(src))
	return doc
}

func kindOf(n ast.Node) NodeKind {
	switch n.(type) {
	case *ast.Heading:
		return KindHeading
	case *ast.Paragraph, *ast.TextBlock:
		return KindParagraph
	case *ast.List:
		return KindList
	case *ast.Blockquote:
		return KindBlockquote
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return KindCodeBlock
	case *ast.ThematicBreak:
		return KindThematicBreak
	case *ast.HTMLBlock:
		return KindHTML
	default:
		return KindOther
	}
}

// firstOffset returns a byte offset inside the first source line owned by n.
// Thematic breaks and empty headings carry no segments and report false.
func firstOffset(n ast.Node, src []byte) (int, bool) {
	if fcb, ok := n.(*ast.FencedCodeBlock); ok {
		if fcb.Info != nil {
			return fcb.Info.Segment.Start, true
		}
		if fcb.Lines().Len() > 0 {
			// The opening fence is the line before the first content line.
			first := lineStart(src, fcb.Lines().At(0).Start)
			if first == 0 {
				return 0, true
			}
			return lineStart(src, first-1), true
		}
		return 0, false
	}

	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start, true
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		if off, ok := firstOffset(c, src); ok {
			return off, true
		}
	}
	return 0, false
}

// lastOffset returns the exclusive end offset of the last segment owned by n.
func lastOffset(n ast.Node) (int, bool) {
	for c := n.LastChild(); c != nil; c = c.PreviousSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		if off, ok := lastOffset(c); ok {
			return off, true
		}
	}
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(n.Lines().Len() - 1).Stop, true
	}
	return 0, false
}

// bodyStart returns the offset just past the lines that belong to n itself.
// For setext headings this includes the underline.
func bodyStart(n ast.Node, src []byte, start int) int {
	if h, ok := n.(*ast.Heading); ok {
		if h.Lines().Len() == 0 {
			return endOfLine(src, start)
		}
		last := h.Lines().At(h.Lines().Len() - 1)
		end := endOfLine(src, max(last.Stop-1, last.Start))
		if !atxHeadingLine.Match(src[start:endOfLine(src, start)]) {
			end = endOfLine(src, end)
		}
		return end
	}

	end := endOfLine(src, start)
	if stop, ok := lastOffset(n); ok {
		end = endOfLine(src, max(stop-1, start))
	}

	switch b := n.(type) {
	case *ast.FencedCodeBlock:
		if isFenceLine(src[end:endOfLine(src, end)]) {
			end = endOfLine(src, end)
		}
	case *ast.HTMLBlock:
		if b.HasClosure() {
			end = endOfLine(src, max(b.ClosureLine.Stop-1, start))
		}
	}
	return end
}

func isFenceLine(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	return bytes.HasPrefix(trimmed, []byte("```")) || bytes.HasPrefix(trimmed, []byte("~~~"))
}

// inlineText concatenates the inline text below n, separating blocks with spaces.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if c.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.Label(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// rawLines returns the source lines of a leaf block.
func rawLines(n ast.Node, src []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

func lineStart(src []byte, off int) int {
	if off > len(src) {
		off = len(src)
	}
	return bytes.LastIndexByte(src[:off], '\n') + 1
}

// endOfLine returns the offset just past the newline ending the line that contains off.
func endOfLine(src []byte, off int) int {
	if off >= len(src) {
		return len(src)
	}
	i := bytes.IndexByte(src[off:], '\n')
	if i < 0 {
		return len(src)
	}
	return off + i + 1
}

func skipBlankLines(src []byte, off int) int {
	for off < len(src) {
		end := endOfLine(src, off)
		if len(bytes.TrimSpace(src[off:end])) > 0 {
			return off
		}
		off = end
	}
	return len(src)
}
