package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings become
// their own blocks and ordered list items keep their numbers, so
// "## CHAPTER 2 - Rights" and "3. Equality" reach the strategies intact.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Extracted, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	out := &Extracted{Title: baseTitle(filename)}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			out.add(strings.Join(strings.Fields(blockText(node, src)), " "))
		case *ast.List:
			for i, item := 0, node.FirstChild(); item != nil; i, item = i+1, item.NextSibling() {
				t := blockText(item, src)
				if node.IsOrdered() {
					t = fmt.Sprintf("%d%c %s", node.Start+i, node.Marker, t)
				}
				out.add(t)
			}
		case *ast.ThematicBreak:
		default:
			out.add(blockText(n, src))
		}
	}
	return out, nil
}

// blockText returns the source lines of a leaf block, or the text of each
// child block joined by newlines for containers.
func blockText(n ast.Node, src []byte) string {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.WriteString(strings.TrimRight(string(seg.Value(src)), "\r\n"))
			buf.WriteByte('\n')
		}
		return strings.TrimSpace(buf.String())
	}
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		if t := blockText(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}
