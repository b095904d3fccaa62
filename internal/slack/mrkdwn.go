package slack

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ToMrkdwn converts model-produced Markdown into Slack mrkdwn. Slack's
// dialect has no headings, uses *text* for bold and _text_ for italic, and
// writes links as <url|label>. Anything Slack cannot represent degrades to
// plain text rather than erroring.
func ToMrkdwn(src string) string {
	source := []byte(src)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var b strings.Builder
	for block := doc.FirstChild(); block != nil; block = block.NextSibling() {
		renderBlockNode(&b, block, source, 0)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderBlockNode(b *strings.Builder, n ast.Node, src []byte, depth int) {
	switch node := n.(type) {
	case *ast.Heading:
		b.WriteString("*")
		renderInlineChildren(b, node, src)
		b.WriteString("*\n\n")
	case *ast.Paragraph, *ast.TextBlock:
		renderInlineChildren(b, n, src)
		b.WriteString("\n\n")
	case *ast.FencedCodeBlock:
		writeCodeLines(b, node, src)
	case *ast.CodeBlock:
		writeCodeLines(b, node, src)
	case *ast.List:
		renderList(b, node, src, depth)
		if depth == 0 {
			b.WriteString("\n")
		}
	case *ast.Blockquote:
		var inner strings.Builder
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			renderBlockNode(&inner, child, src, depth)
		}
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			b.WriteString("> " + line + "\n")
		}
		b.WriteString("\n")
	case *ast.ThematicBreak:
		// Slack has no horizontal rule; dropped.
	default:
		renderInlineChildren(b, n, src)
		b.WriteString("\n\n")
	}
}

func writeCodeLines(b *strings.Builder, node ast.Node, src []byte) {
	b.WriteString("```\n")
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(src))
	}
	b.WriteString("```\n\n")
}

func renderList(b *strings.Builder, list *ast.List, src []byte, depth int) {
	indent := strings.Repeat("    ", depth)
	index := list.Start
	if index == 0 {
		index = 1
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if list.IsOrdered() {
			marker = fmt.Sprintf("%d. ", index)
			index++
		}
		b.WriteString(indent + marker)
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			switch c := child.(type) {
			case *ast.List:
				b.WriteString("\n")
				renderList(b, c, src, depth+1)
			default:
				renderInlineChildren(b, child, src)
				if child.NextSibling() != nil {
					if _, nested := child.NextSibling().(*ast.List); !nested {
						b.WriteString("\n" + indent + "  ")
					}
				}
			}
		}
		if !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
	}
}

func renderInlineChildren(b *strings.Builder, n ast.Node, src []byte) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		renderInlineNode(b, child, src)
	}
}

func renderInlineNode(b *strings.Builder, n ast.Node, src []byte) {
	switch node := n.(type) {
	case *ast.Text:
		b.WriteString(escapeMrkdwn(string(node.Segment.Value(src))))
		if node.SoftLineBreak() || node.HardLineBreak() {
			b.WriteString("\n")
		}
	case *ast.String:
		b.WriteString(escapeMrkdwn(string(node.Value)))
	case *ast.Emphasis:
		marker := "_"
		if node.Level >= 2 {
			marker = "*"
		}
		b.WriteString(marker)
		renderInlineChildren(b, node, src)
		b.WriteString(marker)
	case *ast.CodeSpan:
		b.WriteString("`")
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			if t, ok := child.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
			}
		}
		b.WriteString("`")
	case *ast.Link:
		var label strings.Builder
		renderInlineChildren(&label, node, src)
		b.WriteString("<" + string(node.Destination) + "|" + label.String() + ">")
	case *ast.AutoLink:
		b.WriteString(string(node.URL(src)))
	case *ast.Image:
		// Slack messages cannot embed images inline; fall back to a link.
		var alt strings.Builder
		renderInlineChildren(&alt, node, src)
		b.WriteString("<" + string(node.Destination) + "|" + alt.String() + ">")
	case *ast.RawHTML:
		// dropped
	default:
		renderInlineChildren(b, n, src)
	}
}

// escapeMrkdwn escapes the three characters Slack treats as control
// characters in mrkdwn text.
func escapeMrkdwn(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
