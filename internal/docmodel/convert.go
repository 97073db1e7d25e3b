package docmodel

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// converter maps a goldmark AST onto Nodes.
type converter struct {
	src        []byte
	lineStarts []int
	offset     int
	trackLines bool

	explicitIDs map[*Node]bool
}

func newConverter(src []byte, offset int, trackLines bool) *converter {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &converter{
		src:         src,
		lineStarts:  starts,
		offset:      offset,
		trackLines:  trackLines,
		explicitIDs: map[*Node]bool{},
	}
}

func (c *converter) lineAt(pos int) int {
	if !c.trackLines || pos < 0 {
		return 0
	}
	idx := sort.Search(len(c.lineStarts), func(i int) bool { return c.lineStarts[i] > pos })
	return idx + c.offset
}

// lineOf finds the first source position inside n.
func (c *converter) lineOf(n gmast.Node, fallback int) int {
	if pos, ok := firstPos(n); ok {
		return c.lineAt(pos)
	}
	return fallback
}

func firstPos(n gmast.Node) (int, bool) {
	switch t := n.(type) {
	case *gmast.Text:
		return t.Segment.Start, true
	case *gmast.FencedCodeBlock:
		if t.Info != nil {
			return t.Info.Segment.Start, true
		}
	}
	if n.Type() == gmast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start, true
	}
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		if pos, ok := firstPos(ch); ok {
			return pos, true
		}
	}
	return 0, false
}

func (c *converter) convert(root gmast.Node) *Node {
	doc := &Node{Kind: KindDocument, Line: 0}
	doc.Children = c.children(root, 0, 0)
	if len(doc.Children) > 0 {
		doc.Line = doc.Children[0].Line
	}
	return doc
}

func (c *converter) children(parent gmast.Node, line, listDepth int) []*Node {
	var out []*Node
	for ch := parent.FirstChild(); ch != nil; ch = ch.NextSibling() {
		out = append(out, c.node(ch, line, listDepth)...)
	}
	return out
}

// node converts one goldmark node. Transparent containers (text blocks and
// unknown wrappers) splice their children into the parent.
func (c *converter) node(n gmast.Node, parentLine, listDepth int) []*Node {
	line := parentLine
	if n.Type() == gmast.TypeBlock {
		line = c.lineOf(n, parentLine)
	}
	one := func(out *Node) []*Node { return []*Node{out} }

	switch t := n.(type) {
	case *gmast.Heading:
		h := &Node{Kind: KindHeading, Level: t.Level, Line: line}
		if v, ok := t.AttributeString("id"); ok {
			if id := strings.TrimSpace(attrString(v)); id != "" {
				h.SetAttr(AttrID, id)
				c.explicitIDs[h] = true
			}
		}
		h.Children = c.children(t, line, listDepth)
		return one(h)

	case *gmast.Paragraph:
		return one(&Node{Kind: KindParagraph, Line: line, Children: c.children(t, line, listDepth)})

	case *gmast.TextBlock:
		return c.children(t, line, listDepth)

	case *gmast.List:
		l := &Node{Kind: KindList, Level: listDepth + 1, Line: line}
		if t.IsOrdered() {
			l.SetAttr(AttrOrdered, "true")
			if t.Start != 1 {
				l.SetAttr(AttrStart, strconv.Itoa(t.Start))
			}
		}
		l.Children = c.children(t, line, listDepth+1)
		return one(l)

	case *gmast.ListItem:
		return one(&Node{Kind: KindListItem, Line: line, Children: c.children(t, line, listDepth)})

	case *gmast.Blockquote:
		return one(&Node{Kind: KindBlockquote, Line: line, Children: c.children(t, line, listDepth)})

	case *gmast.ThematicBreak:
		return one(&Node{Kind: KindThematicBreak, Line: line})

	case *gmast.FencedCodeBlock:
		cb := &Node{Kind: KindCodeBlock, Line: line, Content: c.lines(t)}
		if lang := t.Language(c.src); len(lang) > 0 {
			cb.SetAttr(AttrLang, string(lang))
		}
		return one(cb)

	case *gmast.CodeBlock:
		return one(&Node{Kind: KindCodeBlock, Line: line, Content: c.lines(t)})

	case *gmast.HTMLBlock:
		content := c.lines(t)
		if t.HasClosure() {
			content += string(t.ClosureLine.Value(c.src))
		}
		return one(&Node{Kind: KindRawHTML, Line: line, Content: content})

	case *east.Table:
		tbl := &Node{Kind: KindTable, Line: line}
		for row := t.FirstChild(); row != nil; row = row.NextSibling() {
			tbl.Append(c.tableRow(row, t.Alignments, line))
		}
		return one(tbl)

	case *gmast.Text:
		txt := &Node{Kind: KindText, Line: line, Content: string(t.Value(c.src))}
		switch {
		case t.HardLineBreak():
			txt.SetAttr(AttrBreak, "hard")
		case t.SoftLineBreak():
			txt.Content += "\n"
		}
		return one(txt)

	case *gmast.String:
		return one(&Node{Kind: KindText, Line: line, Content: string(t.Value)})

	case *gmast.CodeSpan:
		return one(&Node{Kind: KindInlineCode, Line: line, Content: c.inlineText(t)})

	case *gmast.Emphasis:
		kind := KindEmphasis
		if t.Level >= 2 {
			kind = KindStrong
		}
		return one(&Node{Kind: kind, Line: line, Children: c.children(t, line, listDepth)})

	case *gmast.Link:
		ln := &Node{Kind: KindLink, Line: line, Children: c.children(t, line, listDepth)}
		ln.SetAttr(AttrHref, string(t.Destination))
		if len(t.Title) > 0 {
			ln.SetAttr(AttrTitle, string(t.Title))
		}
		return one(ln)

	case *gmast.AutoLink:
		label := string(t.Label(c.src))
		href := string(t.URL(c.src))
		if t.AutoLinkType == gmast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			href = "mailto:" + href
		}
		ln := &Node{Kind: KindLink, Line: line, Children: []*Node{{Kind: KindText, Line: line, Content: label}}}
		ln.SetAttr(AttrHref, href)
		return one(ln)

	case *gmast.Image:
		img := &Node{Kind: KindImage, Line: line}
		img.SetAttr(AttrSrc, string(t.Destination))
		img.SetAttr(AttrAlt, c.inlineText(t))
		if len(t.Title) > 0 {
			img.SetAttr(AttrTitle, string(t.Title))
		}
		return one(img)

	case *gmast.RawHTML:
		var b bytes.Buffer
		for i := 0; i < t.Segments.Len(); i++ {
			seg := t.Segments.At(i)
			b.Write(seg.Value(c.src))
		}
		return one(&Node{Kind: KindRawHTML, Line: line, Content: b.String()})

	default:
		return c.children(n, line, listDepth)
	}
}

func (c *converter) tableRow(row gmast.Node, aligns []east.Alignment, line int) *Node {
	rowLine := c.lineOf(row, line)
	r := &Node{Kind: KindTableRow, Line: rowLine}
	if _, ok := row.(*east.TableHeader); ok {
		r.SetAttr(AttrHeader, "true")
	}
	i := 0
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		tc := &Node{Kind: KindTableCell, Line: rowLine, Children: c.children(cell, rowLine, 0)}
		align := east.AlignNone
		if cellNode, ok := cell.(*east.TableCell); ok {
			align = cellNode.Alignment
		} else if i < len(aligns) {
			align = aligns[i]
		}
		if align != east.AlignNone {
			tc.SetAttr(AttrAlign, align.String())
		}
		r.Append(tc)
		i++
	}
	return r
}

func (c *converter) lines(n gmast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.src))
	}
	return b.String()
}

// inlineText concatenates the text leaves below n.
func (c *converter) inlineText(n gmast.Node) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(ch gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := ch.(type) {
		case *gmast.Text:
			b.Write(t.Value(c.src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return b.String()
}

func attrString(v any) string {
	switch s := v.(type) {
	case []byte:
		return string(s)
	case string:
		return s
	default:
		return ""
	}
}
