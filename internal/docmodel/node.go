package docmodel

import (
	"strconv"
	"strings"
)

// Kind tags a Node. The set is closed; renderers switch over it exhaustively.
type Kind uint8

const (
	KindDocument Kind = iota
	KindHeading
	KindParagraph
	KindList
	KindListItem
	KindTable
	KindTableRow
	KindTableCell
	KindCodeBlock
	KindBlockquote
	KindThematicBreak
	KindRawHTML
	KindLink
	KindImage
	KindText
	KindInlineCode
	KindEmphasis
	KindStrong

	kindCount
)

var kindNames = [...]string{
	KindDocument:      "document",
	KindHeading:       "heading",
	KindParagraph:     "paragraph",
	KindList:          "list",
	KindListItem:      "list_item",
	KindTable:         "table",
	KindTableRow:      "table_row",
	KindTableCell:     "table_cell",
	KindCodeBlock:     "code_block",
	KindBlockquote:    "blockquote",
	KindThematicBreak: "thematic_break",
	KindRawHTML:       "raw_html",
	KindLink:          "link",
	KindImage:         "image",
	KindText:          "text",
	KindInlineCode:    "inline_code",
	KindEmphasis:      "emphasis",
	KindStrong:        "strong",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool { return k < kindCount }

// Attribute keys used on nodes.
const (
	AttrID      = "id"
	AttrHref    = "href"
	AttrTitle   = "title"
	AttrSrc     = "src"
	AttrAlt     = "alt"
	AttrLang    = "lang"
	AttrOrdered = "ordered"
	AttrStart   = "start"
	AttrHeader  = "header"
	AttrAlign   = "align"
	AttrBreak   = "break"
)

// Node is one element of the document tree. A parent owns its children; there
// are no back-pointers.
type Node struct {
	Kind Kind
	// Level is the heading level (1..6) or the list nesting depth (1-based).
	Level    int
	Content  string
	Attrs    map[string]string
	Children []*Node
	// Line is the 1-based source line, 0 when unknown.
	Line int
}

// Attr returns the attribute value for key, or "".
func (n *Node) Attr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// SetAttr sets an attribute, allocating the map on first use.
func (n *Node) SetAttr(key, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string, 2)
	}
	n.Attrs[key] = value
}

// Append adds children in order.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// Walk visits n and its descendants in pre-order. Returning false from fn skips
// the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Text returns the plain text of the subtree.
func (n *Node) Text() string {
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		switch c.Kind {
		case KindText, KindInlineCode:
			b.WriteString(c.Content)
		case KindImage:
			b.WriteString(c.Attr(AttrAlt))
			return false
		case KindRawHTML:
			return false
		}
		return true
	})
	return strings.TrimSpace(strings.Join(strings.Fields(b.String()), " "))
}

// Headings returns all heading nodes in document order.
func (n *Node) Headings() []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Kind == KindHeading {
			out = append(out, c)
			return false
		}
		return true
	})
	return out
}
