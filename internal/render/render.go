// Package render turns a document tree into an HTML markup tree.
//
// Rendering is a pure function of its input: the same tree always yields the
// same markup, and attributes are emitted in sorted key order.
package render

import (
	"bytes"
	"fmt"
	"sort"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/pagebuilder/internal/docmodel"
	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// CSS classes applied to rendered content.
const (
	ClassAnchor      = "fa fa-anchor"
	ClassInlineCode  = "hljs inline no-lang"
	ClassCodeBlock   = "hljs"
	ClassTable       = "markbind-table table table-bordered table-striped"
	ClassTableWrap   = "table-responsive"
	ClassImage       = "img-fluid"
	ContentWrapperID = "content-wrapper"
)

// Render converts root into a <div id="content-wrapper"> holding the page body.
// It fails only when the tree contains a node kind the renderer does not know.
func Render(root *docmodel.Node) (*html.Node, error) {
	body := element(atom.Div, map[string]string{"id": ContentWrapperID})
	if root == nil {
		return body, nil
	}
	if root.Kind == docmodel.KindDocument {
		if err := renderChildren(body, root); err != nil {
			return nil, err
		}
		return body, nil
	}
	if err := renderNode(body, root); err != nil {
		return nil, err
	}
	return body, nil
}

// Serialize writes n as HTML.
func Serialize(n *html.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return nil, fmt.Errorf("serialize html: %w", err)
	}
	return buf.Bytes(), nil
}

func renderChildren(parent *html.Node, n *docmodel.Node) error {
	for _, c := range n.Children {
		if err := renderNode(parent, c); err != nil {
			return err
		}
	}
	return nil
}

// renderNode appends the markup for n to parent.
func renderNode(parent *html.Node, n *docmodel.Node) error {
	var el *html.Node
	switch n.Kind {
	case docmodel.KindDocument:
		return renderChildren(parent, n)

	case docmodel.KindHeading:
		id := n.Attr(docmodel.AttrID)
		el = element(headingAtom(n.Level), map[string]string{"id": id})
		if err := renderChildren(el, n); err != nil {
			return err
		}
		if id != "" {
			el.AppendChild(element(atom.A, map[string]string{"class": ClassAnchor, "href": "#" + id}))
		}
		parent.AppendChild(el)
		return nil

	case docmodel.KindParagraph:
		el = element(atom.P, nil)

	case docmodel.KindList:
		if n.Attr(docmodel.AttrOrdered) == "true" {
			el = element(atom.Ol, map[string]string{"start": n.Attr(docmodel.AttrStart)})
		} else {
			el = element(atom.Ul, nil)
		}

	case docmodel.KindListItem:
		el = element(atom.Li, nil)

	case docmodel.KindTable:
		return renderTable(parent, n)

	case docmodel.KindTableRow:
		return renderRow(parent, n)

	case docmodel.KindTableCell:
		return renderCell(parent, n, false)

	case docmodel.KindCodeBlock:
		class := ClassCodeBlock
		if lang := n.Attr(docmodel.AttrLang); lang != "" {
			class += " " + lang
		}
		code := element(atom.Code, map[string]string{"class": class})
		code.AppendChild(text(n.Content))
		pre := element(atom.Pre, nil)
		pre.AppendChild(code)
		parent.AppendChild(pre)
		return nil

	case docmodel.KindBlockquote:
		el = element(atom.Blockquote, nil)

	case docmodel.KindThematicBreak:
		parent.AppendChild(element(atom.Hr, nil))
		return nil

	case docmodel.KindRawHTML:
		parent.AppendChild(&html.Node{Type: html.RawNode, Data: n.Content})
		return nil

	case docmodel.KindLink:
		el = element(atom.A, map[string]string{
			"href":  PageHref(n.Attr(docmodel.AttrHref)),
			"title": n.Attr(docmodel.AttrTitle),
		})

	case docmodel.KindImage:
		parent.AppendChild(element(atom.Img, map[string]string{
			"alt":   n.Attr(docmodel.AttrAlt),
			"class": ClassImage,
			"src":   n.Attr(docmodel.AttrSrc),
			"title": n.Attr(docmodel.AttrTitle),
		}))
		return nil

	case docmodel.KindText:
		parent.AppendChild(text(n.Content))
		if n.Attr(docmodel.AttrBreak) == "hard" {
			parent.AppendChild(element(atom.Br, nil))
		}
		return nil

	case docmodel.KindInlineCode:
		code := element(atom.Code, map[string]string{"class": ClassInlineCode})
		code.AppendChild(text(n.Content))
		parent.AppendChild(code)
		return nil

	case docmodel.KindEmphasis:
		el = element(atom.Em, nil)

	case docmodel.KindStrong:
		el = element(atom.Strong, nil)

	default:
		return errors.RenderError("unknown node kind").
			WithContext(errors.KeyKind, n.Kind.String()).
			At("", n.Line).
			Build()
	}

	if err := renderChildren(el, n); err != nil {
		return err
	}
	parent.AppendChild(el)
	return nil
}

func renderTable(parent *html.Node, n *docmodel.Node) error {
	table := element(atom.Table, map[string]string{"class": ClassTable})
	var head, body *html.Node
	for _, row := range n.Children {
		section := &body
		tag := atom.Tbody
		if row.Attr(docmodel.AttrHeader) == "true" {
			section, tag = &head, atom.Thead
		}
		if *section == nil {
			*section = element(tag, nil)
		}
		if err := renderNode(*section, row); err != nil {
			return err
		}
	}
	if head != nil {
		table.AppendChild(head)
	}
	if body != nil {
		table.AppendChild(body)
	}
	wrap := element(atom.Div, map[string]string{"class": ClassTableWrap})
	wrap.AppendChild(table)
	parent.AppendChild(wrap)
	return nil
}

func renderRow(parent *html.Node, n *docmodel.Node) error {
	tr := element(atom.Tr, nil)
	header := n.Attr(docmodel.AttrHeader) == "true"
	for _, c := range n.Children {
		if c.Kind != docmodel.KindTableCell {
			if err := renderNode(tr, c); err != nil {
				return err
			}
			continue
		}
		if err := renderCell(tr, c, header); err != nil {
			return err
		}
	}
	parent.AppendChild(tr)
	return nil
}

func renderCell(parent *html.Node, n *docmodel.Node, header bool) error {
	tag := atom.Td
	if header {
		tag = atom.Th
	}
	var style string
	if align := n.Attr(docmodel.AttrAlign); align != "" {
		style = "text-align: " + align
	}
	cell := element(tag, map[string]string{"style": style})
	if err := renderChildren(cell, n); err != nil {
		return err
	}
	parent.AppendChild(cell)
	return nil
}

func headingAtom(level int) atom.Atom {
	switch level {
	case 1:
		return atom.H1
	case 2:
		return atom.H2
	case 3:
		return atom.H3
	case 4:
		return atom.H4
	case 5:
		return atom.H5
	default:
		return atom.H6
	}
}

// element creates an element node. Empty attribute values are omitted and the
// rest are stored sorted by key.
func element(a atom.Atom, attrs map[string]string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if len(attrs) == 0 {
		return n
	}
	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: attrs[k]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
