// Package page assembles rendered bodies and shared chrome into complete HTML pages.
package page

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/pagebuilder/internal/docmodel"
	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/pagebuilder/internal/nav"
	"git.home.luguber.info/inful/pagebuilder/internal/render"
)

// Page is one document prepared for assembly.
type Page struct {
	Root    *docmodel.Node
	SiteNav *nav.Site
	PageNav []*nav.Entry
	Source  string
	// Output is the slash-separated path relative to the output directory.
	Output    string
	Title     string
	SiteTitle string
	Meta      frontmatter.PageMeta
}

// URL is the site-absolute path of the page.
func (p *Page) URL() string {
	return "/" + strings.TrimPrefix(path.Clean("/"+p.Output), "/")
}

// New prepares a page from a built document. maxLevel bounds the page
// navigation; a pageNav value in the frontmatter overrides it and 0 disables it.
func New(doc *docmodel.Document, site *nav.Site, output, siteTitle string, maxLevel int) *Page {
	if doc.Meta.PageNav != nil {
		maxLevel = *doc.Meta.PageNav
	}
	var entries []*nav.Entry
	if maxLevel > 0 {
		entries = nav.Extract(doc.Root, nav.Options{MaxLevel: maxLevel})
	}
	return &Page{
		Root:      doc.Root,
		SiteNav:   site,
		PageNav:   entries,
		Source:    doc.Source,
		Output:    output,
		Title:     doc.Title,
		SiteTitle: siteTitle,
		Meta:      doc.Meta,
	}
}

// Assemble composes head, header, site navigation, body, page navigation and
// footer around body. chrome may be nil. Pages nested in the site navigation
// get a breadcrumb at the top of body.
func Assemble(p *Page, body *html.Node, chrome *Chrome) (*html.Node, error) {
	if p == nil || body == nil {
		return nil, errors.InternalError("assemble requires a page and a body").Build()
	}
	if body.Parent != nil {
		return nil, errors.InternalError("body is already attached to a tree").
			WithContext(errors.KeyFile, p.Source).
			Build()
	}
	if chrome == nil {
		chrome = &Chrome{}
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := el(atom.Html, "lang", "en")
	doc.AppendChild(root)

	head := el(atom.Head)
	head.AppendChild(el(atom.Meta, "charset", "utf-8"))
	head.AppendChild(el(atom.Meta, "content", "width=device-width, initial-scale=1", "name", "viewport"))
	if len(p.Meta.Keywords) > 0 {
		head.AppendChild(el(atom.Meta, "content", strings.Join(p.Meta.Keywords, ", "), "name", "keywords"))
	}
	title := el(atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: p.documentTitle()})
	head.AppendChild(title)
	appendClones(head, chrome.Head)
	root.AppendChild(head)

	bodyEl := el(atom.Body)
	if p.Meta.Layout != "" {
		bodyEl.Attr = append(bodyEl.Attr, html.Attribute{Key: "class", Val: "layout-" + p.Meta.Layout})
	}
	app := el(atom.Div, "id", "app")
	appendClones(app, chrome.Header)

	flex := el(atom.Div, "id", "flex-body")
	if siteNav := render.RenderSiteNav(p.SiteNav, p.URL()); siteNav != nil {
		wrap := el(atom.Nav, "id", "site-nav")
		wrap.AppendChild(siteNav)
		flex.AppendChild(wrap)
	}
	if crumb := render.RenderBreadcrumb(p.SiteNav.Trail(p.URL())); crumb != nil {
		body.InsertBefore(crumb, body.FirstChild)
	}
	flex.AppendChild(body)
	if pageNav := render.RenderPageNav(p.PageNav); pageNav != nil {
		wrap := el(atom.Nav, "id", "page-nav")
		wrap.AppendChild(pageNav)
		flex.AppendChild(wrap)
	}
	app.AppendChild(flex)
	appendClones(app, chrome.Footer)

	bodyEl.AppendChild(app)
	root.AppendChild(bodyEl)
	return doc, nil
}

func (p *Page) documentTitle() string {
	switch {
	case p.Title == "":
		return p.SiteTitle
	case p.SiteTitle == "" || p.SiteTitle == p.Title:
		return p.Title
	default:
		return p.Title + " - " + p.SiteTitle
	}
}

// Serialize renders an assembled document, doctype included.
func Serialize(doc *html.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("serialize page: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// el builds an element from key/value pairs given in sorted key order.
func el(a atom.Atom, kv ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return n
}
