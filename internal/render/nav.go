package render

import (
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/pagebuilder/internal/nav"
)

const (
	PageNavID         = "mb-page-nav"
	BreadcrumbID      = "breadcrumb"
	classPageNav      = "nav nav-pills flex-column my-0 small no-flex-wrap"
	classPageNavChild = "nav nav-pills flex-column my-0 nested no-flex-wrap"
	classPageNavLink  = "nav-link py-1"

	classSiteNavRoot    = "site-nav-list site-nav-list-root"
	classSiteNavNested  = "site-nav-dropdown-container site-nav-list"
	classSiteNavOpen    = "site-nav-dropdown-container site-nav-dropdown-container-open site-nav-list"
	classSiteNavItem    = "site-nav-default-list-item site-nav-list-item-"
	classSiteNavCurrent = "current"
)

// RenderPageNav renders the page table of contents. It returns nil when there
// are no entries.
func RenderPageNav(entries []*nav.Entry) *html.Node {
	if len(entries) == 0 {
		return nil
	}
	root := element(atom.Nav, map[string]string{"class": classPageNav, "id": PageNavID})
	appendPageNav(root, entries)
	return root
}

func appendPageNav(parent *html.Node, entries []*nav.Entry) {
	for _, e := range entries {
		a := element(atom.A, map[string]string{"class": classPageNavLink, "href": e.Target})
		a.AppendChild(text(e.Title))
		parent.AppendChild(a)
		if len(e.Children) > 0 {
			child := element(atom.Nav, map[string]string{"class": classPageNavChild})
			appendPageNav(child, e.Children)
			parent.AppendChild(child)
		}
	}
}

// RenderSiteNav renders the site navigation as nested lists. The entry whose
// target equals current is marked, and its ancestors' lists are rendered open.
func RenderSiteNav(site *nav.Site, current string) *html.Node {
	roots := site.Roots()
	if len(roots) == 0 {
		return nil
	}
	ul := element(atom.Ul, map[string]string{"class": classSiteNavRoot})
	appendSiteNav(ul, roots, current)
	return ul
}

// appendSiteNav reports whether current was found below entries.
func appendSiteNav(parent *html.Node, entries []*nav.Entry, current string) bool {
	found := false
	for _, e := range entries {
		li := element(atom.Li, nil)
		item := element(atom.Div, map[string]string{"class": classSiteNavItem + strconv.Itoa(e.Depth-1)})
		isCurrent := current != "" && e.Target == current
		var label *html.Node
		if e.Target != "" {
			attrs := map[string]string{"href": e.Target}
			if isCurrent {
				attrs["class"] = classSiteNavCurrent
			}
			label = element(atom.A, attrs)
		} else {
			label = element(atom.Span, nil)
		}
		label.AppendChild(text(e.Title))
		item.AppendChild(label)
		li.AppendChild(item)

		if len(e.Children) > 0 {
			sub := element(atom.Ul, nil)
			open := appendSiteNav(sub, e.Children, current)
			class := classSiteNavNested
			if open {
				class = classSiteNavOpen
			}
			sub.Attr = append(sub.Attr, html.Attribute{Key: "class", Val: class})
			li.AppendChild(sub)
			isCurrent = isCurrent || open
		}
		found = found || isCurrent
		parent.AppendChild(li)
	}
	return found
}

// RenderBreadcrumb renders the site nav trail leading to a page. It returns
// nil for trails shorter than two entries.
func RenderBreadcrumb(trail []string) *html.Node {
	if len(trail) < 2 {
		return nil
	}
	root := element(atom.Nav, map[string]string{"aria-label": "breadcrumb", "id": BreadcrumbID})
	ol := element(atom.Ol, map[string]string{"class": "breadcrumb"})
	for i, title := range trail {
		attrs := map[string]string{"class": "breadcrumb-item"}
		if i == len(trail)-1 {
			attrs["class"] = "breadcrumb-item active"
			attrs["aria-current"] = "page"
		}
		li := element(atom.Li, attrs)
		li.AppendChild(text(title))
		ol.AppendChild(li)
	}
	root.AppendChild(ol)
	return root
}
