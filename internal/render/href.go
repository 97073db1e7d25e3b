package render

import (
	"net/url"

	"git.home.luguber.info/inful/pagebuilder/internal/docs"
)

// PageHref maps a relative link to a source document onto its rendered page,
// keeping query and fragment. Other hrefs are returned unchanged.
func PageHref(href string) string {
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return href
	}
	p, ok := docs.PagePath(u.Path)
	if !ok || p == u.Path {
		return href
	}
	u.Path = p
	return u.String()
}
