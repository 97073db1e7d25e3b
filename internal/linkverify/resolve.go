package linkverify

import (
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/pagebuilder/internal/docs"
)

// Target is an in-site link destination.
type Target struct {
	// URL is the site-absolute page path, e.g. /guides/devops.html.
	URL      string
	Fragment string
}

// Resolve maps href, found on the page at fromURL, to an in-site page target.
// It reports false for external links, non-page assets and empty hrefs.
// Links to source documents are mapped to their rendered .html pages.
func Resolve(fromURL, href string) (Target, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return Target{}, false
	}
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return Target{}, false
	}

	p := u.Path
	switch {
	case p == "":
		p = fromURL
	case strings.HasPrefix(p, "/"):
		p = path.Clean(p)
	default:
		p = path.Join(path.Dir(fromURL), p)
	}
	if strings.HasSuffix(u.Path, "/") || p == "/" {
		p = path.Join(p, "index.html")
	}

	p, ok := docs.PagePath(p)
	if !ok {
		return Target{}, false
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return Target{URL: p, Fragment: u.Fragment}, true
}
