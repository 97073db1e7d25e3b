package docs

import (
	"path"
	"strings"
)

// pageExtensions lists the document extensions that render to an .html page.
var pageExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".htm":      true,
	".html":     true,
}

// PagePath maps a slash-separated path naming a source document onto the
// .html page rendered from it. It reports false when p names no page.
func PagePath(p string) (string, bool) {
	ext := path.Ext(p)
	if !pageExtensions[strings.ToLower(ext)] {
		return p, false
	}
	return strings.TrimSuffix(p, ext) + ".html", true
}
