package linkverify

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/pagebuilder/internal/nav"
)

// CheckFragments verifies the links found in shared chrome fragments. Chrome
// appears on every page, so relative links resolve against the site root and
// page-local "#anchor" links are skipped.
func CheckFragments(ix *Index, name string, nodes []*html.Node) []error {
	var errs []error
	for _, n := range nodes {
		doc := goquery.NewDocumentFromNode(n)
		links := doc.Filter("a[href]").AddSelection(doc.Find("a[href]"))
		links.Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			if strings.HasPrefix(href, "#") {
				return
			}
			errs = appendTargetError(errs, ix, href, name)
		})
	}
	return errs
}

// CheckSiteNav verifies every target of the site navigation.
func CheckSiteNav(ix *Index, site *nav.Site) []error {
	var errs []error
	for _, href := range site.Targets() {
		errs = appendTargetError(errs, ix, href, "site.nav")
	}
	return errs
}

func appendTargetError(errs []error, ix *Index, href, source string) []error {
	target, ok := Resolve("/index.html", href)
	if !ok {
		return errs
	}
	if err := checkTarget(ix, target, href, "", source, 0); err != nil {
		errs = append(errs, err)
	}
	return errs
}
