// Package linkverify checks that every in-site link and anchor referenced by a
// batch of pages resolves, and publishes the findings.
package linkverify

import (
	"git.home.luguber.info/inful/pagebuilder/internal/docmodel"
	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/nav"
)

// Context keys added to link integrity errors.
const (
	KeyHref = "href"
	KeyPage = "page"
)

// CheckPage verifies the links of one document and its page navigation.
// Each unresolved anchor yields one LinkIntegrityError; links to pages that are
// not part of the batch yield a warning.
func CheckPage(ix *Index, pageURL, source string, root *docmodel.Node, entries []*nav.Entry) []error {
	var errs []error
	root.Walk(func(n *docmodel.Node) bool {
		if n.Kind != docmodel.KindLink {
			return true
		}
		href := n.Attr(docmodel.AttrHref)
		target, ok := Resolve(pageURL, href)
		if !ok {
			return true
		}
		if err := checkTarget(ix, target, href, pageURL, source, n.Line); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	for _, anchor := range nav.Anchors(entries) {
		if !ix.HasAnchor(pageURL, anchor) {
			errs = append(errs, anchorError(anchor, "#"+anchor, pageURL, source, 0))
		}
	}
	return errs
}

func checkTarget(ix *Index, target Target, href, pageURL, source string, line int) error {
	if !ix.HasPage(target.URL) {
		return errors.NewError(errors.CategoryLinkIntegrity, "link target not found: "+target.URL).
			Warning().
			WithContext(KeyHref, href).
			WithContext(KeyPage, pageURL).
			At(source, line).
			Build()
	}
	if target.Fragment != "" && !ix.HasAnchor(target.URL, target.Fragment) {
		return anchorError(target.Fragment, href, pageURL, source, line)
	}
	return nil
}

func anchorError(anchor, href, pageURL, source string, line int) error {
	return errors.LinkIntegrityError(anchor).
		WithContext(KeyHref, href).
		WithContext(KeyPage, pageURL).
		At(source, line).
		Build()
}
