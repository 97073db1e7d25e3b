// Package markdown wraps goldmark parsing and source preparation for pagebuilder documents.
package markdown

import (
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Options controls how Markdown is parsed.
type Options struct {
	// DisableTables turns off the GFM table extension.
	DisableTables bool
}

func newMarkdown(opts Options) goldmark.Markdown {
	var exts []goldmark.Extender
	if !opts.DisableTables {
		exts = append(exts, extension.Table)
	}
	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
			// Ahead of the default fenced code parser (700) so it opens every fence.
			parser.WithBlockParsers(util.Prioritized(newTrackingFenceParser(), 699)),
		),
	)
}

// Parse parses a Markdown body (frontmatter already removed) into a goldmark AST.
// It returns an *UnclosedFenceError, alongside the tree, for the first fenced
// code block that runs to the end of its container without a closing fence.
func Parse(body []byte, opts Options) (gmast.Node, error) {
	pc := parser.NewContext()
	root := newMarkdown(opts).Parser().Parse(text.NewReader(body), parser.WithContext(pc))
	if r := trackerFrom(pc).unclosed(); r != nil {
		return root, &UnclosedFenceError{Line: lineOf(body, r.start), Fence: r.fence}
	}
	return root, nil
}

// ParseBody parses body like Parse and ignores fence balance.
func ParseBody(body []byte, opts Options) gmast.Node {
	root, _ := Parse(body, opts)
	return root
}
