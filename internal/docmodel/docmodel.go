// Package docmodel builds the typed document tree that the renderer and the
// navigation extractor consume.
//
// A Document is produced from Markdown (or HTML converted to Markdown) source.
// Headings carry stable unique ids; every node keeps its 1-based source line
// so parse and link errors can point at the author's file.
package docmodel

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	gmast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/pagebuilder/internal/markdown"
)

// Options controls document building.
type Options struct {
	// Path is the source path used in error locations and the title fallback.
	Path     string
	Markdown markdown.Options
}

// Document is a built page source.
type Document struct {
	Root   *Node
	Meta   frontmatter.PageMeta
	Title  string
	Source string

	ids idSet
}

// HasID reports whether a heading in the document carries id.
func (d *Document) HasID(id string) bool {
	_, ok := d.ids[id]
	return ok
}

// IDs returns all heading ids, sorted.
func (d *Document) IDs() []string {
	out := make([]string, 0, len(d.ids))
	for id := range d.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Build parses Markdown source into a Document.
//
// It fails with a parse-category ClassifiedError carrying file and line when the
// frontmatter block is unterminated or invalid, or when a code fence is never closed.
func Build(source []byte, opts Options) (*Document, error) {
	block, body, meta, err := splitSource(source, opts.Path)
	if err != nil {
		return nil, err
	}
	offset := block.BodyLine - 1
	root, ferr := markdown.Parse(body, opts.Markdown)
	if ferr != nil {
		line := offset
		if fe, ok := ferr.(*markdown.UnclosedFenceError); ok {
			line += fe.Line
		}
		return nil, errors.WrapError(ferr, errors.CategoryParse, "unmatched code fence").
			At(opts.Path, line).
			Build()
	}
	return assemble(root, body, meta, offset, true, opts), nil
}

// BuildFile reads path and builds it. HTML sources are converted to Markdown
// first; their node lines are left at 0 since they refer to converted text.
func BuildFile(ctx context.Context, path string, opts Options) (*Document, error) {
	// #nosec G304 -- path comes from source discovery.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read document").
			WithContext(errors.KeyPath, path).
			Build()
	}
	if opts.Path == "" {
		opts.Path = path
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		_, body, meta, err := splitSource(content, opts.Path)
		if err != nil {
			return nil, err
		}
		md, err := markdown.FromHTML(ctx, body)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryParse, "failed to convert html source").
				At(opts.Path, 0).
				Build()
		}
		return assemble(markdown.ParseBody(md, opts.Markdown), md, meta, 0, false, opts), nil
	default:
		return Build(content, opts)
	}
}

func splitSource(source []byte, path string) (frontmatter.Block, []byte, frontmatter.PageMeta, error) {
	block, body, err := frontmatter.Split(source)
	if err != nil {
		return block, nil, frontmatter.PageMeta{}, errors.WrapError(err, errors.CategoryParse, "unterminated frontmatter block").
			At(path, 1).
			Build()
	}
	meta, err := frontmatter.DecodeMeta(block.Raw)
	if err != nil {
		// Raw frontmatter starts on the line after the opening delimiter.
		line := 1
		if l := frontmatter.LineOf(err); l > 0 {
			line = l + 1
		}
		return block, nil, frontmatter.PageMeta{}, errors.WrapError(err, errors.CategoryParse, "invalid frontmatter").
			At(path, line).
			Build()
	}
	return block, body, meta, nil
}

func assemble(root gmast.Node, body []byte, meta frontmatter.PageMeta, lineOffset int, trackLines bool, opts Options) *Document {
	c := newConverter(body, lineOffset, trackLines)
	doc := &Document{
		Root:   c.convert(root),
		Meta:   meta,
		Source: opts.Path,
	}
	doc.ids = assignHeadingIDs(doc.Root, c.explicitIDs)
	doc.Title = pageTitle(doc, opts.Path)
	return doc
}

// assignHeadingIDs reserves explicit ids first, then derives the rest in
// document order. Repeats of a taken id get the next free numeric suffix.
func assignHeadingIDs(root *Node, explicit map[*Node]bool) idSet {
	ids := idSet{}
	headings := root.Headings()
	kept := make(map[*Node]bool, len(explicit))
	for _, h := range headings {
		if explicit[h] && ids.reserve(h.Attr(AttrID), h.Line) {
			kept[h] = true
		}
	}
	for _, h := range headings {
		switch {
		case kept[h]:
		case explicit[h]:
			h.SetAttr(AttrID, ids.unique(h.Attr(AttrID), h.Line))
		default:
			h.SetAttr(AttrID, ids.unique(Slugify(h.Text()), h.Line))
		}
	}
	return ids
}

func pageTitle(doc *Document, path string) string {
	if t := strings.TrimSpace(doc.Meta.Title); t != "" {
		return t
	}
	for _, h := range doc.Root.Headings() {
		if h.Level == 1 {
			if t := h.Text(); t != "" {
				return t
			}
		}
	}
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
