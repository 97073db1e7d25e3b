// Package nav derives navigation trees: the page-local table of contents from
// document headings, and the site-wide tree from configuration.
package nav

import (
	"iter"
	"strings"

	"git.home.luguber.info/inful/pagebuilder/internal/docmodel"
)

// Entry is one navigation item.
type Entry struct {
	Title  string
	Target string
	// Level is the heading level for page entries and 0 for site entries.
	Level int
	// Depth is the 1-based nesting depth within the tree.
	Depth    int
	Children []*Entry
}

// Options filter which headings appear in a page navigation tree.
type Options struct {
	// MaxLevel excludes headings deeper than this level. Zero means all levels.
	MaxLevel int
}

func (o Options) includes(level int) bool {
	return o.MaxLevel <= 0 || level <= o.MaxLevel
}

// frame tracks an open heading while walking.
type frame struct {
	entry *Entry
	level int
}

// walk visits included headings in order, calling visit with the entry and its
// parent (nil for roots). A heading nests under the nearest preceding heading
// with a smaller level; skipped levels produce no placeholders.
func walk(root *docmodel.Node, opts Options, visit func(e, parent *Entry) bool) {
	var stack []frame
	for _, h := range root.Headings() {
		if !opts.includes(h.Level) {
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		var parent *Entry
		if len(stack) > 0 {
			parent = stack[len(stack)-1].entry
		}
		e := &Entry{
			Title:  h.Text(),
			Target: "#" + h.Attr(docmodel.AttrID),
			Level:  h.Level,
			Depth:  len(stack) + 1,
		}
		if !visit(e, parent) {
			return
		}
		stack = append(stack, frame{entry: e, level: h.Level})
	}
}

// Extract builds the page navigation tree for a document root.
func Extract(root *docmodel.Node, opts Options) []*Entry {
	var roots []*Entry
	walk(root, opts, func(e, parent *Entry) bool {
		if parent == nil {
			roots = append(roots, e)
		} else {
			parent.Children = append(parent.Children, e)
		}
		return true
	})
	return roots
}

// Entries yields the page navigation entries in pre-order without building the
// tree. Children is always nil on yielded values; Depth carries the nesting.
// Each range over the sequence walks root again.
func Entries(root *docmodel.Node, opts Options) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		walk(root, opts, func(e, _ *Entry) bool {
			return yield(*e)
		})
	}
}

// Anchors lists the fragment ids referenced by entries, in pre-order.
func Anchors(entries []*Entry) []string {
	var out []string
	var visit func([]*Entry)
	visit = func(es []*Entry) {
		for _, e := range es {
			if id, ok := strings.CutPrefix(e.Target, "#"); ok && id != "" {
				out = append(out, id)
			}
			visit(e.Children)
		}
	}
	visit(entries)
	return out
}

// Count returns the number of entries in the tree.
func Count(entries []*Entry) int {
	n := 0
	for _, e := range entries {
		n += 1 + Count(e.Children)
	}
	return n
}
