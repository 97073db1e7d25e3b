package nav

import (
	"strings"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
)

// Site is the site-wide navigation tree. It is immutable after NewSite and
// safe for concurrent use by page builds.
type Site struct {
	roots []*Entry
}

// NewSite copies the configured navigation items.
func NewSite(items []config.NavItem) *Site {
	return &Site{roots: fromConfig(items, 1)}
}

func fromConfig(items []config.NavItem, depth int) []*Entry {
	if len(items) == 0 {
		return nil
	}
	out := make([]*Entry, 0, len(items))
	for _, it := range items {
		out = append(out, &Entry{
			Title:    strings.TrimSpace(it.Title),
			Target:   it.Href,
			Depth:    depth,
			Children: fromConfig(it.Children, depth+1),
		})
	}
	return out
}

// Roots returns a deep copy of the tree.
func (s *Site) Roots() []*Entry {
	if s == nil {
		return nil
	}
	return cloneEntries(s.roots)
}

// Targets lists every non-empty target, in pre-order.
func (s *Site) Targets() []string {
	if s == nil {
		return nil
	}
	var out []string
	var visit func([]*Entry)
	visit = func(es []*Entry) {
		for _, e := range es {
			if e.Target != "" {
				out = append(out, e.Target)
			}
			visit(e.Children)
		}
	}
	visit(s.roots)
	return out
}

// Trail returns the titles leading to the entry whose target equals current,
// or nil when no entry matches.
func (s *Site) Trail(current string) []string {
	if s == nil || current == "" {
		return nil
	}
	var find func([]*Entry, []string) []string
	find = func(es []*Entry, path []string) []string {
		for _, e := range es {
			p := append(append([]string(nil), path...), e.Title)
			if e.Target == current {
				return p
			}
			if found := find(e.Children, p); found != nil {
				return found
			}
		}
		return nil
	}
	return find(s.roots, nil)
}

func cloneEntries(es []*Entry) []*Entry {
	if es == nil {
		return nil
	}
	out := make([]*Entry, len(es))
	for i, e := range es {
		c := *e
		c.Children = cloneEntries(e.Children)
		out[i] = &c
	}
	return out
}
