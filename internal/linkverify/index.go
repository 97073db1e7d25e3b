package linkverify

import (
	"sort"
	"sync"

	"git.home.luguber.info/inful/pagebuilder/internal/util/sets"
)

// Index records the heading ids of every page in a batch. Pages are added while
// documents are built; lookups happen once building is complete.
type Index struct {
	mu    sync.RWMutex
	pages map[string]sets.Set[string]
}

func NewIndex() *Index {
	return &Index{pages: make(map[string]sets.Set[string])}
}

// Add registers the page at url with its anchor ids.
func (ix *Index) Add(url string, ids []string) {
	set := sets.New(ids...)
	ix.mu.Lock()
	ix.pages[url] = set
	ix.mu.Unlock()
}

// HasPage reports whether url is part of the batch.
func (ix *Index) HasPage(url string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.pages[url]
	return ok
}

// HasAnchor reports whether the page at url defines id.
func (ix *Index) HasAnchor(url, id string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.pages[url].Has(id)
}

// Pages returns the indexed page URLs, sorted.
func (ix *Index) Pages() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.pages))
	for p := range ix.pages {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
