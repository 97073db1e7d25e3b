package nav

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/docmodel"
)

func build(t *testing.T, src string) *docmodel.Node {
	t.Helper()
	doc, err := docmodel.Build([]byte(src), docmodel.Options{})
	require.NoError(t, err)
	return doc.Root
}

func TestExtract_NestsByLevel(t *testing.T) {
	root := build(t, "# A\n\n## B\n\n## C\n\n### D\n")

	got := Extract(root, Options{})
	want := []*Entry{{
		Title: "A", Target: "#a", Level: 1, Depth: 1,
		Children: []*Entry{
			{Title: "B", Target: "#b", Level: 2, Depth: 2},
			{Title: "C", Target: "#c", Level: 2, Depth: 2, Children: []*Entry{
				{Title: "D", Target: "#d", Level: 3, Depth: 3},
			}},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_SkippedLevelsNestWithoutPlaceholders(t *testing.T) {
	root := build(t, "# A\n\n### Deep\n\n## Mid\n")

	got := Extract(root, Options{})
	require.Len(t, got, 1)
	require.Len(t, got[0].Children, 2)
	require.Equal(t, "Deep", got[0].Children[0].Title)
	require.Equal(t, 2, got[0].Children[0].Depth)
	require.Equal(t, 3, got[0].Children[0].Level)
	require.Equal(t, "Mid", got[0].Children[1].Title)
}

func TestExtract_LeadingDeepHeadingsAreRoots(t *testing.T) {
	got := Extract(build(t, "### Intro\n\n## Part\n\n# Top\n"), Options{})
	require.Len(t, got, 3)
	for _, e := range got {
		require.Equal(t, 1, e.Depth)
		require.Empty(t, e.Children)
	}
}

func TestExtract_MaxLevel(t *testing.T) {
	root := build(t, "# A\n\n## B\n\n### C\n\n#### Adding new checks\n\n## E\n")

	got := Extract(root, Options{MaxLevel: 3})
	require.Equal(t, 4, Count(got))
	require.Equal(t, []string{"a", "b", "c", "e"}, Anchors(got))

	require.Equal(t, 5, Count(Extract(root, Options{})))
}

func TestExtract_EmptyDocument(t *testing.T) {
	require.Empty(t, Extract(build(t, ""), Options{}))
}

func TestEntries_MatchesExtractPreOrder(t *testing.T) {
	root := build(t, "# A\n\n## B\n\n## C\n\n### D\n")

	var titles []string
	var depths []int
	for e := range Entries(root, Options{}) {
		require.Nil(t, e.Children)
		titles = append(titles, e.Title)
		depths = append(depths, e.Depth)
	}
	require.Equal(t, []string{"A", "B", "C", "D"}, titles)
	require.Equal(t, []int{1, 2, 2, 3}, depths)

	// Ranging again recomputes from the tree.
	n := 0
	for range Entries(root, Options{}) {
		n++
	}
	require.Equal(t, 4, n)
}

func TestEntries_EarlyStop(t *testing.T) {
	root := build(t, "# A\n\n## B\n\n## C\n")
	var seen []string
	for e := range Entries(root, Options{}) {
		seen = append(seen, e.Title)
		if len(seen) == 2 {
			break
		}
	}
	require.Equal(t, []string{"A", "B"}, seen)
}

func TestSite(t *testing.T) {
	site := NewSite([]config.NavItem{
		{Title: "Home", Href: "/index.html"},
		{Title: "Guides", Children: []config.NavItem{
			{Title: "DevOps", Href: "/guides/devops.html"},
		}},
	})

	require.Equal(t, []string{"/index.html", "/guides/devops.html"}, site.Targets())
	require.Equal(t, []string{"Guides", "DevOps"}, site.Trail("/guides/devops.html"))
	require.Equal(t, []string{"Home"}, site.Trail("/index.html"))
	require.Nil(t, site.Trail("/missing.html"))
	require.Nil(t, site.Trail(""))

	roots := site.Roots()
	require.Equal(t, 2, roots[1].Children[0].Depth)
	roots[1].Children[0].Title = "mutated"
	require.Equal(t, "DevOps", site.Roots()[1].Children[0].Title)

	var nilSite *Site
	require.Nil(t, nilSite.Trail("/index.html"))
	require.Nil(t, nilSite.Roots())
}
