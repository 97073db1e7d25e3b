package docmodel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

func headingIDs(doc *Document) []string {
	var ids []string
	for _, h := range doc.Root.Headings() {
		ids = append(ids, h.Attr(AttrID))
	}
	return ids
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Continuous Integration (CI)", "continuous-integration-ci"},
		{"TalentMatch-specific build tasks", "talentmatch-specific-build-tasks"},
		{"  Hello,   World!  ", "hello-world"},
		{"C++ & Go", "c-go"},
		{"snake_case_name", "snake-case-name"},
		{"Crème brûlée", "creme-brulee"},
		{"Ｆｕｌｌｗｉｄｔｈ", "fullwidth"},
		{"---", "section"},
		{"!!!", "section"},
		{"日本語", "日本語"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestBuild_DuplicateHeadingsGetSuffixes(t *testing.T) {
	doc, err := Build([]byte("# Foo\n\n## Foo\n\n## Foo-1\n\n### Foo\n"), Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"foo", "foo-1", "foo-1-1", "foo-2"}, headingIDs(doc))
	for _, id := range headingIDs(doc) {
		require.True(t, doc.HasID(id))
	}
}

func TestBuild_ExplicitIDsAreReserved(t *testing.T) {
	doc, err := Build([]byte("# Setup\n\n## Install {#setup}\n\n## Other {#setup}\n"), Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"setup-1", "setup", "setup-2"}, headingIDs(doc))
	require.Equal(t, []string{"setup", "setup-1", "setup-2"}, doc.IDs())
}

func TestBuild_IDsStableAcrossBuilds(t *testing.T) {
	src := []byte("# A\n\n## B\n\n## B\n")
	first, err := Build(src, Options{})
	require.NoError(t, err)
	second, err := Build(src, Options{})
	require.NoError(t, err)
	require.Equal(t, headingIDs(first), headingIDs(second))
}

func TestBuild_UnmatchedFenceIsParseError(t *testing.T) {
	src := []byte("---\ntitle: x\n---\n# Title\n\n```go\nfunc main() {}\n")
	_, err := Build(src, Options{Path: "docs/guide.md"})
	require.Error(t, err)

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, errors.CategoryParse, ce.Category())
	require.Equal(t, "docs/guide.md:6", ce.Location())
}

func TestBuild_ValidFencesAreNotParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"fence opened on list item line", "- ```go\n  x := 1\n  ```\n\n# After\n"},
		{"backticks in indented code", "Para\n\n    ```\n    literal\n\n# H\n"},
		{"backticks in html block", "<pre>\n```\n</pre>\n\n# H\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Build([]byte(tt.src), Options{Path: "a.md"})
			require.NoError(t, err)
			require.NotNil(t, doc)
			require.NotEmpty(t, doc.Root.Headings())
		})
	}
}

func TestBuild_FrontmatterErrors(t *testing.T) {
	_, err := Build([]byte("---\ntitle: x\n# body\n"), Options{Path: "a.md"})
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, errors.CategoryParse, ce.Category())
	require.Equal(t, "a.md:1", ce.Location())

	_, err = Build([]byte("---\ntitle: ok\nkeywords: [a\n---\nbody\n"), Options{Path: "b.md"})
	ce, ok = errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, errors.CategoryParse, ce.Category())
	line, _ := ce.Context().GetInt(errors.KeyLine)
	require.Greater(t, line, 1)
}

func TestBuild_Title(t *testing.T) {
	doc, err := Build([]byte("---\ntitle: From Meta\n---\n# Heading\n"), Options{Path: "x/page.md"})
	require.NoError(t, err)
	require.Equal(t, "From Meta", doc.Title)

	doc, err = Build([]byte("## Sub\n\n# The *Title*\n"), Options{Path: "x/page.md"})
	require.NoError(t, err)
	require.Equal(t, "The Title", doc.Title)

	doc, err = Build([]byte("plain\n"), Options{Path: "x/page.md"})
	require.NoError(t, err)
	require.Equal(t, "page", doc.Title)
}

func TestBuild_EmptyDocument(t *testing.T) {
	doc, err := Build(nil, Options{})
	require.NoError(t, err)
	require.Equal(t, KindDocument, doc.Root.Kind)
	require.Empty(t, doc.Root.Children)
	require.Empty(t, doc.IDs())
}

func TestBuild_NodeShapes(t *testing.T) {
	src := "---\ntitle: t\n---\n" +
		"# Build `tasks`\n" +
		"\n" +
		"Run **gradle** and see [docs](#build-tasks \"Docs\").\n" +
		"\n" +
		"1. one\n" +
		"   - nested\n" +
		"2. two\n" +
		"\n" +
		"| Task | Notes |\n" +
		"|:-----|------:|\n" +
		"| lint | fast  |\n" +
		"\n" +
		"```sh\n" +
		"./gradlew check\n" +
		"```\n" +
		"\n" +
		"> quoted\n" +
		"\n" +
		"---\n"
	doc, err := Build([]byte(src), Options{})
	require.NoError(t, err)

	kids := doc.Root.Children
	require.Len(t, kids, 7)

	h := kids[0]
	require.Equal(t, KindHeading, h.Kind)
	require.Equal(t, 1, h.Level)
	require.Equal(t, 4, h.Line)
	require.Equal(t, "build-tasks", h.Attr(AttrID))
	require.Equal(t, KindInlineCode, h.Children[1].Kind)

	p := kids[1]
	require.Equal(t, KindParagraph, p.Kind)
	require.Equal(t, 6, p.Line)
	require.Equal(t, KindStrong, p.Children[1].Kind)
	link := p.Children[3]
	require.Equal(t, KindLink, link.Kind)
	require.Equal(t, "#build-tasks", link.Attr(AttrHref))
	require.Equal(t, "Docs", link.Attr(AttrTitle))
	require.Equal(t, 6, link.Line)

	list := kids[2]
	require.Equal(t, KindList, list.Kind)
	require.Equal(t, 1, list.Level)
	require.Equal(t, "true", list.Attr(AttrOrdered))
	require.Len(t, list.Children, 2)
	nested := list.Children[0].Children[1]
	require.Equal(t, KindList, nested.Kind)
	require.Equal(t, 2, nested.Level)
	require.Equal(t, "", nested.Attr(AttrOrdered))

	tbl := kids[3]
	require.Equal(t, KindTable, tbl.Kind)
	require.Len(t, tbl.Children, 2)
	require.Equal(t, "true", tbl.Children[0].Attr(AttrHeader))
	require.Equal(t, "left", tbl.Children[0].Children[0].Attr(AttrAlign))
	require.Equal(t, "right", tbl.Children[1].Children[1].Attr(AttrAlign))
	require.Equal(t, "lint", tbl.Children[1].Children[0].Text())

	code := kids[4]
	require.Equal(t, KindCodeBlock, code.Kind)
	require.Equal(t, "sh", code.Attr(AttrLang))
	require.Equal(t, "./gradlew check\n", code.Content)
	require.Equal(t, 16, code.Line)

	require.Equal(t, KindBlockquote, kids[5].Kind)
	require.Equal(t, KindThematicBreak, kids[6].Kind)
}

func TestBuildFile_HTMLSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.html")
	require.NoError(t, os.WriteFile(path, []byte("---\nlayout: wide\n---\n<h1>Legacy Page</h1><p>Hello <a href=\"#legacy-page\">top</a></p>"), 0o600))

	doc, err := BuildFile(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Equal(t, "Legacy Page", doc.Title)
	require.Equal(t, "wide", doc.Meta.Layout)
	require.True(t, doc.HasID("legacy-page"))
	require.Equal(t, path, doc.Source)
}

func TestBuildFile_Missing(t *testing.T) {
	_, err := BuildFile(context.Background(), filepath.Join(t.TempDir(), "nope.md"), Options{})
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestNode_WalkAndText(t *testing.T) {
	root := &Node{Kind: KindDocument, Children: []*Node{
		{Kind: KindParagraph, Children: []*Node{
			{Kind: KindText, Content: "a "},
			{Kind: KindImage, Attrs: map[string]string{AttrAlt: "pic"}},
			{Kind: KindRawHTML, Content: "<b>"},
			{Kind: KindInlineCode, Content: " x"},
		}},
	}}
	var visited []Kind
	root.Walk(func(n *Node) bool {
		visited = append(visited, n.Kind)
		return n.Kind != KindParagraph
	})
	require.Equal(t, []Kind{KindDocument, KindParagraph}, visited)
	require.Equal(t, "a pic x", root.Text())
	require.Equal(t, "", (*Node)(nil).Attr("x"))
	require.Equal(t, "heading", KindHeading.String())
	require.False(t, Kind(200).Valid())
	require.Equal(t, "kind(200)", Kind(200).String())
}
