package markdown

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	gmast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

func kinds(root gmast.Node) []gmast.NodeKind {
	var out []gmast.NodeKind
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, c.Kind())
	}
	return out
}

func TestParseBody_Tables(t *testing.T) {
	src := []byte("| a | b |\n|---|---|\n| 1 | 2 |\n")

	root := ParseBody(src, Options{})
	require.Equal(t, []gmast.NodeKind{east.KindTable}, kinds(root))

	root = ParseBody(src, Options{DisableTables: true})
	require.Equal(t, []gmast.NodeKind{gmast.KindParagraph}, kinds(root))
}

func TestParseBody_HeadingAttributes(t *testing.T) {
	root := ParseBody([]byte("# Title {#custom}\n"), Options{})
	h, ok := root.FirstChild().(*gmast.Heading)
	require.True(t, ok)
	id, ok := h.AttributeString("id")
	require.True(t, ok)
	require.Equal(t, []byte("custom"), id)
}

func TestParse_Fences(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLine  int
		wantFence string
	}{
		{"balanced", "```go\nx\n```\n", 0, ""},
		{"tilde balanced", "~~~\nx\n~~~\n", 0, ""},
		{"longer close", "```\nx\n`````\n", 0, ""},
		{"shorter close does not close", "````\nx\n```\n", 1, "````"},
		{"mismatched char", "```\nx\n~~~\n", 1, "```"},
		{"second fence unclosed", "```\na\n```\n\ntext\n\n```sh\nb\n", 7, "```"},
		{"inline triple backticks are not fences", "use ```code``` inline\n", 0, ""},
		{"inside blockquote", "> ```\n> x\n", 1, "```"},
		{"closed by end of list item", "- ```\n  x\n\ntext\n", 1, "```"},
		{"indented in list", "- item\n\n  ```\n  x\n  ```\n", 0, ""},
		{"opened on list item line", "- ```go\n  x := 1\n  ```\n\n# After\n", 0, ""},
		{"inside indented code block", "Para\n\n    ```\n    literal\n\n# H\n", 0, ""},
		{"inside html block", "<pre>\n```\n</pre>\n\n# H\n", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Parse([]byte(tt.body), Options{})
			require.NotNil(t, root)
			if tt.wantLine == 0 {
				require.NoError(t, err)
				return
			}
			var fe *UnclosedFenceError
			require.True(t, errors.As(err, &fe))
			require.Equal(t, tt.wantLine, fe.Line)
			require.Equal(t, tt.wantFence, fe.Fence)
		})
	}
}

func TestFromHTML(t *testing.T) {
	md, err := FromHTML(context.Background(), []byte(`<h2>Build tasks</h2><p>Run <code>gradle check</code>.</p><table><thead><tr><th>Task</th></tr></thead><tbody><tr><td>lint</td></tr></tbody></table>`))
	require.NoError(t, err)
	out := string(md)
	require.True(t, strings.HasPrefix(out, "## Build tasks"), out)
	require.Contains(t, out, "`gradle check`")
	require.Contains(t, out, "| Task |")

	root := ParseBody(md, Options{})
	require.Equal(t, []gmast.NodeKind{gmast.KindHeading, gmast.KindParagraph, east.KindTable}, kinds(root))
}
