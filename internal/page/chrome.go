package page

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// DefaultFooter is used when no footer fragment is configured.
const DefaultFooter = `<footer><div class="text-center"><small>Powered by pagebuilder, generated on {{generated}}</small></div></footer>`

// Vars are substituted into chrome fragments when they are loaded.
type Vars struct {
	Title     string
	Generated string
	Revision  string
}

func (v Vars) replacer() *strings.Replacer {
	return strings.NewReplacer(
		"{{title}}", html.EscapeString(v.Title),
		"{{generated}}", html.EscapeString(v.Generated),
		"{{revision}}", html.EscapeString(v.Revision),
	)
}

// Chrome holds the pre-rendered fragments placed around every page body. It is
// built once per batch and only read afterwards; Assemble clones what it uses.
type Chrome struct {
	Head   []*html.Node
	Header []*html.Node
	Footer []*html.Node
}

// ParseChrome parses fragment sources after placeholder substitution.
func ParseChrome(head, header, footer string, vars Vars) (*Chrome, error) {
	r := vars.replacer()
	var c Chrome
	var err error
	if c.Head, err = parseFragment(r.Replace(head), atom.Head); err != nil {
		return nil, fmt.Errorf("head fragment: %w", err)
	}
	if c.Header, err = parseFragment(r.Replace(header), atom.Body); err != nil {
		return nil, fmt.Errorf("header fragment: %w", err)
	}
	if c.Footer, err = parseFragment(r.Replace(footer), atom.Body); err != nil {
		return nil, fmt.Errorf("footer fragment: %w", err)
	}
	return &c, nil
}

// LoadChrome reads the configured fragment files. Relative paths resolve
// against baseDir. A missing footer setting falls back to DefaultFooter.
func LoadChrome(cfg config.ChromeConfig, baseDir string, vars Vars) (*Chrome, error) {
	read := func(name, path string) (string, error) {
		if path == "" {
			return "", nil
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		// #nosec G304 -- chrome paths come from the site configuration.
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.WrapError(err, errors.CategoryConfig, "failed to read chrome fragment").
				WithContext("fragment", name).
				WithContext(errors.KeyPath, path).
				Build()
		}
		return string(data), nil
	}

	head, err := read("head", cfg.Head)
	if err != nil {
		return nil, err
	}
	header, err := read("header", cfg.Header)
	if err != nil {
		return nil, err
	}
	footer := DefaultFooter
	if cfg.Footer != "" {
		if footer, err = read("footer", cfg.Footer); err != nil {
			return nil, err
		}
	}

	chrome, err := ParseChrome(head, header, footer, vars)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid chrome fragment").Build()
	}
	return chrome, nil
}

func parseFragment(src string, context atom.Atom) ([]*html.Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	ctx := &html.Node{Type: html.ElementNode, DataAtom: context, Data: context.String()}
	return html.ParseFragment(strings.NewReader(src), ctx)
}

// cloneTree deep-copies n without parent or sibling links.
func cloneTree(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(cloneTree(ch))
	}
	return c
}

func appendClones(parent *html.Node, nodes []*html.Node) {
	for _, n := range nodes {
		parent.AppendChild(cloneTree(n))
	}
}
