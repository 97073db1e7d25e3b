// Package frontmatter splits and decodes the YAML block at the top of a source document.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Block is the raw frontmatter of a document.
type Block struct {
	Raw     []byte
	Present bool
	// BodyLine is the 1-based source line on which the body starts.
	BodyLine int
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter, the block is absent and body
// is the full input. CRLF input is accepted.
func Split(content []byte) (Block, []byte, error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return Block{BodyLine: 1}, content, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		bodyStart := start + len(open)
		return Block{Raw: []byte{}, Present: true, BodyLine: 3}, content[bodyStart:], nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter at EOF without trailing newline still counts.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(content, tail) {
			raw := content[start : len(content)-len("---")]
			return Block{Raw: raw, Present: true, BodyLine: bytes.Count(content, []byte("\n")) + 2}, []byte{}, nil
		}
		return Block{}, nil, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	bodyStart := start + idx + len(closeSeq)
	bodyLine := bytes.Count(content[:bodyStart], []byte("\n")) + 1
	return Block{Raw: content[start:end], Present: true, BodyLine: bodyLine}, content[bodyStart:], nil
}

// ParseYAML parses raw YAML frontmatter (without delimiters) into a map.
func ParseYAML(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// PageMeta is the subset of frontmatter pagebuilder understands.
type PageMeta struct {
	Title    string   `yaml:"title,omitempty"`
	PageNav  *int     `yaml:"pageNav,omitempty"` // overrides render.page_nav_max_level; 0 disables
	Layout   string   `yaml:"layout,omitempty"`
	Keywords []string `yaml:"keywords,omitempty"`
	// Fields holds every decoded key, including the ones above.
	Fields map[string]any `yaml:"-"`
}

// DecodeMeta decodes raw frontmatter into PageMeta.
func DecodeMeta(raw []byte) (PageMeta, error) {
	fields, err := ParseYAML(raw)
	if err != nil {
		return PageMeta{}, err
	}
	var meta PageMeta
	if len(fields) > 0 {
		if err := yaml.Unmarshal(raw, &meta); err != nil {
			return PageMeta{}, fmt.Errorf("decode page meta: %w", err)
		}
	}
	meta.Fields = fields
	return meta, nil
}

// LineOf extracts the 1-based line from a yaml.v3 error message, or 0.
func LineOf(err error) int {
	var line int
	msg := err.Error()
	if i := strings.Index(msg, "line "); i >= 0 {
		_, _ = fmt.Sscanf(msg[i:], "line %d", &line)
	}
	return line
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
