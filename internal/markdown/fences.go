package markdown

import (
	"bytes"
	"fmt"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// UnclosedFenceError reports a code fence opened on Line that never closes.
type UnclosedFenceError struct {
	Line  int
	Fence string
}

func (e *UnclosedFenceError) Error() string {
	return fmt.Sprintf("unmatched code fence %q opened on line %d", e.Fence, e.Line)
}

var fenceTrackerKey = parser.NewContextKey()

type fenceRecord struct {
	start  int // byte offset of the opening line in the body
	fence  string
	closed bool
}

type fenceTracker struct {
	byNode map[gmast.Node]*fenceRecord
	order  []*fenceRecord
}

func trackerFrom(pc parser.Context) *fenceTracker {
	if t, ok := pc.Get(fenceTrackerKey).(*fenceTracker); ok {
		return t
	}
	t := &fenceTracker{byNode: map[gmast.Node]*fenceRecord{}}
	pc.Set(fenceTrackerKey, t)
	return t
}

// unclosed returns the first fenced block that ran to the end of its container.
func (t *fenceTracker) unclosed() *fenceRecord {
	for _, r := range t.order {
		if !r.closed {
			return r
		}
	}
	return nil
}

// trackingFenceParser delegates to goldmark's fenced code block parser and
// records whether each block was ended by a closing fence line.
type trackingFenceParser struct {
	parser.BlockParser
}

func newTrackingFenceParser() parser.BlockParser {
	return &trackingFenceParser{BlockParser: parser.NewFencedCodeBlockParser()}
}

func (p *trackingFenceParser) Open(parent gmast.Node, reader text.Reader, pc parser.Context) (gmast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	node, state := p.BlockParser.Open(parent, reader, pc)
	if node == nil {
		return node, state
	}
	t := trackerFrom(pc)
	r := &fenceRecord{start: segment.Start, fence: fenceRun(line, pos)}
	t.byNode[node] = r
	t.order = append(t.order, r)
	return node, state
}

func (p *trackingFenceParser) Continue(node gmast.Node, reader text.Reader, pc parser.Context) parser.State {
	state := p.BlockParser.Continue(node, reader, pc)
	if state&parser.Close != 0 {
		if r, ok := trackerFrom(pc).byNode[node]; ok {
			r.closed = true
		}
	}
	return state
}

func fenceRun(line []byte, pos int) string {
	if pos < 0 || pos >= len(line) {
		return ""
	}
	n := pos
	for n < len(line) && line[n] == line[pos] {
		n++
	}
	return string(line[pos:n])
}

func lineOf(body []byte, offset int) int {
	offset = min(max(offset, 0), len(body))
	return bytes.Count(body[:offset], []byte("\n")) + 1
}
