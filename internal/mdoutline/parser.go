// Package mdoutline reports the list items of a Markdown document in the
// form the outline engines consume.
package mdoutline

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/starford/explode/internal/outline"
)

// Parser implements outline.Provider with goldmark. It is stateless and safe
// for concurrent use.
type Parser struct {
	md goldmark.Markdown
}

var _ outline.Provider = (*Parser)(nil)

// NewParser returns a Parser using CommonMark list rules.
func NewParser() *Parser {
	return &Parser{md: goldmark.New()}
}

// Outline parses text and returns its list items in document order. Items
// that carry no text are skipped. The file identity is not needed to parse.
func (p *Parser) Outline(_ string, src string) (outline.Snapshot, error) {
	source := []byte(src)
	doc := p.md.Parser().Parse(text.NewReader(source))

	var items outline.Snapshot
	lines := make(map[ast.Node]int)

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		li, ok := n.(*ast.ListItem)
		if !ok {
			return ast.WalkContinue, nil
		}
		item, ok := listItem(li, source)
		if !ok {
			return ast.WalkContinue, nil
		}
		if parent := parentItem(li); parent != nil {
			if line, ok := lines[parent]; ok {
				item.ParentLine = line
			}
		}
		lines[li] = item.Line
		items = append(items, item)
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("mdoutline: walk: %w", err)
	}
	return items, nil
}

// listItem locates the bullet and the item's own text. goldmark keeps source
// segments on leaf blocks only, so the span is derived from the item's
// non-list children.
func listItem(li *ast.ListItem, source []byte) (outline.ListItem, bool) {
	contentStart, contentEnd := -1, -1
	for c := li.FirstChild(); c != nil; c = c.NextSibling() {
		if _, nested := c.(*ast.List); nested {
			continue
		}
		segs := c.Lines()
		if segs == nil || segs.Len() == 0 {
			continue
		}
		if contentStart < 0 {
			contentStart = segs.At(0).Start
		}
		contentEnd = segs.At(segs.Len() - 1).Stop
	}
	if contentStart < 0 {
		return outline.ListItem{}, false
	}

	lineStart := bytes.LastIndexByte(source[:contentStart], '\n') + 1
	start := markerStart(source, lineStart, contentStart)
	end := trimRight(source, start, contentEnd)

	return outline.ListItem{
		StartOffset: start,
		EndOffset:   end,
		StartColumn: start - lineStart,
		Line:        bytes.Count(source[:lineStart], []byte{'\n'}),
		ParentLine:  outline.NoParent,
	}, true
}

// markerStart walks back from the item content over the gap and the bullet
// (or ordered-list number) to the first byte of the marker.
func markerStart(source []byte, lineStart, contentStart int) int {
	i := contentStart
	for i > lineStart && isBlank(source[i-1]) {
		i--
	}
	switch {
	case i > lineStart && bytes.IndexByte([]byte("-*+"), source[i-1]) >= 0:
		return i - 1
	case i > lineStart && (source[i-1] == '.' || source[i-1] == ')'):
		j := i - 1
		for j > lineStart && source[j-1] >= '0' && source[j-1] <= '9' {
			j--
		}
		if j < i-1 {
			return j
		}
	}

	// Not on the marker line; fall back to the first non-blank byte.
	j := lineStart
	for j < contentStart && isBlank(source[j]) {
		j++
	}
	return j
}

func trimRight(source []byte, start, end int) int {
	end = min(end, len(source))
	for end > start && (isBlank(source[end-1]) || source[end-1] == '\n' || source[end-1] == '\r') {
		end--
	}
	return end
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}

func parentItem(li *ast.ListItem) *ast.ListItem {
	list := li.Parent()
	if list == nil {
		return nil
	}
	parent, _ := list.Parent().(*ast.ListItem)
	return parent
}
