package outline

import (
	"math"
	"strings"
)

// unset stands in for "no value yet" in the implode counters; it compares
// lower than every line number and every top-level sentinel.
const unset = math.MinInt

// Implode converts a nested outline back into prose using the document's
// list items. Header items become "#" headings whose depth follows the
// nesting of their parents; runs of body items become paragraphs. Text that
// lies between list items is copied through unchanged. A document without
// list items is returned as is.
func Implode(text string, items Snapshot) string {
	if len(items) == 0 {
		return text
	}

	s := newImplodeState(text)
	for _, item := range items {
		s.step(item)
	}
	s.flush(nil)

	return blankRunRe.ReplaceAllString(s.compiled.String(), "\n\n")
}

// implodeState is the accumulator threaded through the item fold.
type implodeState struct {
	text     string
	compiled strings.Builder
	stack    []string

	headerLevel      int
	lastHeaderParent int
	// paraParent is the parent line shared by items of the current paragraph.
	paraParent int
	// listEnd is the offset just past the last consumed item.
	listEnd int
}

func newImplodeState(text string) *implodeState {
	return &implodeState{
		text:             text,
		headerLevel:      1,
		lastHeaderParent: unset,
		paraParent:       unset,
	}
}

func (s *implodeState) step(item ListItem) {
	raw := s.slice(item.StartOffset, item.EndOffset)

	if IsHeaderItem(raw) {
		s.flush(&item)
		s.enterHeader(item)
		s.compiled.WriteString(strings.Repeat("#", s.headerLevel))
		s.compiled.WriteByte(' ')
		s.compiled.WriteString(StripMarker(raw))
		s.compiled.WriteString("\n\n")
	} else {
		switch {
		case item.ParentLine == s.paraParent:
			s.flush(&item)
		case item.TopLevel():
			s.flush(&item)
			s.paraParent = item.ParentLine
		}
		s.stack = append(s.stack, sentence(raw))
	}

	s.listEnd = item.EndOffset
}

// enterHeader moves headerLevel one step deeper or shallower depending on
// where the header's parent sits relative to the previous header's parent.
func (s *implodeState) enterHeader(item ListItem) {
	switch {
	case item.TopLevel():
		s.headerLevel = 2
	case item.ParentLine > s.lastHeaderParent:
		s.headerLevel++
	case item.ParentLine < s.lastHeaderParent:
		s.headerLevel--
	}
	if s.headerLevel < 1 {
		s.headerLevel = 1
	}
	s.lastHeaderParent = item.ParentLine
	s.paraParent = item.Line
}

// flush emits the pending paragraph and copies the verbatim text between the
// previous item and the start of next's line (or the end of the document).
func (s *implodeState) flush(next *ListItem) {
	if len(s.stack) > 0 {
		s.compiled.WriteString(strings.Join(s.stack, " "))
		s.compiled.WriteString("\n\n")
		s.stack = s.stack[:0]
	}

	end := len(s.text)
	if next != nil {
		end = next.StartOffset - next.StartColumn
	}
	s.compiled.WriteString(s.slice(s.listEnd, end))
}

// slice is a bounds-clamped substring; an inverted range is empty.
func (s *implodeState) slice(from, to int) string {
	from = clamp(from, 0, len(s.text))
	to = clamp(to, 0, len(s.text))
	if to <= from {
		return ""
	}
	return s.text[from:to]
}

func sentence(raw string) string {
	text := StripMarker(raw)
	if !EndsWithTerminal(text) {
		text += "."
	}
	return text
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
