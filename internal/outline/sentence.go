package outline

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
)

var (
	terminalClass = runeClass(unicode.Sentence_Terminal)

	// A terminal directly after "p" or "pp" never ends a sentence. This keeps
	// page references like "p. 3" whole, and words ending in "p" as well.
	sentenceBoundaryRe = regexp2.MustCompile(`(?<!p|pp)([`+terminalClass+`]\p{P}*)`, regexp2.None)
	endsWithTerminalRe = regexp2.MustCompile(`(?:[`+terminalClass+`]\p{P}*|\]\]) *$`, regexp2.None)
)

// SplitSentences splits a paragraph line into sentences. Terminal
// punctuation stays attached to the sentence it ends; every sentence is
// trimmed and empty fragments are dropped, so joining the result with single
// spaces yields the trimmed line.
func SplitSentences(line string) []string {
	runes := []rune(line)
	var out []string
	prev := 0

	m, _ := sentenceBoundaryRe.FindStringMatch(line)
	for m != nil {
		fragment := string(runes[prev:m.Index])
		terminator := m.String()
		switch {
		case fragment != "":
			out = append(out, strings.TrimSpace(fragment)+terminator)
		case len(out) > 0:
			out[len(out)-1] += terminator
		default:
			out = append(out, terminator)
		}
		prev = m.Index + m.Length
		m, _ = sentenceBoundaryRe.FindNextMatch(m)
	}
	if tail := strings.TrimSpace(string(runes[prev:])); tail != "" {
		out = append(out, tail)
	}

	return compact(out)
}

// EndsWithTerminal reports whether s ends in sentence-terminal punctuation
// (optionally followed by closing punctuation) or a "]]" link close.
func EndsWithTerminal(s string) bool {
	ok, _ := endsWithTerminalRe.MatchString(s)
	return ok
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// runeClass renders a range table as the body of a regexp2 character class.
func runeClass(t *unicode.RangeTable) string {
	var b strings.Builder
	for _, r := range t.R16 {
		writeRange(&b, rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	for _, r := range t.R32 {
		writeRange(&b, rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	return b.String()
}

func writeRange(b *strings.Builder, lo, hi, stride rune) {
	if stride == 1 {
		b.WriteString(classRune(lo))
		if hi > lo {
			b.WriteByte('-')
			b.WriteString(classRune(hi))
		}
		return
	}
	for c := lo; c <= hi; c += stride {
		b.WriteString(classRune(c))
	}
}

func classRune(r rune) string {
	if r <= 0xFFFF {
		return fmt.Sprintf(`\u%04X`, r)
	}
	return string(r)
}
