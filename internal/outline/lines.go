package outline

import "github.com/dlclark/regexp2"

var (
	// A prose line (not a list item or heading) whose newline is followed by
	// more prose rather than a blank line or the end of the text.
	joinLinesRe = regexp2.MustCompile(`^([^-+*#\n\r][^\n\r]+)( *)(\n)(?!\n|$)`, regexp2.Multiline)
	// Sentence punctuation followed by spaces that do not end the line.
	splitLinesRe = regexp2.MustCompile(`([.!?])( +)(?!\n)`, regexp2.None)
)

// JoinLines joins hard-wrapped prose lines of a paragraph into one line.
func JoinLines(text string) string {
	out, err := joinLinesRe.Replace(text, "$1 ", -1, -1)
	if err != nil {
		return text
	}
	return out
}

// SplitLines breaks prose after every sentence so each sentence sits on its
// own line.
func SplitLines(text string) string {
	out, err := splitLinesRe.Replace(text, "$1\n", -1, -1)
	if err != nil {
		return text
	}
	return out
}
