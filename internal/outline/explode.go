package outline

import "strings"

// Explode converts prose into a nested outline. Headings of level two and
// deeper become header items ("- @"), level-one headings are kept verbatim,
// and each paragraph becomes a paragraph-starter item ("- ~") holding its
// first sentence with the remaining sentences nested one level below it.
func Explode(text string) string {
	var out []string
	indent := 0

	for _, line := range lineRunRe.Split(text, -1) {
		switch {
		case listableHeadingRe.MatchString(line):
			heading := strings.TrimSpace(listableHeadingRe.ReplaceAllString(line, ""))
			indent = len(headingLengthRe.FindString(line)) - 2
			out = append(out, tabs(indent)+"- @ "+heading)
			indent++

		case headingRe.MatchString(line):
			if len(out) > 0 {
				out = append(out, "\n"+line+"\n")
			} else {
				out = append(out, line+"\n")
			}

		default:
			sentences := SplitSentences(line)
			if len(sentences) == 0 {
				continue
			}
			for i, sent := range sentences {
				if i == 0 {
					out = append(out, tabs(indent)+"- ~ "+sent)
					indent++
					continue
				}
				out = append(out, tabs(indent)+"- "+sent)
			}
			indent--
		}
	}

	return strings.Join(out, "\n")
}

func tabs(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("\t", n)
}
