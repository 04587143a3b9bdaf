package datetoken

// Span is a half-open byte range [From, To) of the document.
type Span struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Empty reports whether the span covers nothing.
func (s Span) Empty() bool {
	return s.To <= s.From
}

// Part is one matched sub-part of a token.
type Part struct {
	Field Field
	Span
	Text string
}

// Match is one token found in the text.
type Match struct {
	Span
	Parts []Part
}

// Text returns the text of field, or "" when the token lacks it.
func (m Match) Text(field Field) string {
	for _, p := range m.Parts {
		if p.Field == field {
			return p.Text
		}
	}
	return ""
}

// Label returns the token label, or "" when it has none.
func (m Match) Label() string {
	return m.Text(FieldLabel)
}

// Scan returns the non-overlapping tokens of text that lie in the lines
// touched by [from, to), left to right. An empty range scans the whole text.
func (g Grammar) Scan(text string, from, to int) []Match {
	from, to = lineRange(text, from, to)
	region := text[from:to]
	fields := g.fields()

	var out []Match
	for _, loc := range g.regexp().FindAllStringSubmatchIndex(region, -1) {
		m := Match{Span: Span{From: from + loc[0], To: from + loc[1]}}
		for i, field := range fields {
			start, end := loc[2+2*i], loc[3+2*i]
			if start < 0 || end <= start {
				continue
			}
			m.Parts = append(m.Parts, Part{
				Field: field,
				Span:  Span{From: from + start, To: from + end},
				Text:  region[start:end],
			})
		}
		out = append(out, m)
	}
	return out
}

// lineRange clamps [from, to) to text and widens it to whole lines so a
// token cut by the range edge is still matched whole.
func lineRange(text string, from, to int) (int, int) {
	if to <= from {
		return 0, len(text)
	}
	from = max(0, min(from, len(text)))
	to = max(from, min(to, len(text)))
	for from > 0 && text[from-1] != '\n' {
		from--
	}
	for to < len(text) && text[to] != '\n' {
		to++
	}
	return from, to
}
