// Package datetoken finds inline date tokens of the form
// "+{ [label :] datetime }" in text and turns them into styling and
// replacement annotations for a live-rendering view.
package datetoken

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Grammar selects the token syntax accepted inside "+{...}".
type Grammar int

const (
	// Basic accepts any text as the date expression and parses it
	// permissively.
	Basic Grammar = iota
	// Strict requires a YYYY-MM-DDThh:mm:ss±hh:mm literal.
	Strict
)

// ParseGrammar maps a configuration value to a Grammar.
func ParseGrammar(s string) (Grammar, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "basic":
		return Basic, nil
	case "strict":
		return Strict, nil
	}
	return Basic, fmt.Errorf("datetoken: unknown grammar %q", s)
}

func (g Grammar) String() string {
	if g == Strict {
		return "strict"
	}
	return "basic"
}

// Field identifies one sub-part of a token.
type Field int

const (
	FieldOpen Field = iota
	FieldLeading
	FieldLabel
	FieldLabelSep
	FieldDate
	FieldSeparator
	FieldTime
	FieldZone
	FieldTrailing
	FieldClose
)

// The label may not contain a colon or a brace, so a label never reaches
// into a neighbouring token.
const labelPattern = `(?:([^\d:{}][^:{}]*?)(\s*:\s*))?`

var (
	basicRe = regexp.MustCompile(`(\+\{)(\s*)` + labelPattern + `([^}]+?)(\s*)(\})`)
	strictRe = regexp.MustCompile(`(\+\{)(\s*)` + labelPattern +
		`(\d{4}-\d{2}-\d{2})(T)(\d{2}:\d{2}:\d{2})([+-]\d{2}:\d{2})(\s*)(\})`)

	basicFields  = []Field{FieldOpen, FieldLeading, FieldLabel, FieldLabelSep, FieldDate, FieldTrailing, FieldClose}
	strictFields = []Field{FieldOpen, FieldLeading, FieldLabel, FieldLabelSep, FieldDate, FieldSeparator, FieldTime, FieldZone, FieldTrailing, FieldClose}
)

func (g Grammar) regexp() *regexp.Regexp {
	if g == Strict {
		return strictRe
	}
	return basicRe
}

// fields lists the sub-part carried by each capture group, in group order.
func (g Grammar) fields() []Field {
	if g == Strict {
		return strictFields
	}
	return basicFields
}

// parse turns the matched date text into a time. Basic expressions are
// parsed permissively in loc; strict ones carry their own offset.
func (g Grammar) parse(m Match, loc *time.Location) (time.Time, bool) {
	if g == Strict {
		t, err := time.Parse(time.RFC3339, m.Text(FieldDate)+m.Text(FieldSeparator)+m.Text(FieldTime)+m.Text(FieldZone))
		return t, err == nil
	}
	t, err := cast.StringToDateInDefaultLocation(strings.TrimSpace(m.Text(FieldDate)), loc)
	return t, err == nil
}
