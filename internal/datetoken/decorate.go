package datetoken

import (
	"fmt"
	"time"
)

// Style classes applied to token sub-parts.
const (
	ClassFormatting = "cm-date cm-formatting"
	ClassLabel      = "cm-date cm-date-label"
	ClassDate       = "cm-date cm-date-date"
	ClassTime       = "cm-date cm-date-time"
	ClassZone       = "cm-date cm-date-zone"
)

var fieldClass = map[Field]string{
	FieldOpen:      ClassFormatting,
	FieldLabelSep:  ClassFormatting,
	FieldClose:     ClassFormatting,
	FieldSeparator: ClassFormatting,
	FieldLabel:     ClassLabel,
	FieldDate:      ClassDate,
	FieldTime:      ClassTime,
	FieldZone:      ClassZone,
}

// Kind tells a view how to apply an annotation.
type Kind int

const (
	// Mark styles the span with Class.
	Mark Kind = iota
	// Replace hides the span behind Widget.
	Replace
)

func (k Kind) String() string {
	if k == Replace {
		return "replace"
	}
	return "mark"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "mark":
		*k = Mark
	case "replace":
		*k = Replace
	default:
		return fmt.Errorf("datetoken: unknown annotation kind %q", b)
	}
	return nil
}

// Annotation is one decoration of the document.
type Annotation struct {
	Span
	Kind   Kind    `json:"kind"`
	Class  string  `json:"class,omitempty"`
	Widget *Widget `json:"widget,omitempty"`
}

// Equal compares annotations by span, kind, class and widget identity.
func (a Annotation) Equal(b Annotation) bool {
	if a.Span != b.Span || a.Kind != b.Kind || a.Class != b.Class {
		return false
	}
	if a.Widget == nil || b.Widget == nil {
		return a.Widget == b.Widget
	}
	return a.Widget.Equal(*b.Widget)
}

// EqualSets reports whether two annotation sets are identical in order.
func EqualSets(a, b []Annotation) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ViewState is the part of a view the decorator depends on.
type ViewState struct {
	// LivePreview is true when the view renders Markdown rather than
	// showing source.
	LivePreview bool `json:"live_preview"`
	// Selection holds the selection ranges; a cursor is an empty range.
	Selection []Span `json:"selection"`
	// Viewport is the visible range. An empty viewport means the whole text.
	Viewport Span `json:"viewport"`
}

// Decorator produces annotations for one grammar.
type Decorator struct {
	grammar  Grammar
	location *time.Location
}

// Option configures a Decorator.
type Option func(*Decorator)

// WithLocation sets the zone used for basic-grammar dates without an
// explicit offset. The default is time.Local.
func WithLocation(loc *time.Location) Option {
	return func(d *Decorator) {
		if loc != nil {
			d.location = loc
		}
	}
}

// NewDecorator returns a decorator for grammar g.
func NewDecorator(g Grammar, opts ...Option) *Decorator {
	d := &Decorator{grammar: g, location: time.Local}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Grammar returns the decorator's grammar.
func (d *Decorator) Grammar() Grammar {
	return d.grammar
}

// Decorate computes the annotations for text in view state vs. A token is
// replaced by a widget in live preview unless a selection range touches it;
// otherwise its sub-parts are styled.
func (d *Decorator) Decorate(text string, vs ViewState) []Annotation {
	var out []Annotation
	for _, m := range d.grammar.Scan(text, vs.Viewport.From, vs.Viewport.To) {
		if vs.LivePreview && outsideSelection(m.Span, vs.Selection) {
			w := d.Widget(m)
			out = append(out, Annotation{Span: m.Span, Kind: Replace, Widget: &w})
			continue
		}
		for _, p := range m.Parts {
			class, ok := fieldClass[p.Field]
			if !ok {
				continue
			}
			out = append(out, Annotation{Span: p.Span, Kind: Mark, Class: class})
		}
	}
	return out
}

// Widget builds the replacement widget for m.
func (d *Decorator) Widget(m Match) Widget {
	t, ok := d.grammar.parse(m, d.location)
	return Widget{Label: m.Label(), Date: t, Valid: ok}
}

// outsideSelection reports whether every range lies clear of span: neither
// contains the other and no range endpoint falls inside span, ends included.
func outsideSelection(span Span, sel []Span) bool {
	for _, r := range sel {
		if span.From >= r.From && span.To <= r.To {
			return false
		}
		if (r.From >= span.From && r.From <= span.To) || (r.To >= span.From && r.To <= span.To) {
			return false
		}
	}
	return true
}
