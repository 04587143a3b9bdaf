package outline

import (
	"regexp"
	"strings"
)

// Role markers written right after the bullet.
const (
	MarkerHeader    = '@'
	MarkerParagraph = '~'
)

// CalloutMarkers are reserved role characters that are stripped but carry no
// meaning for explode/implode.
const CalloutMarkers = "&?!→%^|"

var (
	listHeaderRe  = regexp.MustCompile(`^[ \t]*[-*+] @ +`)
	listCalloutRe = regexp.MustCompile(`^[ \t]*[-*+](?: [@~` + regexp.QuoteMeta(CalloutMarkers) + `])? +`)
	explodedRe    = regexp.MustCompile(`[-*+] [@~]`)

	headingRe         = regexp.MustCompile(`^#`)
	listableHeadingRe = regexp.MustCompile(`^##+ `)
	headingLengthRe   = regexp.MustCompile(`^#+`)

	lineRunRe  = regexp.MustCompile(`(?:\r?\n)+`)
	blankRunRe = regexp.MustCompile(`\n{2,}`)
)

// IsHeaderItem reports whether raw list item text carries the header role.
func IsHeaderItem(raw string) bool {
	return listHeaderRe.MatchString(raw)
}

// StripMarker removes indentation, the bullet and any role marker from raw
// list item text and trims the remainder.
func StripMarker(raw string) string {
	return strings.TrimSpace(listCalloutRe.ReplaceAllString(raw, ""))
}

// IsExploded reports whether text contains a paragraph-starter or header
// list item, i.e. whether it looks like the output of Explode.
func IsExploded(text string) bool {
	return explodedRe.MatchString(text)
}
