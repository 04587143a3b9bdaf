// Package outline converts Markdown documents between prose form (headings
// and paragraphs) and list form (nested bullets, one sentence per item,
// tagged with role markers).
package outline

// NoParent is the ParentLine of a top-level list item. Any negative value is
// treated as top-level.
const NoParent = -1

// ListItem describes one list item of a document as reported by an outline
// provider. Offsets are byte offsets into the document text.
type ListItem struct {
	// StartOffset points at the bullet marker, after any indentation.
	StartOffset int `json:"start_offset"`
	// EndOffset is the end of the item's own text, excluding nested items.
	EndOffset int `json:"end_offset"`
	// StartColumn is the column of the bullet marker; StartOffset-StartColumn
	// is the start of the item's line.
	StartColumn int `json:"start_column"`
	// Line is the 0-based line number of the item.
	Line int `json:"line"`
	// ParentLine is the line of the structural parent item, or NoParent.
	ParentLine int `json:"parent_line"`
}

// TopLevel reports whether the item has no parent item.
func (it ListItem) TopLevel() bool {
	return it.ParentLine < 0
}

// Snapshot is the ordered list of items of one document. Items appear in
// document order and a parent always precedes its children.
type Snapshot []ListItem

// Provider supplies the outline of a document. file identifies the document
// and is only used to look the outline up; text is its current content.
type Provider interface {
	Outline(file, text string) (Snapshot, error)
}
