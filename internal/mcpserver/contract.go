package mcpserver

// OutlineFormatContract describes the two forms a document takes and the
// markers the explode and implode commands rely on.
const OutlineFormatContract = `# Outline Format Contract

A document is either in **prose form** (headings and paragraphs) or in
**list form** (a nested outline, one sentence per item). The ` + "`explode`" + `
command turns prose into list form, ` + "`implode`" + ` turns it back and
` + "`toggle`" + ` picks the right one.

## List form

` + "```" + `markdown
- @ Heading
	- ~ First sentence of a paragraph.
		- Second sentence.
		- Third sentence.
	- ~ Next paragraph.
	- @ Sub heading
` + "```" + `

## Role markers

The character right after the bullet gives the item its role.

| Marker | Role |
|--------|------|
| ` + "`@`" + ` | heading; nesting depth picks the level (top level is ` + "`##`" + `) |
| ` + "`~`" + ` | first sentence of a paragraph |
| none | continuation sentence of the paragraph above |
| ` + "`& ? ! → % ^ |`" + ` | callouts; stripped when imploding |

## Rules

1. Indent with tabs, one per level.
2. Sentences end at a sentence terminal (` + "`. ! ?`" + ` and their Unicode
   kin) plus trailing punctuation, or at ` + "`]]`" + `. "p." and "pp." do not end
   a sentence.
3. Imploding appends a period to an item without terminal punctuation,
   unless it ends with a wikilink.
4. A single ` + "`#`" + ` heading stays as is; ` + "`##`" + ` and deeper become ` + "`@`" + ` items.
5. YAML frontmatter is kept untouched by every command.
6. Text between list items is copied through verbatim when imploding.

## Date tokens

Inline dates are written ` + "`+{label: 2024-03-01T09:30:00+02:00}`" + `. The label is
optional. The strict grammar requires the full ` + "`YYYY-MM-DDThh:mm:ss±hh:mm`" + `
form; the basic grammar accepts any date the parser understands, e.g.
` + "`+{2024-03-01}`" + `.
`
