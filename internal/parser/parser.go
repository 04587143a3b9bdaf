// Package parser separates YAML frontmatter from the Markdown body of a
// document and collects the metadata shown alongside it.
package parser

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/explode/internal/outline"
)

const delim = "---"

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Result is a document split into its frontmatter and body.
// Header+Body always equals the input.
type Result struct {
	Frontmatter map[string]any
	// Header is the raw frontmatter block, delimiters and the blank lines
	// after it included. It is empty when the document has no frontmatter.
	Header string
	Body   string
	Title  string
	Links  []string
	Tags   []string
}

// Split separates a leading YAML frontmatter block from the body. Invalid or
// unterminated frontmatter leaves the whole input as body.
func Split(data []byte) (*Result, error) {
	src := string(data)
	fm, header := splitFrontmatter(src)
	body := src[len(header):]

	return &Result{
		Frontmatter: fm,
		Header:      header,
		Body:        body,
		Title:       deriveTitle(fm, body),
		Links:       extractLinks(body),
		Tags:        extractTags(body, fm),
	}, nil
}

// Join reassembles a document from a header and a transformed body.
func Join(header, body string) string {
	return header + body
}

// splitFrontmatter returns the parsed frontmatter and the raw header prefix
// of src, or nil and "" when src does not open with a valid block.
func splitFrontmatter(src string) (map[string]any, string) {
	lead := len(src) - len(strings.TrimLeft(src, "\r\n"))
	if !strings.HasPrefix(src[lead:], delim) {
		return nil, ""
	}

	start := lead + len(delim)
	idx := strings.Index(src[start:], "\n"+delim)
	if idx < 0 {
		return nil, ""
	}
	block := src[start : start+idx]

	end := start + idx + 1 + len(delim)
	// The closing delimiter must sit alone on its line.
	if nl := strings.IndexByte(src[end:], '\n'); nl >= 0 {
		if strings.TrimSpace(src[end:end+nl]) != "" {
			return nil, ""
		}
		end += nl + 1
	} else if strings.TrimSpace(src[end:]) != "" {
		return nil, ""
	} else {
		end = len(src)
	}
	for end < len(src) && (src[end] == '\n' || src[end] == '\r') {
		end++
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, ""
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, src[:end]
}

// deriveTitle returns the frontmatter "title", else the first H1 heading,
// else the text of the first header list item.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	lines := strings.Split(body, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	for _, line := range lines {
		if outline.IsHeaderItem(line) {
			return outline.StripMarker(line)
		}
	}
	return ""
}

// extractLinks returns the distinct wikilink targets of body, aliases
// dropped.
func extractLinks(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target, _, _ := strings.Cut(m[1], "|")
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects the frontmatter "tags" list followed by inline #tags,
// without duplicates.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	if list, ok := fm["tags"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}
