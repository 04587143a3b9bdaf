// Package commands exposes the outline engines as named whole-document
// commands.
package commands

import (
	"context"
	"fmt"

	"github.com/starford/explode/internal/apperr"
	"github.com/starford/explode/internal/outline"
	"github.com/starford/explode/internal/parser"
)

// Command identifiers.
const (
	ImplodeLines = "implode-lines"
	ExplodeLines = "explode-lines"
	Implode      = "implode"
	Explode      = "explode"
	Toggle       = "toggle"
)

// Command describes one registered command.
type Command struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// NeedsOutline is true when the command consumes the document outline.
	NeedsOutline bool `json:"needs_outline"`

	run func(r *Registry, file, body string) (string, error)
}

// Input is the document a command runs on.
type Input struct {
	// File identifies the document. It is only used to request its outline.
	File string
	Text string
}

// Registry runs commands against an outline provider.
type Registry struct {
	provider outline.Provider
	byID     map[string]Command
	order    []Command
}

// NewRegistry returns a registry holding every command.
func NewRegistry(provider outline.Provider) *Registry {
	r := &Registry{provider: provider, byID: make(map[string]Command)}
	for _, c := range []Command{
		{ID: ImplodeLines, Name: "Implode paragraphs", run: textOnly(outline.JoinLines)},
		{ID: ExplodeLines, Name: "Explode paragraphs", run: textOnly(outline.SplitLines)},
		{ID: Implode, Name: "Implode to paragraphs", NeedsOutline: true, run: (*Registry).implode},
		{ID: Explode, Name: "Explode to list", run: textOnly(outline.Explode)},
		{ID: Toggle, Name: "Toggle implode/explode", NeedsOutline: true, run: (*Registry).toggle},
	} {
		r.byID[c.ID] = c
		r.order = append(r.order, c)
	}
	return r
}

// List returns the commands in registration order.
func (r *Registry) List() []Command {
	out := make([]Command, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the command with id.
func (r *Registry) Lookup(id string) (Command, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Run executes command id on in and returns the replacement text. A leading
// frontmatter block is kept as is and only the body is transformed.
func (r *Registry) Run(ctx context.Context, id string, in Input) (string, error) {
	c, ok := r.byID[id]
	if !ok {
		return "", fmt.Errorf("commands: %q: %w", id, apperr.ErrUnknownCommand)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := parser.Split([]byte(in.Text))
	if err != nil {
		return "", fmt.Errorf("commands: split %s: %w", in.File, err)
	}
	body, err := c.run(r, in.File, doc.Body)
	if err != nil {
		return "", fmt.Errorf("commands: %s: %w", id, err)
	}
	return parser.Join(doc.Header, body), nil
}

func (r *Registry) implode(file, body string) (string, error) {
	items, err := r.provider.Outline(file, body)
	if err != nil {
		return "", fmt.Errorf("outline %s: %w", file, err)
	}
	return outline.Implode(body, items), nil
}

// toggle implodes a document in list form and explodes anything else.
func (r *Registry) toggle(file, body string) (string, error) {
	if outline.IsExploded(body) {
		return r.implode(file, body)
	}
	return outline.Explode(body), nil
}

func textOnly(fn func(string) string) func(*Registry, string, string) (string, error) {
	return func(_ *Registry, _ string, body string) (string, error) {
		return fn(body), nil
	}
}
