// Package models defines the document types shared by the services and
// transports.
package models

import "time"

// Document is a Markdown file of the vault.
type Document struct {
	Path        string         `json:"path"`
	Content     []byte         `json:"-"`
	Body        string         `json:"body"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Title       string         `json:"title,omitempty"`
	Links       []string       `json:"links,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	// Exploded is true when the body is in list form.
	Exploded  bool      `json:"exploded"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transform is the outcome of running a command on a document.
type Transform struct {
	Path     string `json:"path"`
	Command  string `json:"command"`
	Content  string `json:"content"`
	Checksum string `json:"checksum"`
	// Changed is false when the command left the content as it was.
	Changed bool `json:"changed"`
	// Written is false for previews.
	Written bool `json:"written"`
}

// DocumentInfo is the listing entry of a document.
type DocumentInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
