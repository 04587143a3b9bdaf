// Package storage reads and writes the Markdown files of the vault.
package storage

import (
	"time"

	"github.com/starford/explode/internal/models"
)

// Provider is the vault file abstraction. Paths are relative to the vault
// root.
type Provider interface {
	// List returns every .md file under dir.
	List(dir string) ([]models.DocumentInfo, error)
	// Read returns the raw bytes of path.
	Read(path string) ([]byte, error)
	// Write replaces the content of path atomically.
	Write(path string, content []byte) error
	// ModTime returns the last modification time of path.
	ModTime(path string) (time.Time, error)
}
