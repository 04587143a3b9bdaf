// Package testutil provides shared helpers for tests that need a vault.
package testutil

import (
	"testing"

	"github.com/starford/explode/internal/commands"
	"github.com/starford/explode/internal/mdoutline"
	"github.com/starford/explode/internal/storage"
)

// TestVault creates a temporary vault seeded with files, keyed by
// vault-relative path.
func TestVault(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	for path, content := range files {
		if err := store.Write(path, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	return vaultDir, store
}

// Registry returns a command registry backed by a cached goldmark outline.
func Registry() *commands.Registry {
	return commands.NewRegistry(mdoutline.NewCache(mdoutline.NewParser(), 0))
}
