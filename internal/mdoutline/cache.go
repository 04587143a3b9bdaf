package mdoutline

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/starford/explode/internal/checksum"
	"github.com/starford/explode/internal/outline"
)

// DefaultCacheSize is the number of files a Cache holds unless told
// otherwise.
const DefaultCacheSize = 512

// Cache memoises outlines per file identity. An entry is only reused while
// the checksum of the text matches the one it was computed from. The least
// recently used file is evicted once the cache is full.
type Cache struct {
	next    outline.Provider
	entries *lru.Cache[string, cacheEntry]
}

type cacheEntry struct {
	sum   string
	items outline.Snapshot
}

var _ outline.Provider = (*Cache)(nil)

// NewCache wraps next with a cache holding at most size files. A size below
// one selects DefaultCacheSize.
func NewCache(next outline.Provider, size int) *Cache {
	if size < 1 {
		size = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, cacheEntry](size)
	return &Cache{next: next, entries: entries}
}

// Outline returns the cached snapshot for file when text is unchanged and
// asks the wrapped provider otherwise. The returned snapshot is shared and
// must not be modified.
func (c *Cache) Outline(file, text string) (outline.Snapshot, error) {
	sum := checksum.String(text)
	if e, ok := c.entries.Get(file); ok && e.sum == sum {
		return e.items, nil
	}

	items, err := c.next.Outline(file, text)
	if err != nil {
		return nil, err
	}
	c.entries.Add(file, cacheEntry{sum: sum, items: items})
	return items, nil
}

// Forget drops the entry for file.
func (c *Cache) Forget(file string) {
	c.entries.Remove(file)
}

// Len returns the number of cached files.
func (c *Cache) Len() int {
	return c.entries.Len()
}
