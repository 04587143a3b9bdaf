// Package checksum identifies document versions by content.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// String is Sum for document text.
func String(text string) string {
	return Sum([]byte(text))
}

// ETag quotes sum as an HTTP entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// Matches reports whether want, bare or quoted as an entity tag (weak tags
// included), names the content data.
func Matches(data []byte, want string) bool {
	want = strings.TrimPrefix(want, "W/")
	return strings.Trim(want, `"`) == Sum(data)
}
