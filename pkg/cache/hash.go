package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// FingerprintKey returns the key under which the schema fingerprint of the
// platform at baseURL is stored. Trailing slashes are ignored.
func FingerprintKey(baseURL string) string {
	return "fingerprint:" + strings.TrimRight(baseURL, "/")
}

// SchemaKey returns the key under which a fetched schema is stored.
func SchemaKey(baseURL string) string {
	return "schema:" + strings.TrimRight(baseURL, "/")
}
