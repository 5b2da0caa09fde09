// Package checksum computes content digests used as HTTP entity tags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/starford/wordhoard/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Entries returns the digest of the JSON encoding of entries. Stored graphs
// never change, so the digest of a word is stable across restarts.
func Entries(entries []models.WordEntry) (string, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("checksum: encode entries: %w", err)
	}
	return Sum(data), nil
}
