// Package fileid derives deterministic IDs for resume files seen by the inbox watcher.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	pathPrefix    = "file:"
	contentPrefix = "sha256:"
)

// PathID returns a stable ID for the given absolute path.
// Same path always yields the same ID.
func PathID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return pathPrefix + hex.EncodeToString(hash[:])
}

// ContentID returns an ID for the file bytes. Copies of the same resume share it.
func ContentID(content []byte) string {
	hash := sha256.Sum256(content)
	return contentPrefix + hex.EncodeToString(hash[:])
}
