// Package fileid derives deterministic import record ids from file paths.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "import:"

// ImportID returns a stable id for a file imported as kind. The path is cleaned first,
// so /a/b and /a/./b/ share an id. Importing one file as two kinds gives two ids.
func ImportID(kind, absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(kind + "|" + normalized))
	return prefix + hex.EncodeToString(hash[:])
}
