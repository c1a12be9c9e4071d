// Package canonical derives stable content-addressed identifiers for lexical entities.
// The same template fields always yield the same id, so stores can upsert by content.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Entity pairs a canonical input string with the id derived from it.
type Entity struct {
	CanonicalInput string `json:"canonical_input"`
	ID             string `json:"id"`
}

// Canonicalize applies NFC, lowercases ASCII letters, collapses whitespace runs to a
// single space and trims. Non-ASCII letters keep their case.
func Canonicalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// DeriveID returns the lowercase hex SHA-256 of the canonical form of input.
func DeriveID(input string) string {
	sum := sha256.Sum256([]byte(Canonicalize(input)))
	return hex.EncodeToString(sum[:])
}

// Universal canonicalizes a template string and derives its id.
func Universal(template string) Entity {
	canonical := Canonicalize(template)
	return Entity{CanonicalInput: canonical, ID: DeriveID(canonical)}
}
