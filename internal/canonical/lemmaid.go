package canonical

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

const lemmaIDModulus = 2147483647

// StableLemmaID maps a cleaned lemma text to a positive int32-range id with a
// 31-multiplier rolling hash over UTF-16 code units. It is not collision free;
// callers bump to max(id)+1 when the id is already taken by another lemma.
func StableLemmaID(clean string) int64 {
	var h uint32
	for _, unit := range utf16.Encode([]rune(clean)) {
		h = h*31 + uint32(unit)
	}
	id := int64(h % lemmaIDModulus)
	if id < 1 {
		return 1
	}
	return id
}

var textNormReplacer = strings.NewReplacer(" ", "_", "|", "_")

// NormalizeTextNorm derives a lemma_text_clean key from free lemma text.
func NormalizeTextNorm(s string) string {
	return textNormReplacer.Replace(Canonicalize(s))
}

// OccurrenceTokenID derives a deterministic token occurrence id from its position
// within a unit.
func OccurrenceTokenID(containerID, unitID string, posIndex int, surface string) string {
	return DeriveID(fmt.Sprintf("occ_token|%s|%s|%d|%s", containerID, unitID, posIndex, surface))
}

// GrammarLinkID identifies a grammar concept attached to an occurrence target.
func GrammarLinkID(targetType, targetID, grammarID string) string {
	return targetType + "|" + targetID + "|" + grammarID
}
