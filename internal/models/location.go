package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Location is a word position: surah, ayah and 1-based token index.
type Location struct {
	Surah      int `json:"surah"`
	Ayah       int `json:"ayah"`
	TokenIndex int `json:"token_index"`
}

// String renders the location as "surah:ayah:index".
func (l Location) String() string {
	return fmt.Sprintf("%d:%d:%d", l.Surah, l.Ayah, l.TokenIndex)
}

// ParseWordLocation parses "54:26:4" and document-prefixed forms such as
// "DOC_QURAN_HAFS:12:23:TOK_05". Only the last three fields are read.
func ParseWordLocation(s string) (Location, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 3 {
		return Location{}, false
	}
	parts = parts[len(parts)-3:]

	surah, err := strconv.Atoi(parts[0])
	if err != nil {
		return Location{}, false
	}
	ayah, err := strconv.Atoi(parts[1])
	if err != nil {
		return Location{}, false
	}
	tokenPart := parts[2]
	if strings.HasPrefix(strings.ToUpper(tokenPart), "TOK_") {
		tokenPart = tokenPart[strings.LastIndex(tokenPart, "_")+1:]
	}
	index, err := strconv.Atoi(tokenPart)
	if err != nil {
		return Location{}, false
	}
	return Location{Surah: surah, Ayah: ayah, TokenIndex: index}, true
}

// ComposeContainerID returns the container id of a surah.
func ComposeContainerID(surah int) string {
	return fmt.Sprintf("C:QURAN:%d", surah)
}

// ComposeAyahUnitID returns the unit id of a single verse.
func ComposeAyahUnitID(surah, ayah int) string {
	return fmt.Sprintf("U:%s:%d", ComposeContainerID(surah), ayah)
}

// ComposePassageUnitID returns the unit id of a verse range. A single-verse range
// collapses to the verse's own unit id.
func ComposePassageUnitID(surah, from, to int) string {
	if to <= from {
		return ComposeAyahUnitID(surah, from)
	}
	return fmt.Sprintf("U:%s:%d-%d", ComposeContainerID(surah), from, to)
}
