// Package arabic classifies Arabic code points and strips or groups diacritics.
package arabic

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Code points referenced by the segmenter and the feature tables.
const (
	Fathatan = '\u064B'
	Dammatan = '\u064C'
	Kasratan = '\u064D'
	Fatha    = '\u064E'
	Damma    = '\u064F'
	Kasra    = '\u0650'
	Shadda   = '\u0651'
	Sukun    = '\u0652'

	Alef        = '\u0627'
	AlefMaksura = '\u0649'
)

// Tanween identifies one of the three indefinite case endings.
type Tanween int

const (
	NoTanween Tanween = iota
	FathatanMark
	DammatanMark
	KasratanMark
)

var tanweenNames = map[Tanween]string{
	FathatanMark: "fathatan",
	DammatanMark: "dammatan",
	KasratanMark: "kasratan",
}

func (t Tanween) String() string {
	if name, ok := tanweenNames[t]; ok {
		return name
	}
	return ""
}

// tanweenOrder is the order marks are checked in when a form carries more than one.
var tanweenOrder = []struct {
	mark rune
	kind Tanween
}{
	{Fathatan, FathatanMark},
	{Dammatan, DammatanMark},
	{Kasratan, KasratanMark},
}

// IsCombiningMark reports whether r is an Arabic harakah, tanween, shadda, sukun,
// superscript alef, or Quranic annotation mark.
func IsCombiningMark(r rune) bool {
	switch {
	case r >= 0x064B && r <= 0x065F:
		return true
	case r == 0x0670:
		return true
	case r >= 0x06D6 && r <= 0x06ED:
		return true
	}
	return false
}

// StripDiacritics applies NFKC and removes every combining mark.
func StripDiacritics(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if IsCombiningMark(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// HasDiacritics reports whether s contains at least one combining mark.
func HasDiacritics(s string) bool {
	return strings.IndexFunc(s, IsCombiningMark) >= 0
}

// LetterGroups splits s into base letters, each carrying the combining marks that
// follow it. Marks before the first base letter form their own group.
func LetterGroups(s string) []string {
	if s == "" {
		return nil
	}
	var groups []string
	var current strings.Builder
	for _, r := range s {
		if IsCombiningMark(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			groups = append(groups, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		groups = append(groups, current.String())
	}
	return groups
}

// TanweenOf returns the first tanween mark found in s.
func TanweenOf(s string) (Tanween, bool) {
	for _, t := range tanweenOrder {
		if strings.ContainsRune(s, t.mark) {
			return t.kind, true
		}
	}
	return NoTanween, false
}

// EndsWithTanween reports whether s ends in a tanween mark, optionally followed by
// alef or alef maksura.
func EndsWithTanween(s string) bool {
	runes := []rune(s)
	n := len(runes)
	if n == 0 {
		return false
	}
	if runes[n-1] == Alef || runes[n-1] == AlefMaksura {
		n--
	}
	if n == 0 {
		return false
	}
	switch runes[n-1] {
	case Fathatan, Dammatan, Kasratan:
		return true
	}
	return false
}
