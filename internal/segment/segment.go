// Package segment splits Arabic words into proclitic, stem and enclitic segments
// using letter-level heuristics. It never fails: anything it cannot split cleanly
// comes back as a single stem.
package segment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/kalima/internal/arabic"
)

// Kind tags a segment's role inside its word.
type Kind int

const (
	Stem Kind = iota
	Prefix
	Suffix
)

var kindNames = [...]string{Stem: "stem", Prefix: "prefix", Suffix: "suffix"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText encodes the kind as its name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes "prefix", "stem" or "suffix".
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if string(text) == name {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("segment: unknown kind %q", text)
}

// Segment is one morpheme of a word. Simple has no diacritics; Surface keeps them.
type Segment struct {
	Kind    Kind   `json:"kind"`
	Simple  string `json:"simple"`
	Surface string `json:"surface"`
}

// Whole returns the word as a single stem segment.
func Whole(simple, surface string) []Segment {
	if simple == "" {
		simple = arabic.StripDiacritics(surface)
	}
	if surface == "" {
		surface = simple
	}
	return []Segment{{Kind: Stem, Simple: simple, Surface: surface}}
}

// Split segments a word given its diacritic-free and diacritic-bearing forms.
// Either form may be empty; the missing one is derived from the other.
func Split(simple, surface string) []Segment {
	if simple == "" {
		simple = arabic.StripDiacritics(surface)
	}
	if surface == "" {
		surface = simple
	}
	whole := []Segment{{Kind: Stem, Simple: simple, Surface: surface}}

	letters := []rune(simple)
	n := len(letters)
	if n <= 1 || IsLexicalized(simple) {
		return whole
	}
	minStem := 1
	if n > 2 {
		minStem = 2
	}

	suffixCount := matchEnclitic(simple, surface)
	prefixCount := countProclitics(letters, minStem, suffixCount)
	if closedClassRest(letters, prefixCount) {
		suffixCount = 0
	}
	if prefixCount+suffixCount > n {
		suffixCount = n - prefixCount
	}
	if prefixCount+suffixCount < n && n-prefixCount-suffixCount < minStem {
		suffixCount = max(0, n-prefixCount-minStem)
	}
	if prefixCount == 0 && suffixCount == 0 {
		return whole
	}

	units := arabic.LetterGroups(surface)
	if len(units) != n {
		units = make([]string, n)
		for i, r := range letters {
			units[i] = string(r)
		}
	}

	out := make([]Segment, 0, prefixCount+2)
	for i := 0; i < prefixCount; i++ {
		out = append(out, Segment{Kind: Prefix, Simple: string(letters[i]), Surface: units[i]})
	}
	stemEnd := n - suffixCount
	if stemEnd > prefixCount {
		out = append(out, Segment{
			Kind:    Stem,
			Simple:  string(letters[prefixCount:stemEnd]),
			Surface: strings.Join(units[prefixCount:stemEnd], ""),
		})
	}
	if suffixCount > 0 {
		out = append(out, Segment{
			Kind:    Suffix,
			Simple:  string(letters[stemEnd:]),
			Surface: strings.Join(units[stemEnd:], ""),
		})
	}

	if !reconciles(out, simple) {
		return whole
	}
	return out
}

// countProclitics walks proclitic letters from the start of the word. Each one must
// leave at least minStem letters, or exactly a pronoun enclitic, behind it. The walk
// stops at a closed-class word, with or without the trailing enclitic.
func countProclitics(letters []rune, minStem, suffixCount int) int {
	n := len(letters)
	count := 0
	for count < n-1 {
		if closedClassRest(letters, count) {
			break
		}
		if suffixCount > 0 && count < n-suffixCount && IsLexicalized(string(letters[count:n-suffixCount])) {
			break
		}
		class, ok := Proclitics[letters[count]]
		if !ok {
			break
		}
		rest := letters[count+1:]
		if len(rest) < minStem && !IsEnclitic(string(rest)) {
			break
		}
		if !class.Licensed(rest) {
			break
		}
		count++
	}
	return count
}

// closedClassRest reports whether the letters after the first count proclitics form a
// closed-class word. A bare enclitic after a preposition or lam is the attached
// pronoun (lahum, bihim), not the independent one (wa-hum).
func closedClassRest(letters []rune, count int) bool {
	if count == 0 {
		return false
	}
	rest := string(letters[count:])
	if !IsLexicalized(rest) {
		return false
	}
	if IsEnclitic(rest) && Proclitics[letters[count-1]] != Conjunction {
		return false
	}
	return true
}

// matchEnclitic returns the letter count of the pronoun suffix on simple, or 0.
// A trailing -na under tanween is a case ending, not the pronoun.
func matchEnclitic(simple, surface string) int {
	n := utf8.RuneCountInString(simple)
	for _, e := range Enclitics {
		size := utf8.RuneCountInString(e)
		if size >= n || !strings.HasSuffix(simple, e) {
			continue
		}
		if e == "نا" && arabic.EndsWithTanween(surface) {
			return 0
		}
		return size
	}
	return 0
}

func reconciles(segments []Segment, simple string) bool {
	var b strings.Builder
	stems := 0
	for _, s := range segments {
		if s.Simple == "" {
			return false
		}
		if s.Kind == Stem {
			stems++
		}
		b.WriteString(s.Simple)
	}
	return b.String() == simple && stems <= 1
}
