// Package models defines the lemma, lemma-location and token records shared by the
// resolver, storage and HTTP layers.
package models

import "time"

// LemmaLocationRow is one stored word position of a verse as read back for resolution.
// Every field except the database id is optional.
type LemmaLocationRow struct {
	ID             int64   `json:"id,omitempty" db:"id"`
	LemmaID        *int64  `json:"lemma_id,omitempty" db:"lemma_id"`
	LemmaText      *string `json:"lemma_text,omitempty" db:"lemma_text"`
	LemmaTextClean *string `json:"lemma_text_clean,omitempty" db:"lemma_text_clean"`
	WordsCount     *int    `json:"words_count,omitempty" db:"words_count"`
	UniqWordsCount *int    `json:"uniq_words_count,omitempty" db:"uniq_words_count"`
	WordLocation   *string `json:"word_location,omitempty" db:"word_location"`
	Surah          *int    `json:"surah,omitempty" db:"surah"`
	Ayah           *int    `json:"ayah,omitempty" db:"ayah"`
	TokenIndex     *int    `json:"token_index,omitempty" db:"token_index"`
	TokenOccID     *string `json:"ar_token_occ_id,omitempty" db:"ar_token_occ_id"`
	UToken         *string `json:"ar_u_token,omitempty" db:"ar_u_token"`
	WordSimple     *string `json:"word_simple,omitempty" db:"word_simple"`
	WordDiacritic  *string `json:"word_diacritic,omitempty" db:"word_diacritic"`
}

// Locate resolves the row's verse and word position. Explicit fields win over the
// parsed word location; surah and ayah fall back to the given verse.
func (r LemmaLocationRow) Locate(surah, ayah int) (Location, bool) {
	var parsed Location
	hasParsed := false
	if r.WordLocation != nil {
		parsed, hasParsed = ParseWordLocation(*r.WordLocation)
	}

	loc := Location{Surah: surah, Ayah: ayah}
	if hasParsed {
		loc = parsed
	}
	if r.Surah != nil && *r.Surah > 0 {
		loc.Surah = *r.Surah
	}
	if r.Ayah != nil && *r.Ayah > 0 {
		loc.Ayah = *r.Ayah
	}
	if r.TokenIndex != nil && *r.TokenIndex > 0 {
		loc.TokenIndex = *r.TokenIndex
	}
	if loc.Surah <= 0 || loc.Ayah <= 0 || loc.TokenIndex <= 0 {
		return Location{}, false
	}
	return loc, true
}

// LemmaLocation ties a lemma to one word position of a verse.
type LemmaLocation struct {
	ID             int64     `json:"id,omitempty" db:"id"`
	LemmaID        int64     `json:"lemma_id" db:"lemma_id"`
	LemmaText      string    `json:"lemma_text" db:"lemma_text"`
	LemmaTextClean string    `json:"lemma_text_clean" db:"lemma_text_clean"`
	WordsCount     *int      `json:"words_count" db:"words_count"`
	UniqWordsCount *int      `json:"uniq_words_count" db:"uniq_words_count"`
	WordLocation   string    `json:"word_location" db:"word_location"`
	Surah          int       `json:"surah" db:"surah"`
	Ayah           int       `json:"ayah" db:"ayah"`
	TokenIndex     int       `json:"token_index" db:"token_index"`
	TokenOccID     *string   `json:"ar_token_occ_id" db:"ar_token_occ_id"`
	UToken         *string   `json:"ar_u_token" db:"ar_u_token"`
	WordSimple     *string   `json:"word_simple" db:"word_simple"`
	WordDiacritic  *string   `json:"word_diacritic" db:"word_diacritic"`
	CreatedAt      time.Time `json:"created_at,omitempty" db:"created_at"`
}

// Lemma is a dictionary headword with its corpus counts.
type Lemma struct {
	ID             int64     `json:"lemma_id" db:"lemma_id"`
	Text           string    `json:"lemma_text" db:"lemma_text"`
	TextClean      string    `json:"lemma_text_clean" db:"lemma_text_clean"`
	WordsCount     *int      `json:"words_count,omitempty" db:"words_count"`
	UniqWordsCount *int      `json:"uniq_words_count,omitempty" db:"uniq_words_count"`
	PrimaryUToken  *string   `json:"primary_ar_u_token,omitempty" db:"primary_ar_u_token"`
	CreatedAt      time.Time `json:"created_at,omitempty" db:"created_at"`
}

// Token is one segment occurrence inside a verse.
type Token struct {
	OccID       string         `json:"token_occ_id" db:"ar_token_occ_id"`
	UTokenID    string         `json:"u_token_id" db:"ar_u_token"`
	URootID     *string        `json:"u_root_id" db:"ar_u_root"`
	ContainerID string         `json:"container_id" db:"container_id"`
	UnitID      string         `json:"unit_id" db:"unit_id"`
	PosIndex    int            `json:"pos_index" db:"pos_index"`
	Surface     string         `json:"surface_ar" db:"surface_ar"`
	Norm        string         `json:"norm_ar" db:"norm_ar"`
	Lemma       string         `json:"lemma_ar" db:"lemma_ar"`
	POS         string         `json:"pos" db:"pos"`
	Features    map[string]any `json:"features" db:"features"`
	Concepts    []string       `json:"grammar_concepts,omitempty" db:"-"`
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringOr dereferences p, or returns fallback when p is nil or empty.
func StringOr(p *string, fallback string) string {
	if p == nil || *p == "" {
		return fallback
	}
	return *p
}
