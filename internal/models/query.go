package models

import "fmt"

const (
	DefaultLemmaPageSize = 50
	MaxLemmaPageSize     = 500
)

// LemmaLocationQuery filters the lemma-location listing. Zero filters are ignored.
type LemmaLocationQuery struct {
	Surah   int    `json:"surah,omitempty"`
	Ayah    int    `json:"ayah,omitempty"`
	LemmaID int64  `json:"lemma_id,omitempty"`
	Q       string `json:"q,omitempty"`
	Offset  int    `json:"offset,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Validate rejects negative filters and clamps the page to 1..MaxLemmaPageSize,
// defaulting to DefaultLemmaPageSize.
func (q *LemmaLocationQuery) Validate() error {
	if q.Surah < 0 || q.Ayah < 0 || q.LemmaID < 0 {
		return fmt.Errorf("surah, ayah and lemma_id must not be negative")
	}
	if q.Ayah > 0 && q.Surah == 0 {
		return fmt.Errorf("ayah filter requires surah")
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLemmaPageSize
	}
	if q.Limit > MaxLemmaPageSize {
		q.Limit = MaxLemmaPageSize
	}
	return nil
}

// LemmaLocationPage is one page of the lemma-location listing.
type LemmaLocationPage struct {
	Total    int             `json:"total"`
	Offset   int             `json:"offset"`
	PageSize int             `json:"page_size"`
	HasMore  bool            `json:"has_more"`
	Results  []LemmaLocation `json:"results"`
}

// VerseResolution is the resolved lemma locations and tokens of one verse.
type VerseResolution struct {
	Surah  int             `json:"surah"`
	Ayah   int             `json:"ayah"`
	Lemmas []LemmaLocation `json:"lemmas"`
	Tokens []Token         `json:"tokens"`
}
