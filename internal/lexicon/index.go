// Package lexicon provides full-text lookup of lemmas by Arabic text, root and gloss.
package lexicon

import (
	"context"
	"strconv"
)

// Entry is one lemma as stored in the lexicon index.
type Entry struct {
	LemmaID   int64  `json:"lemma_id"`
	Text      string `json:"text"`
	TextClean string `json:"text_clean"`
	POS       string `json:"pos,omitempty"`
	Root      string `json:"root,omitempty"`
	Gloss     string `json:"gloss,omitempty"`
	UTokenID  string `json:"ar_u_token,omitempty"`
}

// DocID returns the index document id of the entry.
func (e Entry) DocID() string {
	return DocID(e.LemmaID)
}

// DocID returns the index document id of a lemma.
func DocID(lemmaID int64) string {
	return "lemma:" + strconv.FormatInt(lemmaID, 10)
}

// Hit is a single lexicon search result.
type Hit struct {
	ID      string  `json:"id"`
	LemmaID int64   `json:"lemma_id"`
	Text    string  `json:"text"`
	POS     string  `json:"pos,omitempty"`
	Score   float64 `json:"score"`
}

// Index defines lexicon indexing and search.
type Index interface {
	Index(ctx context.Context, e Entry) error
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
	Delete(ctx context.Context, lemmaID int64) error
	DocCount() (uint64, error)
	Close() error
}

// SearchResult is the answer to a lexicon lookup. Suggestions are only filled when
// nothing matched.
type SearchResult struct {
	Query       string       `json:"query"`
	Hits        []Hit        `json:"hits"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}
