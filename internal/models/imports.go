package models

import "time"

// Import kinds.
const (
	ImportLemmaRows = "lemma_rows"
	ImportGrammar   = "grammar"
)

// ImportRecord remembers a file that was imported, so unchanged files can be skipped.
type ImportRecord struct {
	ID         string    `json:"id" db:"id"`
	Path       string    `json:"path" db:"path"`
	Kind       string    `json:"kind" db:"kind"`
	Size       int64     `json:"size" db:"size"`
	ModTime    int64     `json:"mod_time" db:"mod_time"`
	Rows       int       `json:"rows" db:"row_count"`
	ImportedAt time.Time `json:"imported_at" db:"imported_at"`
}

// Unchanged reports whether the record matches a file of the given size and
// modification time in Unix nanoseconds.
func (r ImportRecord) Unchanged(size, modTime int64) bool {
	return r.Size == size && r.ModTime == modTime
}
