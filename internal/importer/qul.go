package importer

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kalima/internal/models"
)

// ReadQULLemmas reads a QUL word-lemma database with tables
// lemmas(id, text, text_clean, words_count, uniq_words_count) and
// lemma_words(lemma_id, word_location). Words whose location does not parse are skipped.
func ReadQULLemmas(path string) ([]models.LemmaLocationRow, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open lemma database: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open lemma database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT w.lemma_id, l.text, l.text_clean, l.words_count, l.uniq_words_count, w.word_location
		FROM lemma_words w
		JOIN lemmas l ON l.id = w.lemma_id
		ORDER BY w.rowid`)
	if err != nil {
		return nil, fmt.Errorf("query lemma words: %w", err)
	}
	defer rows.Close()

	out := []models.LemmaLocationRow{}
	for rows.Next() {
		var (
			lemmaID     int64
			text, clean sql.NullString
			words, uniq sql.NullInt64
			location    string
		)
		if err := rows.Scan(&lemmaID, &text, &clean, &words, &uniq, &location); err != nil {
			return nil, err
		}
		loc, ok := models.ParseWordLocation(location)
		if !ok {
			continue
		}
		row := models.LemmaLocationRow{
			LemmaID:        &lemmaID,
			LemmaText:      nullStringPtr(text),
			LemmaTextClean: nullStringPtr(clean),
			WordsCount:     nullIntPtr(words),
			UniqWordsCount: nullIntPtr(uniq),
			WordLocation:   models.StringPtr(location),
			Surah:          &loc.Surah,
			Ayah:           &loc.Ayah,
			TokenIndex:     &loc.TokenIndex,
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
