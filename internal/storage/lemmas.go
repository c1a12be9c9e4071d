package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/kalima/internal/canonical"
	"github.com/hyperjump/kalima/internal/models"
)

const lemmaLocationColumns = `
	loc.id, loc.lemma_id, COALESCE(l.lemma_text, ''), COALESCE(l.lemma_text_clean, ''),
	l.words_count, l.uniq_words_count,
	loc.word_location, loc.surah, loc.ayah, loc.token_index,
	loc.ar_token_occ_id, loc.ar_u_token, loc.word_simple, loc.word_diacritic`

func lemmaLocationWhere(q models.LemmaLocationQuery) (string, []any) {
	var parts []string
	var args []any
	if q.LemmaID > 0 {
		parts = append(parts, "loc.lemma_id = ?")
		args = append(args, q.LemmaID)
	}
	if q.Surah > 0 {
		parts = append(parts, "loc.surah = ?")
		args = append(args, q.Surah)
	}
	if q.Ayah > 0 {
		parts = append(parts, "loc.ayah = ?")
		args = append(args, q.Ayah)
	}
	if text := strings.TrimSpace(q.Q); text != "" {
		like := "%" + text + "%"
		parts = append(parts, "(l.lemma_text LIKE ? OR l.lemma_text_clean LIKE ?)")
		args = append(args, like, like)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(parts, " AND "), args
}

// ListLemmaLocations returns one page of locations ordered by position, joined with
// their lemma text.
func (s *SQLiteStorage) ListLemmaLocations(ctx context.Context, q models.LemmaLocationQuery) ([]models.LemmaLocation, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	where, args := lemmaLocationWhere(q)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+lemmaLocationColumns+`
		 FROM quran_ayah_lemma_location loc
		 LEFT JOIN quran_ayah_lemmas l ON l.lemma_id = loc.lemma_id
		 `+where+`
		 ORDER BY loc.surah ASC, loc.ayah ASC, loc.token_index ASC
		 LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locs := []models.LemmaLocation{}
	for rows.Next() {
		var loc models.LemmaLocation
		if err := rows.Scan(
			&loc.ID, &loc.LemmaID, &loc.LemmaText, &loc.LemmaTextClean,
			&loc.WordsCount, &loc.UniqWordsCount,
			&loc.WordLocation, &loc.Surah, &loc.Ayah, &loc.TokenIndex,
			&loc.TokenOccID, &loc.UToken, &loc.WordSimple, &loc.WordDiacritic,
		); err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}

// CountLemmaLocations counts the locations matching q, ignoring paging.
func (s *SQLiteStorage) CountLemmaLocations(ctx context.Context, q models.LemmaLocationQuery) (int, error) {
	where, args := lemmaLocationWhere(q)
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*)
		 FROM quran_ayah_lemma_location loc
		 LEFT JOIN quran_ayah_lemmas l ON l.lemma_id = loc.lemma_id
		 `+where, args...,
	).Scan(&total)
	return total, err
}

const upsertLocationSQL = `
	INSERT INTO quran_ayah_lemma_location (
		lemma_id, word_location, surah, ayah, token_index,
		ar_token_occ_id, ar_u_token, word_simple, word_diacritic
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(lemma_id, word_location) DO UPDATE SET
		surah = excluded.surah,
		ayah = excluded.ayah,
		token_index = excluded.token_index,
		ar_token_occ_id = excluded.ar_token_occ_id,
		ar_u_token = excluded.ar_u_token,
		word_simple = excluded.word_simple,
		word_diacritic = excluded.word_diacritic`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertLocation(ctx context.Context, db execer, loc *models.LemmaLocation) error {
	if loc.LemmaID <= 0 {
		return fmt.Errorf("lemma location %s has no lemma id", loc.WordLocation)
	}
	if loc.WordLocation == "" {
		loc.WordLocation = models.Location{Surah: loc.Surah, Ayah: loc.Ayah, TokenIndex: loc.TokenIndex}.String()
	}
	_, err := db.ExecContext(ctx, upsertLocationSQL,
		loc.LemmaID, loc.WordLocation, loc.Surah, loc.Ayah, loc.TokenIndex,
		loc.TokenOccID, loc.UToken, loc.WordSimple, loc.WordDiacritic,
	)
	return err
}

// UpsertLemmaLocation inserts a location or updates the one at the same lemma and word location.
func (s *SQLiteStorage) UpsertLemmaLocation(ctx context.Context, loc *models.LemmaLocation) error {
	return upsertLocation(ctx, s.db, loc)
}

// ReplaceVerseLocations swaps every location of a verse for locs in one transaction.
func (s *SQLiteStorage) ReplaceVerseLocations(ctx context.Context, surah, ayah int, locs []models.LemmaLocation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM quran_ayah_lemma_location WHERE surah = ? AND ayah = ?`, surah, ayah,
	); err != nil {
		return err
	}
	for i := range locs {
		loc := locs[i]
		loc.Surah, loc.Ayah = surah, ayah
		if err := upsertLocation(ctx, tx, &loc); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetLemma returns a lemma by id.
func (s *SQLiteStorage) GetLemma(ctx context.Context, id int64) (*models.Lemma, error) {
	var lemma models.Lemma
	err := s.db.QueryRowContext(ctx,
		`SELECT lemma_id, lemma_text, lemma_text_clean, words_count, uniq_words_count, primary_ar_u_token, created_at
		 FROM quran_ayah_lemmas WHERE lemma_id = ?`, id,
	).Scan(&lemma.ID, &lemma.Text, &lemma.TextClean, &lemma.WordsCount, &lemma.UniqWordsCount,
		&lemma.PrimaryUToken, &lemma.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lemma %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &lemma, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findLemmaIDByClean(ctx context.Context, db queryer, clean string) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT lemma_id FROM quran_ayah_lemmas WHERE lemma_text_clean = ? LIMIT 1`, clean,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("lemma %q: %w", clean, ErrNotFound)
	}
	return id, err
}

func lemmaCleanByID(ctx context.Context, db queryer, id int64) (string, error) {
	var clean string
	err := db.QueryRowContext(ctx,
		`SELECT lemma_text_clean FROM quran_ayah_lemmas WHERE lemma_id = ? LIMIT 1`, id,
	).Scan(&clean)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("lemma %d: %w", id, ErrNotFound)
	}
	return clean, err
}

func maxLemmaID(ctx context.Context, db queryer) (int64, error) {
	var maxID sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(lemma_id) FROM quran_ayah_lemmas`).Scan(&maxID); err != nil {
		return 0, err
	}
	return maxID.Int64, nil
}

// FindLemmaIDByClean returns the id of the lemma with the given clean text.
func (s *SQLiteStorage) FindLemmaIDByClean(ctx context.Context, clean string) (int64, error) {
	return findLemmaIDByClean(ctx, s.db, clean)
}

// LemmaCleanByID returns the clean text of a lemma.
func (s *SQLiteStorage) LemmaCleanByID(ctx context.Context, id int64) (string, error) {
	return lemmaCleanByID(ctx, s.db, id)
}

// MaxLemmaID returns the largest lemma id, or 0 when there are none.
func (s *SQLiteStorage) MaxLemmaID(ctx context.Context) (int64, error) {
	return maxLemmaID(ctx, s.db)
}

// ResolveLemmaID returns the id of the lemma with clean text, creating a placeholder
// lemma when none exists. New ids come from canonical.StableLemmaID and move past the
// current maximum when that id is taken by another lemma. Lookup and allocation share
// one write transaction.
func (s *SQLiteStorage) ResolveLemmaID(ctx context.Context, clean string) (int64, error) {
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return 0, fmt.Errorf("resolve lemma id: %w: lemma_text_clean", canonical.ErrMissingKey)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := findLemmaIDByClean(ctx, tx, clean)
	if err == nil {
		return id, tx.Commit()
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	id = canonical.StableLemmaID(clean)
	existing, err := lemmaCleanByID(ctx, tx, id)
	switch {
	case err == nil && existing != clean:
		maxID, err := maxLemmaID(ctx, tx)
		if err != nil {
			return 0, err
		}
		id = maxID + 1
	case err != nil && !errors.Is(err, ErrNotFound):
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO quran_ayah_lemmas (lemma_id, lemma_text, lemma_text_clean) VALUES (?, ?, ?)`,
		id, clean, clean,
	); err != nil {
		return 0, fmt.Errorf("failed to reserve lemma id %d: %w", id, err)
	}
	return id, tx.Commit()
}

// UpsertLemma inserts or updates a lemma by id. An empty clean text is derived from the text.
func (s *SQLiteStorage) UpsertLemma(ctx context.Context, lemma *models.Lemma) error {
	if lemma.ID <= 0 {
		return fmt.Errorf("upsert lemma: %w: lemma_id", canonical.ErrMissingKey)
	}
	if lemma.TextClean == "" {
		lemma.TextClean = canonical.NormalizeTextNorm(lemma.Text)
	}
	if lemma.Text == "" {
		lemma.Text = lemma.TextClean
	}
	if lemma.TextClean == "" {
		return fmt.Errorf("upsert lemma %d: %w: lemma_text", lemma.ID, canonical.ErrMissingKey)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quran_ayah_lemmas (lemma_id, lemma_text, lemma_text_clean, words_count, uniq_words_count, primary_ar_u_token)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(lemma_id) DO UPDATE SET
			lemma_text = excluded.lemma_text,
			lemma_text_clean = excluded.lemma_text_clean,
			words_count = COALESCE(excluded.words_count, quran_ayah_lemmas.words_count),
			uniq_words_count = COALESCE(excluded.uniq_words_count, quran_ayah_lemmas.uniq_words_count),
			primary_ar_u_token = COALESCE(quran_ayah_lemmas.primary_ar_u_token, excluded.primary_ar_u_token)`,
		lemma.ID, lemma.Text, lemma.TextClean, lemma.WordsCount, lemma.UniqWordsCount, lemma.PrimaryUToken,
	)
	return err
}

// CountLemmas returns the number of lemmas.
func (s *SQLiteStorage) CountLemmas(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quran_ayah_lemmas`).Scan(&count)
	return count, err
}
