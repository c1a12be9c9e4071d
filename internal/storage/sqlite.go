package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. Transactions take the write
// lock up front so lemma id allocation is serialized between connections.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS quran_ayah_lemmas (
		lemma_id INTEGER PRIMARY KEY,
		lemma_text TEXT NOT NULL,
		lemma_text_clean TEXT NOT NULL,
		words_count INTEGER,
		uniq_words_count INTEGER,
		primary_ar_u_token TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_lemmas_clean ON quran_ayah_lemmas(lemma_text_clean);

	CREATE TABLE IF NOT EXISTS quran_ayah_lemma_location (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		lemma_id INTEGER NOT NULL REFERENCES quran_ayah_lemmas(lemma_id) ON DELETE CASCADE,
		word_location TEXT NOT NULL,
		surah INTEGER NOT NULL,
		ayah INTEGER NOT NULL,
		token_index INTEGER NOT NULL,
		ar_token_occ_id TEXT,
		ar_u_token TEXT,
		word_simple TEXT,
		word_diacritic TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_lemma_location_unique ON quran_ayah_lemma_location(lemma_id, word_location);
	CREATE INDEX IF NOT EXISTS idx_lemma_location_ref ON quran_ayah_lemma_location(surah, ayah);

	CREATE TABLE IF NOT EXISTS ar_u_roots (
		ar_u_root TEXT PRIMARY KEY,
		canonical_input TEXT NOT NULL,
		root TEXT NOT NULL,
		arabic_trilateral TEXT,
		english_trilateral TEXT,
		root_latn TEXT,
		root_norm TEXT NOT NULL,
		alt_latn_json TEXT,
		search_keys_norm TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		difficulty INTEGER,
		frequency TEXT,
		meta_json TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ar_u_tokens (
		ar_u_token TEXT PRIMARY KEY,
		canonical_input TEXT NOT NULL,
		lemma_ar TEXT NOT NULL,
		lemma_norm TEXT NOT NULL,
		pos TEXT NOT NULL,
		root_norm TEXT,
		ar_u_root TEXT,
		features_json TEXT,
		meta_json TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_u_tokens_lemma_norm ON ar_u_tokens(lemma_norm);

	CREATE TABLE IF NOT EXISTS ar_u_spans (
		ar_u_span TEXT PRIMARY KEY,
		canonical_input TEXT NOT NULL,
		span_type TEXT NOT NULL,
		token_ids_csv TEXT NOT NULL,
		meta_json TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ar_u_sentences (
		ar_u_sentence TEXT PRIMARY KEY,
		canonical_input TEXT NOT NULL,
		sentence_kind TEXT NOT NULL,
		sequence_json TEXT NOT NULL,
		text_ar TEXT,
		meta_json TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ar_u_valency (
		ar_u_valency TEXT PRIMARY KEY,
		canonical_input TEXT NOT NULL,
		verb_lemma_ar TEXT NOT NULL,
		verb_lemma_norm TEXT NOT NULL,
		prep_ar_u_token TEXT NOT NULL,
		frame_type TEXT NOT NULL,
		meta_json TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ar_u_lexicon (
		ar_u_lexicon TEXT PRIMARY KEY,
		canonical_input TEXT NOT NULL,
		lemma_ar TEXT NOT NULL,
		lemma_norm TEXT NOT NULL,
		pos TEXT NOT NULL,
		root_norm TEXT,
		ar_u_root TEXT,
		valency_id TEXT,
		sense_key TEXT NOT NULL,
		gloss_primary TEXT,
		gloss_secondary_json TEXT,
		usage_notes TEXT,
		meta_json TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ar_u_grammar (
		ar_u_grammar TEXT PRIMARY KEY,
		canonical_input TEXT NOT NULL,
		grammar_id TEXT NOT NULL,
		category TEXT,
		title TEXT,
		title_ar TEXT,
		definition TEXT,
		definition_ar TEXT,
		meta_json TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ar_u_synsets (
		ar_u_synset TEXT PRIMARY KEY,
		canonical_input TEXT NOT NULL,
		synset_key TEXT NOT NULL,
		gloss TEXT,
		meta_json TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ar_u_synset_members (
		ar_u_synset_member TEXT PRIMARY KEY,
		canonical_input TEXT NOT NULL,
		ar_u_synset TEXT NOT NULL,
		ar_u_token TEXT NOT NULL,
		meta_json TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ar_grammar_links (
		id TEXT PRIMARY KEY,
		target_type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		ar_u_grammar TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_grammar_links_target ON ar_grammar_links(target_type, target_id);

	CREATE TABLE IF NOT EXISTS ar_occ_token (
		ar_token_occ_id TEXT PRIMARY KEY,
		container_id TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		pos_index INTEGER NOT NULL,
		surface_ar TEXT NOT NULL,
		norm_ar TEXT,
		lemma_ar TEXT,
		pos TEXT,
		ar_u_token TEXT,
		ar_u_root TEXT,
		features_json TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_occ_token_unit ON ar_occ_token(unit_id, pos_index);

	CREATE TABLE IF NOT EXISTS import_files (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		kind TEXT NOT NULL,
		size INTEGER NOT NULL,
		mod_time INTEGER NOT NULL,
		row_count INTEGER NOT NULL DEFAULT 0,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// toJSON encodes v for a *_json column. Nil and empty values are stored as NULL.
func toJSON[T any](v T, empty bool) (sql.NullString, error) {
	if empty {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal json column: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
