package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperjump/kalima/internal/models"
)

// GetImport returns the import record with the given id.
func (s *SQLiteStorage) GetImport(ctx context.Context, id string) (*models.ImportRecord, error) {
	var rec models.ImportRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, path, kind, size, mod_time, row_count, imported_at FROM import_files WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Path, &rec.Kind, &rec.Size, &rec.ModTime, &rec.Rows, &rec.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("import %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecordImport inserts or refreshes an import record.
func (s *SQLiteStorage) RecordImport(ctx context.Context, rec models.ImportRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("import record for %s has no id", rec.Path)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_files (id, path, kind, size, mod_time, row_count)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			kind = excluded.kind,
			size = excluded.size,
			mod_time = excluded.mod_time,
			row_count = excluded.row_count,
			imported_at = CURRENT_TIMESTAMP`,
		rec.ID, rec.Path, rec.Kind, rec.Size, rec.ModTime, rec.Rows,
	)
	return err
}
