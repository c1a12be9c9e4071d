// Package ingest loads lemma rows and grammar entries into storage and the lexicon
// index, and resolves stored verses into tokens.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/kalima/internal/canonical"
	"github.com/hyperjump/kalima/internal/features"
	"github.com/hyperjump/kalima/internal/fileid"
	"github.com/hyperjump/kalima/internal/importer"
	"github.com/hyperjump/kalima/internal/lexicon"
	"github.com/hyperjump/kalima/internal/models"
	"github.com/hyperjump/kalima/internal/resolver"
	"github.com/hyperjump/kalima/internal/segment"
	"github.com/hyperjump/kalima/internal/storage"
)

// ErrInvalidVerse is returned for a verse reference that is not positive.
var ErrInvalidVerse = errors.New("invalid verse reference")

// Service ties storage, the resolver and the lexicon index together.
type Service struct {
	store        storage.Storage
	lexicon      lexicon.Index
	cache        *segment.Cache
	newOccID     resolver.OccurrenceIDFunc
	splitAffixes bool
	logger       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a logger for import and resolve events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithLexicon indexes every stored lemma in idx.
func WithLexicon(idx lexicon.Index) Option {
	return func(s *Service) { s.lexicon = idx }
}

// WithSegmentCache shares a segmentation cache between resolves.
func WithSegmentCache(c *segment.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithOccurrenceIDs sets how missing occurrence ids are minted.
func WithOccurrenceIDs(fn resolver.OccurrenceIDFunc) Option {
	return func(s *Service) { s.newOccID = fn }
}

// WithSplitAffixes sets whether verses are segmented when a request does not say.
func WithSplitAffixes(split bool) Option {
	return func(s *Service) { s.splitAffixes = split }
}

// New creates a Service on store. Affix splitting is on by default.
func New(store storage.Storage, opts ...Option) *Service {
	s := &Service{
		store:        store,
		newOccID:     resolver.RandomOccurrenceID,
		splitAffixes: true,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportStats counts what ImportLemmaRows stored.
type ImportStats struct {
	Locations int `json:"locations"`
	Lemmas    int `json:"lemmas"`
	Skipped   int `json:"skipped"`
}

// ImportLemmaRows stores lemma rows. Rows without an id get one through
// ResolveLemmaID; rows without a position, or without lemma text for an unknown
// lemma, are skipped. Each lemma is written once per call.
func (s *Service) ImportLemmaRows(ctx context.Context, rows []models.LemmaLocationRow) (ImportStats, error) {
	var stats ImportStats
	written := map[int64]bool{}
	for i, row := range rows {
		loc, ok := row.Locate(0, 0)
		if !ok {
			stats.Skipped++
			continue
		}
		text := models.StringOr(row.LemmaText, models.StringOr(row.LemmaTextClean, ""))
		clean := models.StringOr(row.LemmaTextClean, canonical.NormalizeTextNorm(text))

		var lemmaID int64
		if row.LemmaID != nil && *row.LemmaID > 0 {
			lemmaID = *row.LemmaID
		}
		if text == "" {
			if lemmaID == 0 || !s.lemmaExists(ctx, lemmaID) {
				stats.Skipped++
				continue
			}
		}
		if lemmaID == 0 {
			id, err := s.store.ResolveLemmaID(ctx, clean)
			if err != nil {
				return stats, fmt.Errorf("row %d: %w", i+1, err)
			}
			lemmaID = id
		}

		if text != "" && !written[lemmaID] {
			lemma := &models.Lemma{
				ID:             lemmaID,
				Text:           text,
				TextClean:      clean,
				WordsCount:     row.WordsCount,
				UniqWordsCount: row.UniqWordsCount,
				PrimaryUToken:  row.UToken,
			}
			if err := s.store.UpsertLemma(ctx, lemma); err != nil {
				return stats, fmt.Errorf("row %d: failed to store lemma %d: %w", i+1, lemmaID, err)
			}
			written[lemmaID] = true
			stats.Lemmas++
			s.indexLemma(ctx, lexicon.Entry{
				LemmaID:   lemmaID,
				Text:      text,
				TextClean: clean,
				POS:       inferPOS(row, text),
				UTokenID:  models.StringOr(row.UToken, ""),
			})
		}

		location := &models.LemmaLocation{
			LemmaID:       lemmaID,
			WordLocation:  loc.String(),
			Surah:         loc.Surah,
			Ayah:          loc.Ayah,
			TokenIndex:    loc.TokenIndex,
			TokenOccID:    row.TokenOccID,
			UToken:        row.UToken,
			WordSimple:    row.WordSimple,
			WordDiacritic: row.WordDiacritic,
		}
		if err := s.store.UpsertLemmaLocation(ctx, location); err != nil {
			return stats, fmt.Errorf("row %d: failed to store location %s: %w", i+1, location.WordLocation, err)
		}
		stats.Locations++
	}
	s.logger.Debug("ingest lemma rows imported",
		zap.Int("locations", stats.Locations), zap.Int("lemmas", stats.Lemmas), zap.Int("skipped", stats.Skipped))
	return stats, nil
}

func (s *Service) lemmaExists(ctx context.Context, id int64) bool {
	_, err := s.store.GetLemma(ctx, id)
	return err == nil
}

func inferPOS(row models.LemmaLocationRow, lemma string) string {
	simple := models.StringOr(row.WordSimple, "")
	role := features.InferWordDefaults(features.WordInput{
		Surface:    models.StringOr(row.WordDiacritic, simple),
		Normalized: simple,
		Lemma:      lemma,
	})
	return role.POS
}

// ImportGrammar stores grammar entries and returns how many were written.
func (s *Service) ImportGrammar(ctx context.Context, entries []importer.GrammarEntry) (int, error) {
	n := 0
	for _, e := range entries {
		if _, err := s.store.UpsertGrammar(ctx, e.UGrammar()); err != nil {
			return n, fmt.Errorf("failed to store grammar %s: %w", e.GrammarID, err)
		}
		n++
	}
	s.logger.Debug("ingest grammar imported", zap.Int("entries", n))
	return n, nil
}

// FileResult describes one ImportFile call.
type FileResult struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Rows    int    `json:"rows"`
	Skipped bool   `json:"skipped"`
}

// ImportFile imports a lemma-row file or a grammar source, chosen by
// importer.DetectKind. A file already imported with the same size and modification
// time is skipped.
func (s *Service) ImportFile(ctx context.Context, path string) (FileResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return FileResult{}, fmt.Errorf("absolute path: %w", err)
	}
	result := FileResult{Path: absPath}
	info, err := os.Stat(absPath)
	if err != nil {
		return result, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return result, fmt.Errorf("not a regular file: %s", absPath)
	}
	kind, err := importer.DetectKind(absPath)
	if err != nil {
		return result, err
	}
	result.Kind = kind

	id := fileid.ImportID(kind, absPath)
	size, modTime := info.Size(), info.ModTime().UnixNano()
	rec, err := s.store.GetImport(ctx, id)
	switch {
	case err == nil && rec.Unchanged(size, modTime):
		s.logger.Debug("ingest skipping unchanged file", zap.String("path", absPath))
		result.Rows = rec.Rows
		result.Skipped = true
		return result, nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return result, err
	}

	switch kind {
	case models.ImportGrammar:
		entries, err := importer.ExtractGrammarEntries(absPath)
		if err != nil {
			return result, fmt.Errorf("extract grammar: %w", err)
		}
		if result.Rows, err = s.ImportGrammar(ctx, entries); err != nil {
			return result, err
		}
	default:
		rows, err := importer.ReadLemmaRows(absPath)
		if err != nil {
			return result, fmt.Errorf("read lemma rows: %w", err)
		}
		stats, err := s.ImportLemmaRows(ctx, rows)
		if err != nil {
			return result, err
		}
		result.Rows = stats.Locations
	}

	if err := s.store.RecordImport(ctx, models.ImportRecord{
		ID:      id,
		Path:    absPath,
		Kind:    kind,
		Size:    size,
		ModTime: modTime,
		Rows:    result.Rows,
	}); err != nil {
		return result, fmt.Errorf("record import: %w", err)
	}
	s.logger.Info("ingest file imported",
		zap.String("path", absPath), zap.String("kind", kind), zap.Int("rows", result.Rows))
	return result, nil
}

// ImportPath adapts ImportFile to callers that only need the error, such as the
// directory watcher.
func (s *Service) ImportPath(ctx context.Context, path string) error {
	_, err := s.ImportFile(ctx, path)
	return err
}

// indexLemma adds e to the lexicon index. Failures are logged and not returned.
func (s *Service) indexLemma(ctx context.Context, e lexicon.Entry) {
	if s.lexicon == nil {
		return
	}
	if err := s.lexicon.Index(ctx, e); err != nil {
		s.logger.Warn("ingest lexicon index failed", zap.Int64("lemma_id", e.LemmaID), zap.Error(err))
	}
}
