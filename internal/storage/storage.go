// Package storage defines the persistence interface for lemmas, lemma locations,
// universal entities, occurrence tokens and import records.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kalima/internal/canonical"
	"github.com/hyperjump/kalima/internal/models"
)

// ErrNotFound is returned when a lookup by id or key matches nothing.
var ErrNotFound = errors.New("not found")

// Storage defines lemma, location and universal-entity persistence.
type Storage interface {
	// Lemma locations
	ListLemmaLocations(ctx context.Context, q models.LemmaLocationQuery) ([]models.LemmaLocation, error)
	CountLemmaLocations(ctx context.Context, q models.LemmaLocationQuery) (int, error)
	UpsertLemmaLocation(ctx context.Context, loc *models.LemmaLocation) error
	ReplaceVerseLocations(ctx context.Context, surah, ayah int, locs []models.LemmaLocation) error

	// Lemmas
	GetLemma(ctx context.Context, id int64) (*models.Lemma, error)
	FindLemmaIDByClean(ctx context.Context, clean string) (int64, error)
	LemmaCleanByID(ctx context.Context, id int64) (string, error)
	MaxLemmaID(ctx context.Context) (int64, error)
	ResolveLemmaID(ctx context.Context, clean string) (int64, error)
	UpsertLemma(ctx context.Context, lemma *models.Lemma) error

	// Universal entities
	UpsertRoot(ctx context.Context, r models.URoot) (canonical.Entity, error)
	UpsertToken(ctx context.Context, t models.UToken) (canonical.Entity, error)
	UpsertSpan(ctx context.Context, s models.USpan) (canonical.Entity, error)
	UpsertSentence(ctx context.Context, s models.USentence) (canonical.Entity, error)
	UpsertValency(ctx context.Context, v models.UValency) (canonical.Entity, error)
	UpsertLexicon(ctx context.Context, l models.ULexicon) (canonical.Entity, error)
	UpsertGrammar(ctx context.Context, g models.UGrammar) (canonical.Entity, error)
	UpsertSynset(ctx context.Context, s models.USynset) (canonical.Entity, error)
	UpsertSynsetMember(ctx context.Context, m models.USynsetMember) (canonical.Entity, error)
	UpsertGrammarLink(ctx context.Context, targetType, targetID, grammarID string) (models.GrammarLink, error)
	ListGrammarLinks(ctx context.Context, targetType, targetID string) ([]models.GrammarLink, error)
	CanonicalInput(ctx context.Context, table, id string) (string, error)

	// Occurrences
	UpsertOccurrenceToken(ctx context.Context, tok models.Token) error
	ReplaceUnitTokens(ctx context.Context, unitID string, tokens []models.Token) error
	ListOccurrenceTokens(ctx context.Context, unitID string) ([]models.Token, error)

	// Imports
	GetImport(ctx context.Context, id string) (*models.ImportRecord, error)
	RecordImport(ctx context.Context, rec models.ImportRecord) error

	// Stats
	CountLemmas(ctx context.Context) (int64, error)

	Close() error
}
